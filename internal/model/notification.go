package model

import "time"

// NotificationKind controls how a notification is styled.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notification is an entry in the user's inbox, raised either by the
// background poller or by the result of a user action.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	Kind NotificationKind `json:"kind" db:"kind"`

	Title   string `json:"title" db:"title"`
	Message string `json:"message" db:"message"`

	// IssueID links the notification to an issue, when there is one.
	IssueID string `json:"issue_id,omitempty" db:"issue_id"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
