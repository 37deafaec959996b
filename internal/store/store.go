package store

import (
	"context"
	"time"

	"github.com/nhle/civic-dashboard/internal/model"
)

// IssueFilter controls filtering, sorting, and pagination for snapshot
// queries. Empty selections match everything.
type IssueFilter struct {
	Categories []model.Category
	Statuses   []model.Status
	Priorities []model.Priority
	Query      *string  // matched against title, description and address
	SortBy     string   // "created_at", "updated_at", "priority", "status", "title"
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store is the local persistence layer: an offline snapshot of issues and
// administrative areas, plus the notification inbox.
type Store interface {
	// === Issue snapshot ===

	UpsertIssues(ctx context.Context, issues []model.Issue, fetchedAt time.Time) error
	GetIssues(ctx context.Context, filter IssueFilter) ([]model.Issue, error)
	GetIssueByID(ctx context.Context, id string) (*model.Issue, error)
	DeleteIssue(ctx context.Context, id string) error
	KnownIssueIDs(ctx context.Context) (map[string]struct{}, error)

	// === Locations ===

	UpsertLocations(ctx context.Context, locs []model.Location) error
	GetLocations(ctx context.Context, t model.LocationType, parentID string) ([]model.Location, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error

	// === Sync bookkeeping ===

	LastSynced(ctx context.Context) (time.Time, error)
	SetLastSynced(ctx context.Context, t time.Time) error
}
