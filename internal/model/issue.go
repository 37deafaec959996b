package model

import (
	"fmt"
	"time"
)

// Category is the kind of civic problem an issue reports.
type Category string

const (
	CategoryRoad        Category = "road"
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategoryGarbage     Category = "garbage"
	CategoryDrainage    Category = "drainage"
	CategoryPark        Category = "park"
	CategoryTraffic     Category = "traffic"
	CategoryOther       Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryRoad,
	CategoryWater,
	CategoryElectricity,
	CategoryGarbage,
	CategoryDrainage,
	CategoryPark,
	CategoryTraffic,
	CategoryOther,
}

// Priority is the urgency of an issue. Values are ordered low to critical.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// Rank returns the ordinal of p (low = 1, critical = 4), or 0 when unknown.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// Status is the workflow state of an issue.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in-progress"
	StatusResolved     Status = "resolved"
	StatusRejected     Status = "rejected"
)

// Statuses lists every status in workflow order, rejected last.
var Statuses = []Status{
	StatusPending,
	StatusAcknowledged,
	StatusInProgress,
	StatusResolved,
	StatusRejected,
}

// ParseCategory validates s against the known categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParsePriority validates s against the known priorities.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Image is an uploaded photo attached to an issue or progress update.
type Image struct {
	URL        string    `json:"url"`
	PublicID   string    `json:"publicId,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Format     string    `json:"format,omitempty"`
	Bytes      int64     `json:"bytes,omitempty"`
	UploadedAt time.Time `json:"uploadedAt,omitempty"`
}

// UserRef is the embedded summary of a user carried on issues.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DepartmentRef is the embedded summary of a department carried on issues.
type DepartmentRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Issue is a reported civic problem.
type Issue struct {
	// ID is the server-assigned identifier.
	ID string `json:"_id"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`

	// Latitude and Longitude locate the issue in decimal degrees.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Address is the optional human-readable location.
	Address string `json:"address,omitempty"`

	Images     []Image        `json:"images,omitempty"`
	ReportedBy UserRef        `json:"reportedBy"`
	AssignedTo *UserRef       `json:"assignedTo,omitempty"`
	Department *DepartmentRef `json:"department,omitempty"`

	// Upvotes and Downvotes hold the ids of users who voted.
	Upvotes   []string `json:"upvotes"`
	Downvotes []string `json:"downvotes"`

	Tags        []string  `json:"tags,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VoteScore is upvotes minus downvotes.
func (i Issue) VoteScore() int {
	return len(i.Upvotes) - len(i.Downvotes)
}

// VotedBy reports how userID voted on the issue: "upvote", "downvote" or "".
func (i Issue) VotedBy(userID string) string {
	for _, id := range i.Upvotes {
		if id == userID {
			return string(VoteUp)
		}
	}
	for _, id := range i.Downvotes {
		if id == userID {
			return string(VoteDown)
		}
	}
	return ""
}

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// VoteResult is the tally returned after voting.
type VoteResult struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	VoteCount int `json:"voteCount"`
}

// IssueUpdate is a progress entry appended to an issue by staff.
type IssueUpdate struct {
	ID        string    `json:"_id,omitempty"`
	Note      string    `json:"note"`
	Images    []Image   `json:"images,omitempty"`
	Status    Status    `json:"status,omitempty"`
	CreatedBy UserRef   `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Pagination summarizes a page of a server-side listing.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// IssuePage is one page of issues plus its pagination summary.
type IssuePage struct {
	Issues     []Issue    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewIssue is the payload for reporting an issue.
type NewIssue struct {
	Title       string
	Description string
	Category    Category
	Priority    Priority
	Latitude    float64
	Longitude   float64
	Address     string
	Tags        []string
	IsAnonymous bool

	// ImagePaths are local files uploaded with the report.
	ImagePaths []string
}

// IssuePatch carries the editable fields of an issue. Nil fields are left
// unchanged.
type IssuePatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}
