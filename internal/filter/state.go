// Package filter holds the issue query filter record and the reducer that
// transitions it.
package filter

import (
	"time"

	"github.com/nhle/civic-dashboard/internal/model"
)

// SortKey is a field issues can be ordered by.
type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortUpdatedAt SortKey = "updatedAt"
	SortPriority  SortKey = "priority"
	SortStatus    SortKey = "status"
	SortTitle     SortKey = "title"
)

// SortKeys lists the sort keys in the order the list view cycles them.
var SortKeys = []SortKey{SortCreatedAt, SortUpdatedAt, SortPriority, SortStatus, SortTitle}

// SortOrder is ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// DateRange bounds issue creation time. Nil ends are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Location constrains issues geographically.
type Location struct {
	Bounds   *model.Bounds
	Center   *model.LatLng
	RadiusKm float64
}

// DefaultRadiusKm is the radius used until the user picks one.
const DefaultRadiusKm = 10

// DefaultLimit is the page size of the issues list.
const DefaultLimit = 20

// State is the full set of active search, filter, sort and pagination
// parameters for issue queries.
type State struct {
	Search      string
	Categories  []model.Category
	Statuses    []model.Status
	Priorities  []model.Priority
	Departments []string
	AssignedTo  []string
	DateRange   DateRange
	Location    Location
	SortBy      SortKey
	SortOrder   SortOrder
	Page        int
	Limit       int
}

// Default returns the initial filter record.
func Default() State {
	return State{
		Categories:  []model.Category{},
		Statuses:    []model.Status{},
		Priorities:  []model.Priority{},
		Departments: []string{},
		AssignedTo:  []string{},
		Location:    Location{RadiusKm: DefaultRadiusKm},
		SortBy:      SortCreatedAt,
		SortOrder:   Desc,
		Page:        1,
		Limit:       DefaultLimit,
	}
}

// IsFiltered reports whether any predicate narrows the result set. Sort and
// pagination are not predicates.
func (s State) IsFiltered() bool {
	return s.Search != "" ||
		len(s.Categories) > 0 ||
		len(s.Statuses) > 0 ||
		len(s.Priorities) > 0 ||
		len(s.Departments) > 0 ||
		len(s.AssignedTo) > 0 ||
		s.DateRange.Start != nil ||
		s.DateRange.End != nil ||
		s.Location.Bounds != nil ||
		s.Location.Center != nil
}

func (s State) clone() State {
	s.Categories = cloneSlice(s.Categories)
	s.Statuses = cloneSlice(s.Statuses)
	s.Priorities = cloneSlice(s.Priorities)
	s.Departments = cloneSlice(s.Departments)
	s.AssignedTo = cloneSlice(s.AssignedTo)
	return s
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
