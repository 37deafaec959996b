package filter

import (
	"github.com/nhle/civic-dashboard/internal/model"
)

// Action is a filter state transition.
type Action interface {
	apply(s *State)
}

// Reduce returns the state after applying a. The input is never mutated and
// the result shares no slices with it. Every action except SetPagination
// resets Page to 1.
func Reduce(s State, a Action) State {
	next := s.clone()
	a.apply(&next)
	return next
}

// SetSearch replaces the free-text query.
type SetSearch string

func (a SetSearch) apply(s *State) {
	s.Search = string(a)
	s.Page = 1
}

// SetCategories replaces the category selection.
type SetCategories []model.Category

func (a SetCategories) apply(s *State) {
	s.Categories = cloneSlice(a)
	s.Page = 1
}

// SetStatuses replaces the status selection.
type SetStatuses []model.Status

func (a SetStatuses) apply(s *State) {
	s.Statuses = cloneSlice(a)
	s.Page = 1
}

// SetPriorities replaces the priority selection.
type SetPriorities []model.Priority

func (a SetPriorities) apply(s *State) {
	s.Priorities = cloneSlice(a)
	s.Page = 1
}

// SetDepartments replaces the department id selection.
type SetDepartments []string

func (a SetDepartments) apply(s *State) {
	s.Departments = cloneSlice(a)
	s.Page = 1
}

// SetAssignedTo replaces the assignee id selection.
type SetAssignedTo []string

func (a SetAssignedTo) apply(s *State) {
	s.AssignedTo = cloneSlice(a)
	s.Page = 1
}

// SetDateRange replaces the creation date window.
type SetDateRange DateRange

func (a SetDateRange) apply(s *State) {
	s.DateRange = DateRange(a)
	s.Page = 1
}

// SetLocation merges the provided location fields. Fields left nil keep
// their current value; use ClearBounds or ClearCenter to unset.
type SetLocation struct {
	Bounds      *model.Bounds
	Center      *model.LatLng
	RadiusKm    *float64
	ClearBounds bool
	ClearCenter bool
}

func (a SetLocation) apply(s *State) {
	if a.Bounds != nil {
		b := *a.Bounds
		s.Location.Bounds = &b
	}
	if a.ClearBounds {
		s.Location.Bounds = nil
	}
	if a.Center != nil {
		c := *a.Center
		s.Location.Center = &c
	}
	if a.ClearCenter {
		s.Location.Center = nil
	}
	if a.RadiusKm != nil {
		s.Location.RadiusKm = *a.RadiusKm
	}
	s.Page = 1
}

// SetSorting replaces the sort key and direction.
type SetSorting struct {
	By    SortKey
	Order SortOrder
}

func (a SetSorting) apply(s *State) {
	s.SortBy = a.By
	s.SortOrder = a.Order
	s.Page = 1
}

// SetPagination moves to another page. A zero Limit keeps the current page
// size. This is the only action that does not reset Page.
type SetPagination struct {
	Page  int
	Limit int
}

func (a SetPagination) apply(s *State) {
	s.Page = a.Page
	if a.Limit != 0 {
		s.Limit = a.Limit
	}
}

// Reset restores the default record.
type Reset struct{}

func (Reset) apply(s *State) {
	*s = Default()
}

// Update merges every non-nil field and resets Page to 1.
type Update struct {
	Search      *string
	Categories  []model.Category
	Statuses    []model.Status
	Priorities  []model.Priority
	Departments []string
	AssignedTo  []string
	DateRange   *DateRange
	Location    *Location
	SortBy      *SortKey
	SortOrder   *SortOrder
	Limit       *int
}

func (a Update) apply(s *State) {
	if a.Search != nil {
		s.Search = *a.Search
	}
	if a.Categories != nil {
		s.Categories = cloneSlice(a.Categories)
	}
	if a.Statuses != nil {
		s.Statuses = cloneSlice(a.Statuses)
	}
	if a.Priorities != nil {
		s.Priorities = cloneSlice(a.Priorities)
	}
	if a.Departments != nil {
		s.Departments = cloneSlice(a.Departments)
	}
	if a.AssignedTo != nil {
		s.AssignedTo = cloneSlice(a.AssignedTo)
	}
	if a.DateRange != nil {
		s.DateRange = *a.DateRange
	}
	if a.Location != nil {
		s.Location = *a.Location
	}
	if a.SortBy != nil {
		s.SortBy = *a.SortBy
	}
	if a.SortOrder != nil {
		s.SortOrder = *a.SortOrder
	}
	if a.Limit != nil {
		s.Limit = *a.Limit
	}
	s.Page = 1
}

// Toggle returns set with v removed if present, or appended if absent.
func Toggle[T comparable](set []T, v T) []T {
	out := make([]T, 0, len(set)+1)
	found := false
	for _, x := range set {
		if x == v {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, v)
	}
	return out
}
