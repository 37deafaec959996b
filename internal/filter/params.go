package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/civic-dashboard/internal/geo"
	"github.com/nhle/civic-dashboard/internal/model"
)

// Params encodes s as issue listing query parameters. Multi-value
// selections are comma-joined; empty selections are omitted.
func Params(s State) url.Values {
	q := url.Values{}
	if s.Search != "" {
		q.Set("search", s.Search)
	}
	setJoined(q, "category", s.Categories)
	setJoined(q, "status", s.Statuses)
	setJoined(q, "priority", s.Priorities)
	setJoined(q, "department", s.Departments)
	setJoined(q, "assignedTo", s.AssignedTo)

	if s.DateRange.Start != nil {
		q.Set("startDate", s.DateRange.Start.UTC().Format(time.RFC3339))
	}
	if s.DateRange.End != nil {
		q.Set("endDate", s.DateRange.End.UTC().Format(time.RFC3339))
	}

	if c := s.Location.Center; c != nil {
		q.Set("latitude", formatFloat(c.Latitude))
		q.Set("longitude", formatFloat(c.Longitude))
		q.Set("radius", formatFloat(s.Location.RadiusKm))
	}
	if b := s.Location.Bounds; b != nil {
		q.Set("bounds", strings.Join([]string{
			formatFloat(b.South), formatFloat(b.West),
			formatFloat(b.North), formatFloat(b.East),
		}, ","))
	}

	if s.SortBy != "" {
		q.Set("sortBy", string(s.SortBy))
	}
	if s.SortOrder != "" {
		q.Set("sortOrder", string(s.SortOrder))
	}
	if s.Page > 0 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.Limit > 0 {
		q.Set("limit", strconv.Itoa(s.Limit))
	}
	return q
}

// MapParams is Params for the map view: the page is pinned to 1 and the
// limit is replaced by pageSize so the whole area is fetched at once.
// Category, status and priority are left to client-side filtering.
func MapParams(s State, pageSize int) url.Values {
	s = s.clone()
	s.Categories = nil
	s.Statuses = nil
	s.Priorities = nil
	s.Location = Location{}
	s.Page = 1
	s.Limit = pageSize
	return Params(s)
}

// Criteria projects s onto the map's client-side predicates. The user
// position comes from the location center, if one is set.
func Criteria(s State, area *model.Bounds) geo.Criteria {
	c := geo.Criteria{
		Categories: s.Categories,
		Statuses:   s.Statuses,
		Priorities: s.Priorities,
		Area:       area,
		RadiusKm:   s.Location.RadiusKm,
	}
	if s.Location.Center != nil {
		center := *s.Location.Center
		c.User = &center
	}
	return c
}

func setJoined[T ~string](q url.Values, key string, values []T) {
	if len(values) == 0 {
		return
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	q.Set(key, strings.Join(parts, ","))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
