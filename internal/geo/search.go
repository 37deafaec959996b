package geo

import (
	"context"
	"errors"
	"strings"

	"github.com/nhle/civic-dashboard/internal/model"
)

// Stats is the map header summary.
type Stats struct {
	Total      int
	Resolved   int
	InProgress int
	Pending    int
}

// Summarize counts issues by the statuses shown on the map header.
func Summarize(issues []model.Issue) Stats {
	s := Stats{Total: len(issues)}
	for _, is := range issues {
		switch is.Status {
		case model.StatusResolved:
			s.Resolved++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusPending:
			s.Pending++
		}
	}
	return s
}

// issueSearchZoom is the zoom used when a search result is a single issue.
const issueSearchZoom = 15

// SearchResult is a place the map can jump to.
type SearchResult struct {
	Name     string
	Type     string
	Center   model.LatLng
	Zoom     int
	Location *model.Location
	Issue    *model.Issue
}

// Search matches query case-insensitively against location names. When no
// location matches, issues whose title or address contain the query are
// returned instead. An empty query yields nothing.
func Search(query string, locations []model.Location, issues []model.Issue) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []SearchResult
	for i := range locations {
		loc := locations[i]
		if !strings.Contains(strings.ToLower(loc.Name), q) {
			continue
		}
		results = append(results, SearchResult{
			Name:     loc.Name,
			Type:     string(loc.Type),
			Center:   loc.Center,
			Zoom:     loc.ZoomLevel,
			Location: &loc,
		})
	}
	if len(results) > 0 {
		return results
	}

	for i := range issues {
		is := issues[i]
		if !strings.Contains(strings.ToLower(is.Title), q) &&
			!strings.Contains(strings.ToLower(is.Address), q) {
			continue
		}
		name := is.Address
		if name == "" {
			name = is.Title
		}
		results = append(results, SearchResult{
			Name:   name,
			Type:   "issue",
			Center: model.LatLng{Latitude: is.Latitude, Longitude: is.Longitude},
			Zoom:   issueSearchZoom,
			Issue:  &is,
		})
	}
	return results
}

// ErrLocationUnavailable is returned by a Locator that has no reading.
var ErrLocationUnavailable = errors.New("location unavailable")

// Locator produces a single reading of the user's position.
type Locator interface {
	Locate(ctx context.Context) (model.LatLng, error)
}

// StaticLocator returns a fixed position, typically the configured home.
type StaticLocator struct {
	Position *model.LatLng
}

// Locate returns the configured position or ErrLocationUnavailable.
func (l StaticLocator) Locate(ctx context.Context) (model.LatLng, error) {
	if err := ctx.Err(); err != nil {
		return model.LatLng{}, err
	}
	if l.Position == nil {
		return model.LatLng{}, ErrLocationUnavailable
	}
	return *l.Position, nil
}
