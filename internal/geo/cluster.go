package geo

import (
	"strconv"

	"github.com/nhle/civic-dashboard/internal/model"
)

// AreaSelection is the administrative area picked on the map. The most
// specific non-nil level wins: tehsil, then district, then state.
type AreaSelection struct {
	State    *model.Location
	District *model.Location
	Tehsil   *model.Location
}

// Active returns the most specific selected area, or nil when none is set.
func (a AreaSelection) Active() *model.Location {
	switch {
	case a.Tehsil != nil:
		return a.Tehsil
	case a.District != nil:
		return a.District
	case a.State != nil:
		return a.State
	default:
		return nil
	}
}

// Criteria is the set of predicates applied before clustering. Empty
// category, status and priority selections mean "no constraint".
type Criteria struct {
	Categories []model.Category
	Statuses   []model.Status
	Priorities []model.Priority

	// Area restricts issues to a bounding box when non-nil.
	Area *model.Bounds

	// User and RadiusKm restrict issues to a circle when User is non-nil.
	User     *model.LatLng
	RadiusKm float64
}

// Matches reports whether is passes every active predicate.
func (c Criteria) Matches(is model.Issue) bool {
	if !selected(c.Categories, is.Category) ||
		!selected(c.Statuses, is.Status) ||
		!selected(c.Priorities, is.Priority) {
		return false
	}

	p := model.LatLng{Latitude: is.Latitude, Longitude: is.Longitude}
	if c.Area != nil && !c.Area.Contains(p) {
		return false
	}
	if c.User != nil && DistanceKm(*c.User, p) > c.RadiusKm {
		return false
	}
	return true
}

func selected[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Filter returns the issues that satisfy c, preserving input order. The
// input slice is not modified.
func Filter(issues []model.Issue, c Criteria) []model.Issue {
	out := make([]model.Issue, 0, len(issues))
	for _, is := range issues {
		if c.Matches(is) {
			out = append(out, is)
		}
	}
	return out
}

// Cluster is a group of issues that share a rounded coordinate.
type Cluster struct {
	// Key is "lat,lon" with both values rounded to 6 decimal places.
	Key string

	// Latitude and Longitude are the exact coordinates of the first member.
	Latitude  float64
	Longitude float64

	Issues []model.Issue
}

// Count is the number of issues in the cluster.
func (c Cluster) Count() int {
	return len(c.Issues)
}

// Single reports whether the cluster holds exactly one issue.
func (c Cluster) Single() bool {
	return len(c.Issues) == 1
}

// CoordinateKey formats lat/lon rounded to 6 decimal places. Values that
// round to zero always format as "0.000000", whatever their sign.
func CoordinateKey(lat, lon float64) string {
	return formatCoord(lat) + "," + formatCoord(lon)
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	if s == "-0.000000" {
		return s[1:]
	}
	return s
}

// ClusterIssues groups issues by CoordinateKey. Clusters appear in the order
// their first member appears in issues.
func ClusterIssues(issues []model.Issue) []Cluster {
	index := make(map[string]int)
	clusters := make([]Cluster, 0)

	for _, is := range issues {
		key := CoordinateKey(is.Latitude, is.Longitude)
		if i, ok := index[key]; ok {
			clusters[i].Issues = append(clusters[i].Issues, is)
			continue
		}
		index[key] = len(clusters)
		clusters = append(clusters, Cluster{
			Key:       key,
			Latitude:  is.Latitude,
			Longitude: is.Longitude,
			Issues:    []model.Issue{is},
		})
	}

	return clusters
}

// FilterAndCluster is Filter followed by ClusterIssues.
func FilterAndCluster(issues []model.Issue, c Criteria) []Cluster {
	return ClusterIssues(Filter(issues, c))
}
