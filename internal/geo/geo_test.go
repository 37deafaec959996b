package geo

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/nhle/civic-dashboard/internal/model"
)

func issueAt(id string, lat, lon float64, st model.Status) model.Issue {
	return model.Issue{
		ID:        id,
		Latitude:  lat,
		Longitude: lon,
		Status:    st,
		Category:  model.CategoryRoad,
		Priority:  model.PriorityMedium,
	}
}

func TestDistanceKm(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b model.LatLng
		want float64
		tol  float64
	}{
		{"same point", model.LatLng{Latitude: 12.5, Longitude: 77.1}, model.LatLng{Latitude: 12.5, Longitude: 77.1}, 0, 1e-9},
		{"origin to 10,10", model.LatLng{}, model.LatLng{Latitude: 10, Longitude: 10}, 1568.52, 0.01},
		{"delhi to mumbai", model.LatLng{Latitude: 28.6139, Longitude: 77.2090}, model.LatLng{Latitude: 19.0760, Longitude: 72.8777}, 1148.09, 0.01},
		{"hundredth degree at equator", model.LatLng{}, model.LatLng{Longitude: 0.01}, 1.1119, 0.001},
	} {
		got := DistanceKm(tc.a, tc.b)
		if math.Abs(got-tc.want) > tc.tol {
			t.Errorf("%s: DistanceKm = %.4f, want %.4f", tc.name, got, tc.want)
		}
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a := model.LatLng{Latitude: r.Float64()*180 - 90, Longitude: r.Float64()*360 - 180}
		b := model.LatLng{Latitude: r.Float64()*180 - 90, Longitude: r.Float64()*360 - 180}
		ab, ba := DistanceKm(a, b), DistanceKm(b, a)
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("DistanceKm(%v,%v)=%v but reverse=%v", a, b, ab, ba)
		}
		if DistanceKm(a, a) != 0 {
			t.Fatalf("DistanceKm(%v,%v) != 0", a, a)
		}
	}
}

func TestFilterAndCluster_StatusScenario(t *testing.T) {
	issues := []model.Issue{
		issueAt("a", 10, 20, model.StatusPending),
		issueAt("b", 10, 20, model.StatusResolved),
		issueAt("c", 30, 40, model.StatusPending),
	}

	clusters := FilterAndCluster(issues, Criteria{Statuses: []model.Status{model.StatusPending}})
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	for _, c := range clusters {
		if c.Count() != 1 {
			t.Errorf("cluster %s count = %d, want 1", c.Key, c.Count())
		}
	}
	if clusters[0].Issues[0].ID != "a" || clusters[1].Issues[0].ID != "c" {
		t.Errorf("cluster members = %s,%s; want a,c", clusters[0].Issues[0].ID, clusters[1].Issues[0].ID)
	}

	// Without the status constraint the two (10,20) issues share a marker.
	all := FilterAndCluster(issues, Criteria{})
	if len(all) != 2 || all[0].Count() != 2 {
		t.Fatalf("unfiltered clusters = %+v", all)
	}
}

func TestFilter_RadiusScenario(t *testing.T) {
	issues := []model.Issue{
		issueAt("near", 0, 0, model.StatusPending),
		issueAt("far", 10, 10, model.StatusPending),
	}
	got := Filter(issues, Criteria{User: &model.LatLng{}, RadiusKm: 1})
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("Filter = %+v, want only near", got)
	}
}

func TestFilter_RadiusMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	issues := make([]model.Issue, 300)
	for i := range issues {
		issues[i] = issueAt("", 28+r.Float64(), 77+r.Float64(), model.StatusPending)
		issues[i].ID = CoordinateKey(issues[i].Latitude, issues[i].Longitude)
	}
	user := &model.LatLng{Latitude: 28.5, Longitude: 77.5}

	prev := map[string]bool{}
	for _, radius := range []float64{0, 1, 5, 10, 25, 50, 100, 500} {
		cur := map[string]bool{}
		for _, is := range Filter(issues, Criteria{User: user, RadiusKm: radius}) {
			cur[is.ID] = true
		}
		for id := range prev {
			if !cur[id] {
				t.Fatalf("radius %v dropped %s present at a smaller radius", radius, id)
			}
		}
		prev = cur
	}
	if len(prev) != len(issues) {
		t.Errorf("radius 500 kept %d of %d", len(prev), len(issues))
	}
}

func TestFilter_EmptySelectionMatchesAll(t *testing.T) {
	issues := []model.Issue{
		issueAt("a", 1, 1, model.StatusPending),
		issueAt("b", 2, 2, model.StatusRejected),
	}
	issues[1].Category = model.CategoryWater
	issues[1].Priority = model.PriorityCritical

	if got := Filter(issues, Criteria{}); len(got) != 2 {
		t.Errorf("empty criteria kept %d, want 2", len(got))
	}
	got := Filter(issues, Criteria{
		Categories: []model.Category{model.CategoryWater, model.CategoryPark},
		Priorities: []model.Priority{model.PriorityCritical},
	})
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("category+priority filter = %+v", got)
	}
}

func TestFilter_AreaInclusive(t *testing.T) {
	b := model.Bounds{North: 20, South: 10, East: 40, West: 30}
	issues := []model.Issue{
		issueAt("north-edge", 20, 35, model.StatusPending),
		issueAt("west-edge", 15, 30, model.StatusPending),
		issueAt("outside", 20.5, 35, model.StatusPending),
	}
	got := Filter(issues, Criteria{Area: &b})
	if len(got) != 2 || got[0].ID != "north-edge" || got[1].ID != "west-edge" {
		t.Fatalf("Filter = %+v", got)
	}
}

func TestAreaSelection_Precedence(t *testing.T) {
	state := &model.Location{ID: "s"}
	district := &model.Location{ID: "d"}
	tehsil := &model.Location{ID: "t"}

	for _, tc := range []struct {
		sel  AreaSelection
		want string
	}{
		{AreaSelection{}, ""},
		{AreaSelection{State: state}, "s"},
		{AreaSelection{State: state, District: district}, "d"},
		{AreaSelection{State: state, District: district, Tehsil: tehsil}, "t"},
		{AreaSelection{Tehsil: tehsil}, "t"},
	} {
		got := ""
		if a := tc.sel.Active(); a != nil {
			got = a.ID
		}
		if got != tc.want {
			t.Errorf("Active() = %q, want %q", got, tc.want)
		}
	}
}

func TestClusterIssues_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	var issues []model.Issue
	// A handful of coordinates reused many times, plus some that differ
	// only past the sixth decimal.
	coords := [][2]float64{{28.1, 77.1}, {28.2, 77.2}, {28.3000001, 77.3}, {28.3000002, 77.3}}
	for i := 0; i < 100; i++ {
		c := coords[r.Intn(len(coords))]
		issues = append(issues, issueAt("", c[0], c[1], model.StatusPending))
	}

	clusters := ClusterIssues(issues)
	total := 0
	seen := map[string]bool{}
	for _, c := range clusters {
		if seen[c.Key] {
			t.Fatalf("duplicate cluster key %s", c.Key)
		}
		seen[c.Key] = true
		for _, is := range c.Issues {
			if k := CoordinateKey(is.Latitude, is.Longitude); k != c.Key {
				t.Fatalf("issue key %s in cluster %s", k, c.Key)
			}
		}
		total += c.Count()
	}
	if total != len(issues) {
		t.Errorf("clusters hold %d issues, want %d", total, len(issues))
	}
	if len(clusters) != 3 {
		t.Errorf("got %d clusters, want 3", len(clusters))
	}
}

func TestClusterIssues_SignedZeroShareKey(t *testing.T) {
	issues := []model.Issue{
		issueAt("a", 1e-7, 20, model.StatusPending),
		issueAt("b", -1e-7, 20, model.StatusPending),
		issueAt("c", math.Copysign(0, -1), 20, model.StatusPending),
	}
	clusters := ClusterIssues(issues)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1: %+v", len(clusters), clusters)
	}
	if clusters[0].Key != "0.000000,20.000000" || clusters[0].Count() != 3 {
		t.Errorf("cluster = %s x%d", clusters[0].Key, clusters[0].Count())
	}
	if got := CoordinateKey(-1e-7, -1e-7); got != "0.000000,0.000000" {
		t.Errorf("CoordinateKey = %q", got)
	}
}

func TestClusterIssues_Empty(t *testing.T) {
	if got := ClusterIssues(nil); len(got) != 0 {
		t.Errorf("ClusterIssues(nil) = %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.Issue{
		issueAt("a", 0, 0, model.StatusPending),
		issueAt("b", 0, 0, model.StatusResolved),
		issueAt("c", 0, 0, model.StatusInProgress),
		issueAt("d", 0, 0, model.StatusRejected),
	})
	if s != (Stats{Total: 4, Resolved: 1, InProgress: 1, Pending: 1}) {
		t.Errorf("Summarize = %+v", s)
	}
}

func TestSearch(t *testing.T) {
	locs := []model.Location{
		{ID: "1", Name: "Delhi", Type: model.LocationState, ZoomLevel: 10},
		{ID: "2", Name: "New Delhi", Type: model.LocationDistrict, ZoomLevel: 12},
		{ID: "3", Name: "Gurugram", Type: model.LocationDistrict},
	}
	issues := []model.Issue{
		{ID: "i1", Title: "Broken streetlight", Address: "MG Road"},
		{ID: "i2", Title: "Garbage pile", Address: "Sector 14"},
	}

	got := Search("delhi", locs, issues)
	if len(got) != 2 || got[0].Location.ID != "1" || got[1].Location.ID != "2" {
		t.Fatalf("Search(delhi) = %+v", got)
	}

	got = Search("mg road", locs, issues)
	if len(got) != 1 || got[0].Issue.ID != "i1" || got[0].Zoom != 15 {
		t.Fatalf("Search(mg road) = %+v", got)
	}

	if got := Search("  ", locs, issues); got != nil {
		t.Errorf("Search(blank) = %+v", got)
	}
}

func TestStaticLocator(t *testing.T) {
	if _, err := (StaticLocator{}).Locate(context.Background()); !errors.Is(err, ErrLocationUnavailable) {
		t.Errorf("err = %v, want ErrLocationUnavailable", err)
	}
	home := &model.LatLng{Latitude: 1, Longitude: 2}
	got, err := StaticLocator{Position: home}.Locate(context.Background())
	if err != nil || got != *home {
		t.Errorf("Locate = %v, %v", got, err)
	}
}
