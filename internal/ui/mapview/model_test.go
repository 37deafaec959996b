package mapview

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/geo"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
)

type fakeSource struct {
	issues []model.Issue
	calls  int
}

func (f *fakeSource) MapIssues(context.Context, filter.State) (Snapshot, error) {
	f.calls++
	return Snapshot{Issues: f.issues}, nil
}

type fakeAreas map[string][]model.Location

func (f fakeAreas) Locations(_ context.Context, t model.LocationType, parent string) ([]model.Location, error) {
	return f[string(t)+"/"+parent], nil
}

func issue(id string, lat, lon float64, st model.Status) model.Issue {
	return model.Issue{ID: id, Title: "Issue " + id, Latitude: lat, Longitude: lon, Status: st,
		Category: model.CategoryRoad, Priority: model.PriorityMedium}
}

var pune = model.Location{ID: "s1", Name: "Maharashtra", Type: model.LocationState,
	Bounds: model.Bounds{North: 22, South: 15, East: 81, West: 72}, ZoomLevel: 6}
var puneDistrict = model.Location{ID: "d1", Name: "Pune", Type: model.LocationDistrict, ParentID: "s1",
	Bounds: model.Bounds{North: 19, South: 18, East: 74.5, West: 73.5}, ZoomLevel: 9}

func newMap(t *testing.T, src *fakeSource) Model {
	t.Helper()
	areas := fakeAreas{
		"state/":      {pune},
		"district/s1": {puneDistrict},
		"tehsil/d1":   {},
	}
	user := model.LatLng{Latitude: 18.52, Longitude: 73.85}
	m := New(src, areas, geo.StaticLocator{Position: &user}, keys.DefaultKeyMap(), 120, 40)
	m, _ = m.Update(m.Load()())
	return m
}

func press(m Model, s string) (Model, tea.Msg) {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	}
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestLoad_ClustersAndStats(t *testing.T) {
	src := &fakeSource{issues: []model.Issue{
		issue("a", 10, 20, model.StatusPending),
		issue("b", 10, 20, model.StatusResolved),
		issue("c", 30, 40, model.StatusPending),
	}}
	m := newMap(t, src)

	if len(m.Clusters()) != 2 || m.Clusters()[0].Count() != 2 {
		t.Fatalf("clusters = %+v", m.Clusters())
	}
	if s := m.Stats(); s.Total != 3 || s.Pending != 2 || s.Resolved != 1 {
		t.Errorf("stats = %+v", s)
	}
	if !m.framed {
		t.Error("viewport not fitted to issues")
	}
}

func TestSetFilter_StatusRecomputesWithoutRefetch(t *testing.T) {
	src := &fakeSource{issues: []model.Issue{
		issue("a", 10, 20, model.StatusPending),
		issue("b", 10, 20, model.StatusResolved),
		issue("c", 30, 40, model.StatusPending),
	}}
	m := newMap(t, src)

	cmd := m.SetFilter(filter.Reduce(m.State(), filter.SetStatuses{model.StatusPending}))
	if cmd != nil || src.calls != 1 {
		t.Errorf("refetched for a client-side predicate (calls=%d)", src.calls)
	}
	if len(m.Clusters()) != 2 || m.Clusters()[0].Count() != 1 {
		t.Errorf("clusters = %+v", m.Clusters())
	}

	if cmd := m.SetFilter(filter.Reduce(m.State(), filter.SetSearch("pothole"))); cmd == nil {
		t.Error("search change did not refetch")
	}
}

func TestPopup_SingleAndMultiple(t *testing.T) {
	src := &fakeSource{issues: []model.Issue{
		issue("a", 10, 20, model.StatusPending),
		issue("b", 10, 20, model.StatusResolved),
		issue("c", 30, 40, model.StatusPending),
	}}
	m := newMap(t, src)

	m, _ = press(m, "enter")
	if m.mode != modePopup {
		t.Fatal("popup not opened")
	}
	m, _ = press(m, "j")
	if _, msg := press(m, "enter"); msg != (SelectedIssueMsg{IssueID: "b"}) {
		t.Errorf("multi popup open = %#v", msg)
	}

	m, _ = press(m, "esc")
	m, _ = press(m, "j")
	m, _ = press(m, "enter")
	if !m.clusters[m.selected].Single() {
		t.Fatal("expected single cluster")
	}
	if _, msg := press(m, "n"); msg != (ReportHereMsg{At: model.LatLng{Latitude: 30, Longitude: 40}}) {
		t.Errorf("report here = %#v", msg)
	}
}

func TestRadiusSteps(t *testing.T) {
	m := newMap(t, &fakeSource{})

	_, msg := press(m, ">")
	fm, ok := msg.(FilterMsg)
	if !ok {
		t.Fatalf("msg = %#v", msg)
	}
	next := filter.Reduce(m.State(), fm.Action)
	if next.Location.RadiusKm != 15 {
		t.Errorf("radius = %v", next.Location.RadiusKm)
	}

	m.SetFilter(filter.Reduce(m.State(), filter.SetLocation{RadiusKm: &RadiusSteps[0]}))
	if _, msg := press(m, "<"); msg != nil {
		t.Errorf("narrowed below the smallest step: %#v", msg)
	}
}

func TestLocate_SetsCenter(t *testing.T) {
	m := newMap(t, &fakeSource{})
	m, msg := press(m, "l")
	m, cmd := m.Update(msg)
	fm, ok := cmd().(FilterMsg)
	if !ok {
		t.Fatal("locate did not emit a filter change")
	}
	s := filter.Reduce(m.State(), fm.Action)
	if s.Location.Center == nil || s.Location.Center.Latitude != 18.52 {
		t.Errorf("center = %+v", s.Location.Center)
	}

	m.SetFilter(s)
	if _, msg := press(m, "c"); msg == nil {
		t.Error("clear center not offered")
	}
}

func TestAreaPicker_NarrowsToDistrict(t *testing.T) {
	src := &fakeSource{issues: []model.Issue{
		issue("in", 18.5, 73.9, model.StatusPending),
		issue("state-only", 20, 76, model.StatusPending),
		issue("out", 28.6, 77.2, model.StatusPending),
	}}
	m := newMap(t, src)

	m, msg := press(m, "a")
	m, _ = m.Update(msg)
	if m.mode != modeArea || len(m.picker.options) != 1 {
		t.Fatalf("picker = %+v", m.picker)
	}

	m, msg = press(m, "enter")
	if len(m.Clusters()) != 2 {
		t.Errorf("state clusters = %d", len(m.Clusters()))
	}
	m, _ = m.Update(msg)
	if m.picker.level != model.LocationDistrict {
		t.Fatalf("level = %s", m.picker.level)
	}

	m, msg = press(m, "enter")
	m, _ = m.Update(msg)
	if a := m.Area().Active(); a == nil || a.ID != "d1" {
		t.Fatalf("active area = %+v", a)
	}
	if len(m.Clusters()) != 1 || m.Clusters()[0].Issues[0].ID != "in" {
		t.Errorf("district clusters = %+v", m.Clusters())
	}

	m, _ = press(m, "esc")
	m, _ = press(m, "x")
	if m.Area().Active() != nil || len(m.Clusters()) != 3 {
		t.Errorf("area not cleared: %d clusters", len(m.Clusters()))
	}
}

func TestSearch_IssueFallbackSelectsMarker(t *testing.T) {
	src := &fakeSource{issues: []model.Issue{
		issue("a", 10, 20, model.StatusPending),
		{ID: "b", Title: "Broken drain", Address: "MG Road", Latitude: 30, Longitude: 40, Status: model.StatusPending},
	}}
	m := newMap(t, src)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	for _, r := range "drain" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = press(m, "enter")
	if len(m.results) != 1 || m.results[0].Type != "issue" {
		t.Fatalf("results = %+v", m.results)
	}
	m, _ = press(m, "enter")
	if m.mode != modeBrowse || m.clusters[m.selected].Issues[0].ID != "b" {
		t.Errorf("selected = %d mode=%v", m.selected, m.mode)
	}
	if m.viewport.Center != (model.LatLng{Latitude: 30, Longitude: 40}) {
		t.Errorf("viewport = %+v", m.viewport)
	}
}
