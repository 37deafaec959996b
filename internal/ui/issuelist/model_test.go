package issuelist

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
)

type fakeSource struct {
	calls []filter.State
	page  Page
}

func (f *fakeSource) Issues(_ context.Context, s filter.State) (Page, error) {
	f.calls = append(f.calls, s)
	return f.page, nil
}

func newTestList(src *fakeSource) Model {
	return New(src, keys.DefaultKeyMap(), 100, 30)
}

// run executes cmd and feeds its message back into m.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = m.Update(cmd())
	return m
}

func TestLoad_PopulatesList(t *testing.T) {
	src := &fakeSource{page: Page{IssuePage: model.IssuePage{
		Issues:     []model.Issue{{ID: "a", Title: "Pothole"}, {ID: "b", Title: "Leak"}},
		Pagination: model.Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 41, HasNextPage: true},
	}}}
	m := newTestList(src)
	m = run(t, m, m.Init())

	if got := len(m.list.Items()); got != 2 {
		t.Fatalf("items = %d, want 2", got)
	}
	is, ok := m.SelectedIssue()
	if !ok || is.ID != "a" {
		t.Errorf("selected = %+v", is)
	}
}

func TestNextPage_KeepsFiltersAndAdvances(t *testing.T) {
	src := &fakeSource{page: Page{IssuePage: model.IssuePage{
		Issues:     []model.Issue{{ID: "a"}},
		Pagination: model.Pagination{CurrentPage: 1, TotalPages: 2, HasNextPage: true},
	}}}
	m := newTestList(src)
	m.Dispatch(filter.SetStatuses{model.StatusPending})
	m = run(t, m, m.Load())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	m = run(t, m, cmd)

	last := src.calls[len(src.calls)-1]
	if last.Page != 2 || len(last.Statuses) != 1 {
		t.Errorf("next page state = %+v", last)
	}

	src.page.Pagination = model.Pagination{CurrentPage: 2, TotalPages: 2}
	m = run(t, m, m.Load())
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")}); cmd != nil {
		t.Error("moved past the last page")
	}
}

func TestSearch_ResetsPage(t *testing.T) {
	src := &fakeSource{}
	m := newTestList(src)
	m.Dispatch(filter.SetPagination{Page: 4})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	for _, r := range "drain" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)

	last := src.calls[len(src.calls)-1]
	if last.Search != "drain" || last.Page != 1 {
		t.Errorf("search state = %+v", last)
	}
}

func TestLoaded_SupersededStateDropped(t *testing.T) {
	src := &fakeSource{}
	m := newTestList(src)
	old := m.State()
	m.Dispatch(filter.SetSearch("park"))

	m, _ = m.Update(IssuesLoadedMsg{
		State: old,
		Page:  Page{IssuePage: model.IssuePage{Issues: []model.Issue{{ID: "stale"}}}},
	})
	if len(m.list.Items()) != 0 {
		t.Error("response for an old filter was rendered")
	}
}

func TestFilterSummary(t *testing.T) {
	m := newTestList(&fakeSource{})
	if m.FilterSummary() != "" {
		t.Errorf("default summary = %q", m.FilterSummary())
	}
	m.Dispatch(filter.SetPriorities{model.PriorityHigh, model.PriorityCritical})
	if got := m.FilterSummary(); got != "priority high|critical" {
		t.Errorf("summary = %q", got)
	}
}
