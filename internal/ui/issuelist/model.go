// Package issuelist is the paginated, filterable issue table.
package issuelist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
)

// Page is one loaded page of issues. Stale is set when the server could not
// be reached and the rows come from the local snapshot.
type Page struct {
	model.IssuePage
	Stale bool
}

// Source loads issues for a filter state.
type Source interface {
	Issues(ctx context.Context, s filter.State) (Page, error)
}

// IssuesLoadedMsg is sent when a page has been loaded.
type IssuesLoadedMsg struct {
	State filter.State
	Page  Page
	Err   error
}

// SelectedIssueMsg is sent when the user opens an issue.
type SelectedIssueMsg struct {
	IssueID string
}

// OpenFiltersMsg asks the parent to show the filter form.
type OpenFiltersMsg struct{}

// Model is the issue list view.
type Model struct {
	list        list.Model
	source      Source
	keys        *keys.KeyMap
	state       filter.State
	pagination  model.Pagination
	stale       bool
	loading     bool
	err         error
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new issue list model.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Issues"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title, description, address..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		source:      src,
		keys:        k,
		state:       filter.Default(),
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// State returns the active filter record.
func (m Model) State() filter.State {
	return m.state
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Dispatch applies a filter action and reloads.
func (m *Model) Dispatch(a filter.Action) tea.Cmd {
	m.state = filter.Reduce(m.state, a)
	return m.Load()
}

// Update handles messages for the issue list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case IssuesLoadedMsg:
		// A response for a filter we have since left is dropped.
		if !sameQuery(msg.State, m.state) {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.stale = msg.Page.Stale
		m.pagination = msg.Page.Pagination
		items := make([]list.Item, len(msg.Page.Issues))
		for i, is := range msg.Page.Issues {
			items[i] = IssueItem{Issue: is}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		cmd := m.Dispatch(filter.SetSearch(strings.TrimSpace(m.searchInput.Value())))
		return m, cmd

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		if m.state.Search == "" {
			return m, nil
		}
		cmd := m.Dispatch(filter.SetSearch(""))
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(IssueItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedIssueMsg{IssueID: item.Issue.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.state.Search)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Filter):
		return m, func() tea.Msg { return OpenFiltersMsg{} }

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(filter.SortKeys)
		cmd := m.Dispatch(filter.SetSorting{By: filter.SortKeys[m.sortIndex], Order: m.state.SortOrder})
		return m, cmd

	case msg.String() == "o":
		order := filter.Desc
		if m.state.SortOrder == filter.Desc {
			order = filter.Asc
		}
		cmd := m.Dispatch(filter.SetSorting{By: m.state.SortBy, Order: order})
		return m, cmd

	case key.Matches(msg, m.keys.NextPage):
		if !m.pagination.HasNextPage {
			return m, nil
		}
		cmd := m.Dispatch(filter.SetPagination{Page: m.state.Page + 1})
		return m, cmd

	case key.Matches(msg, m.keys.PrevPage):
		if m.state.Page <= 1 {
			return m, nil
		}
		cmd := m.Dispatch(filter.SetPagination{Page: m.state.Page - 1})
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the issue list view.
func (m Model) View() string {
	var top string
	if m.searchMode {
		top = lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
	} else {
		top = m.summaryLine()
	}

	var body string
	switch {
	case m.err != nil && len(m.list.Items()) == 0:
		body = m.centered(theme.ErrorStyle.Render(api.Message(m.err)) + "\n\nPress r to retry.")
	case m.loading && len(m.list.Items()) == 0:
		body = m.centered("Loading issues...")
	case len(m.list.Items()) == 0:
		body = m.renderEmptyState()
	default:
		body = m.list.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, body)
}

func (m Model) summaryLine() string {
	p := m.pagination
	parts := []string{
		fmt.Sprintf("page %d/%d", max(p.CurrentPage, m.state.Page), max(p.TotalPages, 1)),
		fmt.Sprintf("%d issues", p.TotalItems),
		fmt.Sprintf("sort %s %s", m.state.SortBy, m.state.SortOrder),
	}
	if s := m.FilterSummary(); s != "" {
		parts = append(parts, s)
	}
	line := theme.HelpStyle.Render(strings.Join(parts, " · "))
	if m.stale {
		line += "  " + theme.StaleStyle.Render("offline: showing saved snapshot")
	}
	return line
}

// FilterSummary describes the active predicates, or "" when none are set.
func (m Model) FilterSummary() string {
	s := m.state
	var parts []string
	if s.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", s.Search))
	}
	if len(s.Categories) > 0 {
		parts = append(parts, "category "+join(s.Categories))
	}
	if len(s.Statuses) > 0 {
		parts = append(parts, "status "+join(s.Statuses))
	}
	if len(s.Priorities) > 0 {
		parts = append(parts, "priority "+join(s.Priorities))
	}
	if s.Location.Center != nil {
		parts = append(parts, fmt.Sprintf("within %gkm", s.Location.RadiusKm))
	}
	if s.Location.Bounds != nil {
		parts = append(parts, "in area")
	}
	return strings.Join(parts, ", ")
}

func (m Model) renderEmptyState() string {
	if m.state.IsFiltered() {
		return m.centered("No matching issues.\nTry adjusting your filters.")
	}
	return m.centered("No issues reported yet.\n\nPress n to report one.")
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-1).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

// Load returns a tea.Cmd that fetches the page for the current state.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	state := m.state
	src := m.source
	return func() tea.Msg {
		page, err := src.Issues(context.Background(), state)
		return IssuesLoadedMsg{State: state, Page: page, Err: err}
	}
}

// SelectedIssue returns the highlighted issue.
func (m Model) SelectedIssue() (model.Issue, bool) {
	item, ok := m.list.SelectedItem().(IssueItem)
	return item.Issue, ok
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

func sameQuery(a, b filter.State) bool {
	return filter.Params(a).Encode() == filter.Params(b).Encode()
}

func join[T ~string](vs []T) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}
