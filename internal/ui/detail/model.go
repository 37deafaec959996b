package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
)

// BackMsg signals the parent to navigate back.
type BackMsg struct{}

// LoadedMsg carries an issue and its progress updates.
type LoadedMsg struct {
	Issue   *model.Issue
	Updates []model.IssueUpdate
	Err     error
}

// Action is something the user asked to do with the shown issue.
type Action int

const (
	ActionUpvote Action = iota + 1
	ActionDownvote
	ActionChangeStatus
	ActionAddUpdate
	ActionDelete
)

// ActionMsg asks the parent to perform an action on the shown issue.
type ActionMsg struct {
	Action  Action
	IssueID string
}

// Model is the issue detail view.
type Model struct {
	issue    *model.Issue
	updates  []model.IssueUpdate
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	caps     model.Capabilities
	userID   string
	confirm  bool
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// SetViewer sets who is looking, which decides the offered actions and
// how their own vote is shown.
func (m *Model) SetViewer(userID string, role model.Role) {
	m.userID = userID
	m.caps = role.Capabilities()
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Issue != nil {
			m.issue = msg.Issue
			m.updates = msg.Updates
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyMsg:
		if m.confirm {
			m.confirm = false
			if msg.String() == "y" && m.issue != nil {
				return m, m.action(ActionDelete)
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Upvote):
			if m.caps.Vote {
				return m, m.action(ActionUpvote)
			}
		case key.Matches(msg, m.keys.Downvote):
			if m.caps.Vote {
				return m, m.action(ActionDownvote)
			}
		case key.Matches(msg, m.keys.Status):
			if m.caps.UpdateStatus {
				return m, m.action(ActionChangeStatus)
			}
		case key.Matches(msg, m.keys.AddUpdate):
			if m.caps.AddUpdates {
				return m, m.action(ActionAddUpdate)
			}
		case key.Matches(msg, m.keys.Delete):
			if m.caps.DeleteIssues && m.issue != nil {
				m.confirm = true
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(a Action) tea.Cmd {
	if m.issue == nil {
		return nil
	}
	id := m.issue.ID
	return func() tea.Msg { return ActionMsg{Action: a, IssueID: id} }
}

// View renders the detail view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading && m.issue == nil {
		return placeholder.Render("Loading issue...")
	}
	if m.issue == nil {
		if m.err != nil {
			return placeholder.Render("Issue not found\n\n" + theme.ErrorStyle.Render(api.Message(m.err)))
		}
		return placeholder.Render("No issue selected")
	}

	out := m.viewport.View()
	if m.confirm {
		out = lipgloss.JoinVertical(lipgloss.Left, out,
			theme.ErrorStyle.Render("Delete this issue? y to confirm, any other key to cancel"))
	}
	return out
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.issue == nil {
		return ""
	}
	is := m.issue

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(is.Title))

	badges := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.StatusStyle(is.Status).Render(string(is.Status)), "  ",
		theme.PriorityStyle(is.Priority).Render(string(is.Priority)), "  ",
		lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(string(is.Category)),
	)
	sections = append(sections, badges, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label)+valStyle.Render(value))
	}

	reporter := is.ReportedBy.Name
	if is.IsAnonymous {
		reporter = "Anonymous"
	}
	row("Reported by", reporter)
	if is.AssignedTo != nil {
		row("Assigned to", is.AssignedTo.Name)
	}
	if is.Department != nil {
		row("Department", is.Department.Name)
	}
	row("Location", fmt.Sprintf("%.6f, %.6f", is.Latitude, is.Longitude))
	row("Address", is.Address)
	if !is.CreatedAt.IsZero() {
		row("Created", is.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if !is.UpdatedAt.IsZero() {
		row("Updated", is.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	if len(is.Tags) > 0 {
		row("Tags", strings.Join(is.Tags, ", "))
	}

	votes := fmt.Sprintf("▲ %d  ▼ %d  (score %+d)", len(is.Upvotes), len(is.Downvotes), is.VoteScore())
	switch is.VotedBy(m.userID) {
	case string(model.VoteUp):
		votes += "  you upvoted"
	case string(model.VoteDown):
		votes += "  you downvoted"
	}
	row("Votes", votes)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render("Description"))
	body := is.Description
	if body == "" {
		body = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No description")
	}
	sections = append(sections, body)

	if len(is.Images) > 0 {
		sections = append(sections, "", headerStyle.Render(fmt.Sprintf("Photos (%d)", len(is.Images))))
		for _, img := range is.Images {
			sections = append(sections, "  "+img.URL)
		}
	}

	sections = append(sections, "", separator, "")
	sections = append(sections, headerStyle.Render(fmt.Sprintf("Progress updates (%d)", len(m.updates))))
	if len(m.updates) == 0 {
		sections = append(sections, theme.HelpStyle.Render("No updates yet."))
	}

	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	for _, u := range m.updates {
		header := authorStyle.Render(u.CreatedBy.Name) + "  " +
			timeStyle.Render(u.CreatedAt.Local().Format("2006-01-02 15:04"))
		if u.Status != "" {
			header += "  " + theme.StatusStyle(u.Status).Render("→ "+string(u.Status))
		}
		sections = append(sections, "", header)
		if u.Note != "" {
			sections = append(sections, u.Note)
		}
		for _, img := range u.Images {
			sections = append(sections, timeStyle.Render("  "+img.URL))
		}
	}

	if m.err != nil {
		sections = append(sections, "", theme.ErrorStyle.Render(api.Message(m.err)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// IssueID returns the id of the shown issue, or "".
func (m Model) IssueID() string {
	if m.issue == nil {
		return ""
	}
	return m.issue.ID
}

// Issue returns the shown issue.
func (m Model) Issue() (model.Issue, bool) {
	if m.issue == nil {
		return model.Issue{}, false
	}
	return *m.issue, true
}

// Hints lists the actions available to the viewer for the status bar.
func (m Model) Hints() string {
	hints := []string{"esc back", "j/k scroll"}
	if m.caps.Vote {
		hints = append(hints, "+/- vote")
	}
	if m.caps.UpdateStatus {
		hints = append(hints, "s status")
	}
	if m.caps.AddUpdates {
		hints = append(hints, "u update")
	}
	if m.caps.DeleteIssues {
		hints = append(hints, "D delete")
	}
	return strings.Join(hints, " | ")
}

// StartLoading clears the view for a new issue.
func (m *Model) StartLoading(id string) {
	if m.issue != nil && m.issue.ID != id {
		m.issue = nil
		m.updates = nil
	}
	m.err = nil
	m.confirm = false
	m.loading = true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
