package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
)

// roleKeys hides the bindings a role cannot use.
type roleKeys struct {
	keys *keys.KeyMap
	caps model.Capabilities
}

func (r roleKeys) ShortHelp() []key.Binding {
	return r.keys.ShortHelp()
}

func (r roleKeys) FullHelp() [][]key.Binding {
	k := r.keys
	actions := []key.Binding{}
	if r.caps.ReportIssues {
		actions = append(actions, k.Report)
	}
	if r.caps.Vote {
		actions = append(actions, k.Upvote, k.Downvote)
	}
	if r.caps.UpdateStatus {
		actions = append(actions, k.Status)
	}
	if r.caps.AddUpdates {
		actions = append(actions, k.AddUpdate)
	}
	if r.caps.DeleteIssues {
		actions = append(actions, k.Delete)
	}

	views := []key.Binding{k.Dashboard, k.Issues, k.Map, k.Notifications, k.Profile}
	if r.caps.ManageUsers {
		views = append(views, k.Users)
	}
	if r.caps.ManageDepartments {
		views = append(views, k.Departments)
	}

	groups := [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		views,
	}
	if len(actions) > 0 {
		groups = append(groups, actions)
	}
	return append(groups,
		[]key.Binding{k.Filter, k.CycleSort, k.PrevPage, k.NextPage},
		[]key.Binding{k.RadiusDown, k.RadiusUp, k.Locate, k.Area, k.ZoomIn, k.ZoomOut},
	)
}

// Model is the help overlay view.
type Model struct {
	keys   roleKeys
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   roleKeys{keys: k},
		help:   h,
		width:  width,
		height: height,
	}
}

// SetRole limits the listed actions to what r may do.
func (m *Model) SetRole(r model.Role) {
	m.keys.caps = r.Capabilities()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
