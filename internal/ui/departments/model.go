// Package departments is the admin screen for municipal departments.
package departments

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
	"github.com/nhle/civic-dashboard/internal/ui/validate"
)

// Service is the department backend.
type Service interface {
	ListDepartments(ctx context.Context) ([]model.Department, error)
	DepartmentStats(ctx context.Context) ([]model.DepartmentStats, error)
	CreateDepartment(ctx context.Context, in model.DepartmentInput) (model.Department, error)
	UpdateDepartment(ctx context.Context, id string, in model.DepartmentInput) (model.Department, error)
	DeleteDepartment(ctx context.Context, id string) error
}

// CloseMsg signals the parent to close the department view.
type CloseMsg struct{}

// ChangedMsg signals that departments were created, updated or deleted.
type ChangedMsg struct{}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	categories  []model.Category
	email       string
	phone       string
	confirm     bool
}

type loadedMsg struct {
	departments []model.Department
	stats       map[string]model.DepartmentStats
	err         error
}

type savedMsg struct{ err error }
type deletedMsg struct{ err error }

// Model is the Bubble Tea model for department management.
type Model struct {
	mode        mode
	svc         Service
	keys        *keys.KeyMap
	departments []model.Department
	stats       map[string]model.DepartmentStats
	selectedIdx int
	editingID   string
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new department manager.
func New(svc Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		svc:   svc,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads the departments.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Editing reports whether a form or confirmation owns the keyboard.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.statusMsg = "Error: " + api.Message(msg.err)
			return m, nil
		}
		m.departments = msg.departments
		m.stats = msg.stats
		if m.selectedIdx >= len(m.departments) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.departments) - 1
		}
		return m, nil

	case savedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = "Error: " + api.Message(msg.err)
			return m, nil
		}
		m.statusMsg = "Department saved"
		return m, tea.Batch(m.load(), func() tea.Msg { return ChangedMsg{} })

	case deletedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = "Error: " + api.Message(msg.err)
			return m, nil
		}
		m.statusMsg = "Department deleted"
		return m, tea.Batch(m.load(), func() tea.Msg { return ChangedMsg{} })

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.handleListKey(msg)
		}
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.departments) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.departments)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.departments) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.departments) - 1
			}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()

	case msg.String() == "n":
		m.editingID = ""
		*m.fb = formBindings{}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		d, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editingID = d.ID
		*m.fb = formBindings{
			name:        d.Name,
			description: d.Description,
			categories:  append([]model.Category(nil), d.Categories...),
			email:       d.Email,
			phone:       d.Phone,
		}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "d":
		if _, ok := m.selected(); !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) selected() (model.Department, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.departments) {
		return model.Department{}, false
	}
	return m.departments[m.selectedIdx], true
}

func (m Model) buildForm() *huh.Form {
	opts := make([]huh.Option[model.Category], len(model.Categories))
	for i, c := range model.Categories {
		opts[i] = huh.NewOption(string(c), c)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Public Works").
				Value(&m.fb.name).
				Validate(validate.Required("name")),
			huh.NewText().
				Title("Description").
				Value(&m.fb.description),
			huh.NewMultiSelect[model.Category]().
				Title("Handles categories").
				Options(opts...).
				Value(&m.fb.categories),
			huh.NewInput().
				Title("Contact email").
				Value(&m.fb.email).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validate.Email(s)
				}),
			huh.NewInput().
				Title("Contact phone").
				Value(&m.fb.phone),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	d, _ := m.selected()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete department %q?", d.Name)).
				Description("Issues routed to it will be left unassigned.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, m.save()
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		if d, ok := m.selected(); ok && m.fb.confirm {
			return m, m.delete(d.ID)
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the department manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return viewForm(m.form)
	case modeConfirmDelete:
		return viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Departments"))
	b.WriteString("\n\n")

	if len(m.departments) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No departments yet. Press 'n' to create one."))
	}
	for i, d := range m.departments {
		label := d.Name
		if st, ok := m.stats[d.ID]; ok {
			label += theme.HelpStyle.Render(fmt.Sprintf("  %d issues, %d pending, %.1f%% resolved",
				st.TotalIssues, st.PendingIssues, st.ResolutionRate))
		}
		if !d.IsActive {
			label += "  " + theme.StaleStyle.Render("inactive")
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if d, ok := m.selected(); ok && len(d.Categories) > 0 {
		cats := make([]string, len(d.Categories))
		for i, c := range d.Categories {
			cats[i] = string(c)
		}
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("handles: " + strings.Join(cats, ", ")))
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | e edit | d delete | r refresh | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func (m Model) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		deps, err := svc.ListDepartments(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		stats := make(map[string]model.DepartmentStats)
		// Stats are decoration; the list still shows without them.
		if rows, err := svc.DepartmentStats(ctx); err == nil {
			for _, s := range rows {
				stats[s.DepartmentID] = s
			}
		}
		return loadedMsg{departments: deps, stats: stats}
	}
}

func (m Model) save() tea.Cmd {
	svc := m.svc
	fb := *m.fb
	id := m.editingID
	return func() tea.Msg {
		in := model.DepartmentInput{
			Name:        strings.TrimSpace(fb.name),
			Description: strings.TrimSpace(fb.description),
			Categories:  fb.categories,
			Email:       strings.TrimSpace(fb.email),
			Phone:       strings.TrimSpace(fb.phone),
		}
		var err error
		if id == "" {
			_, err = svc.CreateDepartment(context.Background(), in)
		} else {
			_, err = svc.UpdateDepartment(context.Background(), id, in)
		}
		return savedMsg{err: err}
	}
}

func (m Model) delete(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return deletedMsg{err: svc.DeleteDepartment(context.Background(), id)}
	}
}
