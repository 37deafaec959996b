// Package auth renders the login and registration screens.
package auth

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
	"github.com/nhle/civic-dashboard/internal/ui/validate"
)

// LoginMsg is emitted when the login form passes validation.
type LoginMsg struct {
	Email    string
	Password string
}

// RegisterMsg is emitted when the registration form passes validation.
type RegisterMsg struct {
	Registration api.Registration
}

// Mode selects which form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// formBindings holds field values on the heap so huh's Value() pointers
// survive Bubble Tea model copies.
type formBindings struct {
	name       string
	email      string
	phone      string
	role       string
	department string
	password   string
	confirm    string
}

// Model is the signed-out screen.
type Model struct {
	mode        Mode
	form        *huh.Form
	fb          *formBindings
	departments []model.Department
	err         string
	submitting  bool
	width       int
	height      int
}

// New creates the auth view showing the login form.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{role: string(model.RoleUser)},
		width:  width,
		height: height,
	}
	m.form = m.buildLoginForm()
	return m
}

// Init starts the active form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Mode returns the form currently shown.
func (m Model) Mode() Mode {
	return m.mode
}

// SetDepartments fills the department choice on the registration form.
func (m *Model) SetDepartments(d []model.Department) {
	m.departments = d
}

// SetError shows err above a fresh copy of the current form. The entered
// email is kept; passwords are cleared.
func (m *Model) SetError(err string) tea.Cmd {
	m.err = err
	m.submitting = false
	return m.restart(m.mode)
}

// Switch shows the other form.
func (m *Model) Switch(mode Mode) tea.Cmd {
	m.err = ""
	m.submitting = false
	return m.restart(mode)
}

func (m *Model) restart(mode Mode) tea.Cmd {
	m.mode = mode
	m.fb.password = ""
	m.fb.confirm = ""
	if mode == ModeRegister {
		m.form = m.buildRegisterForm()
	} else {
		m.form = m.buildLoginForm()
	}
	return m.form.Init()
}

// Update handles messages for the auth view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+r" && !m.submitting {
		next := ModeRegister
		if m.mode == ModeRegister {
			next = ModeLogin
		}
		cmd := m.Switch(next)
		return m, cmd
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		return m, m.submit()
	case huh.StateAborted:
		cmd := m.restart(m.mode)
		return m, cmd
	}

	return m, cmd
}

func (m Model) submit() tea.Cmd {
	fb := m.fb
	if m.mode == ModeLogin {
		msg := LoginMsg{Email: strings.TrimSpace(fb.email), Password: fb.password}
		return func() tea.Msg { return msg }
	}

	reg := api.Registration{
		Name:     strings.TrimSpace(fb.name),
		Email:    strings.TrimSpace(fb.email),
		Password: fb.password,
		Phone:    strings.TrimSpace(fb.phone),
		Role:     model.Role(fb.role),
	}
	if reg.Role == model.RoleDepartment {
		reg.Department = fb.department
	}
	return func() tea.Msg { return RegisterMsg{Registration: reg} }
}

// View renders the active form.
func (m Model) View() string {
	title := "Sign in"
	hint := "ctrl+r create an account"
	if m.mode == ModeRegister {
		title = "Create an account"
		hint = "ctrl+r back to sign in"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(title)}
	if m.err != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.err), "")
	}
	if m.submitting {
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	} else {
		parts = append(parts, m.form.View())
	}
	parts = append(parts, "", theme.HelpStyle.Render(hint))

	box := theme.DetailPanelStyle.
		Width(min(m.width-4, 70)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validate.Email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validate.Password),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m *Model) buildRegisterForm() *huh.Form {
	roleOpts := make([]huh.Option[string], 0, len(model.Roles))
	for _, r := range []model.Role{model.RoleUser, model.RoleDepartment, model.RoleAdmin} {
		roleOpts = append(roleOpts, huh.NewOption(r.Label(), string(r)))
	}

	deptOpts := []huh.Option[string]{huh.NewOption("Select a department", "")}
	for _, d := range m.departments {
		deptOpts = append(deptOpts, huh.NewOption(d.Name, d.ID))
	}

	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Full name").
				Value(&fb.name).
				Validate(validate.MinLength("name", 2)),
			huh.NewInput().
				Title("Email").
				Value(&fb.email).
				Validate(validate.Email),
			huh.NewInput().
				Title("Phone").
				Placeholder("optional").
				Value(&fb.phone),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Role").
				Options(roleOpts...).
				Value(&fb.role),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Department").
				Options(deptOpts...).
				Value(&fb.department).
				Validate(validate.Required("department")),
		).WithHideFunc(func() bool {
			return fb.role != string(model.RoleDepartment)
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password).
				Validate(validate.Password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.confirm).
				Validate(validate.Matches(&fb.password)),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m Model) formWidth() int {
	w := min(m.width-8, 64)
	if w < 30 {
		w = 30
	}
	return w
}
