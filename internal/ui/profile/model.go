// Package profile shows the signed-in account and lets the user edit it.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/session"
	"github.com/nhle/civic-dashboard/internal/theme"
	"github.com/nhle/civic-dashboard/internal/ui/validate"
)

// Service is the account backend for the signed-in user.
type Service interface {
	UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// UpdatedMsg carries the user after a successful profile edit.
type UpdatedMsg struct {
	User model.User
}

// LogoutMsg asks the parent to sign out.
type LogoutMsg struct{}

type mode int

const (
	modeView mode = iota
	modeEdit
	modePassword
)

type formBindings struct {
	name    string
	phone   string
	current string
	next    string
	confirm string
}

type savedMsg struct {
	user   *model.User
	status string
	err    error
}

// Model is the profile view.
type Model struct {
	mode      mode
	svc       Service
	keys      *keys.KeyMap
	user      model.User
	token     string
	now       func() time.Time
	form      *huh.Form
	fb        *formBindings
	statusMsg string
	errMsg    string
	width     int
	height    int
}

// New creates the profile view.
func New(svc Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:   svc,
		keys:  k,
		now:   time.Now,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// SetUser sets the account shown and the access token whose expiry is
// reported.
func (m *Model) SetUser(u model.User, token string) {
	m.user = u
	m.token = token
}

// Editing reports whether a form has focus.
func (m Model) Editing() bool {
	return m.mode != modeView
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.mode = modeView
		if msg.err != nil {
			m.statusMsg = ""
			m.errMsg = api.Message(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = msg.status
		if msg.user != nil {
			m.user = *msg.user
			u := *msg.user
			return m, func() tea.Msg { return UpdatedMsg{User: u} }
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeView {
			return m.handleKey(msg)
		}
	}

	if m.mode != modeView {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "e":
		*m.fb = formBindings{name: m.user.Name, phone: m.user.Phone}
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Name").Value(&m.fb.name).Validate(validate.Required("name")),
			huh.NewInput().Title("Phone").Value(&m.fb.phone),
		)).WithWidth(m.formWidth())
		m.mode = modeEdit
		return m, m.form.Init()

	case msg.String() == "p":
		*m.fb = formBindings{}
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Current password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.current).
				Validate(validate.Required("current password")),
			huh.NewInput().Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.next).
				Validate(validate.Password),
			huh.NewInput().Title("Confirm new password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm).
				Validate(validate.Matches(&m.fb.next)),
		)).WithWidth(m.formWidth())
		m.mode = modePassword
		return m, m.form.Init()

	case msg.String() == "L":
		return m, func() tea.Msg { return LogoutMsg{} }
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeView
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		if m.mode == modePassword {
			return m, m.changePassword()
		}
		return m, m.saveProfile()
	case huh.StateAborted:
		m.mode = modeView
		return m, nil
	}
	return m, cmd
}

func (m Model) saveProfile() tea.Cmd {
	svc := m.svc
	name := strings.TrimSpace(m.fb.name)
	phone := strings.TrimSpace(m.fb.phone)
	return func() tea.Msg {
		u, err := svc.UpdateProfile(context.Background(), model.UserPatch{Name: &name, Phone: &phone})
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{user: &u, status: "Profile updated"}
	}
}

func (m Model) changePassword() tea.Cmd {
	svc := m.svc
	current, next := m.fb.current, m.fb.next
	return func() tea.Msg {
		err := svc.ChangePassword(context.Background(), current, next)
		return savedMsg{status: "Password changed", err: err}
	}
}

// View renders the profile.
func (m Model) View() string {
	if m.mode != modeView && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	u := m.user
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(u.Name))
	b.WriteString("  ")
	b.WriteString(theme.RoleStyle(u.Role).Render(u.Role.Label()))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14)
	row := func(k, v string) {
		if v == "" {
			return
		}
		b.WriteString(label.Render(k) + v + "\n")
	}
	row("Email", u.Email)
	row("Phone", u.Phone)
	if u.Department != nil {
		row("Department", u.Department.Name)
	}
	if !u.CreatedAt.IsZero() {
		row("Member since", u.CreatedAt.Local().Format("2006-01-02"))
	}
	row("Session", m.sessionLine())

	caps := u.Role.Capabilities()
	var can []string
	for _, c := range []struct {
		ok   bool
		name string
	}{
		{caps.ReportIssues, "report"},
		{caps.Vote, "vote"},
		{caps.UpdateStatus, "change status"},
		{caps.AssignIssues, "assign"},
		{caps.DeleteIssues, "delete issues"},
		{caps.ManageUsers, "manage users"},
		{caps.ManageDepartments, "manage departments"},
	} {
		if c.ok {
			can = append(can, c.name)
		}
	}
	row("Can", strings.Join(can, ", "))

	if m.statusMsg != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(m.statusMsg))
	}
	if m.errMsg != "" {
		b.WriteString("\n" + theme.ErrorStyle.Render(m.errMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("e edit profile | p change password | L sign out"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) sessionLine() string {
	if m.token == "" {
		return ""
	}
	exp, err := session.Expiry(m.token)
	if err != nil {
		return "expiry unknown"
	}
	left := session.Remaining(m.token, m.now())
	if left == 0 {
		return theme.StaleStyle.Render("token expired, will refresh on next request")
	}
	return fmt.Sprintf("token expires %s (in %s)", exp.Local().Format("2006-01-02 15:04"), left.Round(time.Minute))
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}
