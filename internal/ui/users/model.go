// Package users is the admin screen for accounts.
package users

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
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

// PageSize is the number of accounts per page.
const PageSize = 20

// Service is the account backend.
type Service interface {
	ListUsers(ctx context.Context, params url.Values) (api.UserPage, error)
	UserStats(ctx context.Context) (model.UserStats, error)
	CreateUser(ctx context.Context, reg api.Registration) (model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListDepartments(ctx context.Context) ([]model.Department, error)
}

// CloseMsg signals the parent to close the user view.
type CloseMsg struct{}

type mode int

const (
	modeList mode = iota
	modeCreate
	modeEdit
	modeConfirmDelete
)

type formBindings struct {
	name       string
	email      string
	phone      string
	password   string
	role       model.Role
	department string
	confirm    bool
}

// Query is the listing filter.
type Query struct {
	Page   int
	Role   model.Role
	Search string
}

// Params encodes q for the user listing endpoint.
func (q Query) Params() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(max(q.Page, 1)))
	v.Set("limit", strconv.Itoa(PageSize))
	if q.Role != "" {
		v.Set("role", string(q.Role))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

type loadedMsg struct {
	query       Query
	page        api.UserPage
	stats       *model.UserStats
	departments []model.Department
	err         error
}

type doneMsg struct {
	status string
	err    error
}

// Model is the Bubble Tea model for account management.
type Model struct {
	mode        mode
	svc         Service
	keys        *keys.KeyMap
	query       Query
	users       []model.User
	pagination  model.Pagination
	stats       *model.UserStats
	departments []model.Department
	selectedIdx int
	editingID   string
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new user manager.
func New(svc Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:   svc,
		keys:  k,
		query: Query{Page: 1},
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads the first page.
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
		if msg.query != m.query {
			return m, nil
		}
		if msg.err != nil {
			m.statusMsg = "Error: " + api.Message(msg.err)
			return m, nil
		}
		m.users = msg.page.Users
		m.pagination = msg.page.Pagination
		if msg.stats != nil {
			m.stats = msg.stats
		}
		if msg.departments != nil {
			m.departments = msg.departments
		}
		if m.selectedIdx >= len(m.users) {
			m.selectedIdx = max(len(m.users)-1, 0)
		}
		return m, nil

	case doneMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = "Error: " + api.Message(msg.err)
			return m, nil
		}
		m.statusMsg = msg.status
		return m, m.load()

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.handleListKey(msg)
		}
	}

	if m.mode != modeList {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.users)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.users)) % len(m.users)
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()

	case key.Matches(msg, m.keys.NextPage):
		if m.pagination.HasNextPage {
			m.query.Page++
			return m, m.load()
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.query.Page > 1 {
			m.query.Page--
			return m, m.load()
		}

	case key.Matches(msg, m.keys.CycleSort):
		m.query.Role = nextRole(m.query.Role)
		m.query.Page = 1
		return m, m.load()

	case msg.String() == "n":
		m.editingID = ""
		*m.fb = formBindings{role: model.RoleUser}
		m.form = m.buildCreateForm()
		m.mode = modeCreate
		return m, m.form.Init()

	case msg.String() == "e":
		u, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editingID = u.ID
		*m.fb = formBindings{name: u.Name, phone: u.Phone, role: u.Role}
		if u.Department != nil {
			m.fb.department = u.Department.ID
		}
		m.form = m.buildEditForm()
		m.mode = modeEdit
		return m, m.form.Init()

	case msg.String() == "a":
		u, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.setActive(u.ID, !u.IsActive)

	case msg.String() == "d":
		u, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editingID = u.ID
		m.fb.confirm = false
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s (%s)?", u.Name, u.Email)).
				Description("Their reports stay; the account cannot be restored.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		)).WithWidth(m.formWidth()).WithHeight(m.formHeight())
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

// nextRole cycles the role filter: all, then each role.
func nextRole(r model.Role) model.Role {
	if r == "" {
		return model.Roles[0]
	}
	for i, x := range model.Roles {
		if x == r && i+1 < len(model.Roles) {
			return model.Roles[i+1]
		}
	}
	return ""
}

func (m Model) selected() (model.User, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.users) {
		return model.User{}, false
	}
	return m.users[m.selectedIdx], true
}

func (m Model) roleFields() []huh.Field {
	roleOpts := make([]huh.Option[model.Role], len(model.Roles))
	for i, r := range model.Roles {
		roleOpts[i] = huh.NewOption(r.Label(), r)
	}
	deptOpts := []huh.Option[string]{huh.NewOption("None", "")}
	for _, d := range m.departments {
		deptOpts = append(deptOpts, huh.NewOption(d.Name, d.ID))
	}
	return []huh.Field{
		huh.NewSelect[model.Role]().
			Title("Role").
			Options(roleOpts...).
			Value(&m.fb.role),
		huh.NewSelect[string]().
			Title("Department").
			Description("Only used for department staff").
			Options(deptOpts...).
			Value(&m.fb.department),
	}
}

func (m Model) buildCreateForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().Title("Name").Value(&m.fb.name).Validate(validate.Required("name")),
		huh.NewInput().Title("Email").Value(&m.fb.email).Validate(validate.Email),
		huh.NewInput().Title("Phone").Placeholder("optional").Value(&m.fb.phone),
		huh.NewInput().Title("Initial password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validate.Password),
	}
	return huh.NewForm(
		huh.NewGroup(fields...),
		huh.NewGroup(m.roleFields()...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildEditForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&m.fb.name).Validate(validate.Required("name")),
			huh.NewInput().Title("Phone").Value(&m.fb.phone),
		),
		huh.NewGroup(m.roleFields()...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		switch m.mode {
		case modeCreate:
			return m, m.create()
		case modeEdit:
			return m, m.update()
		case modeConfirmDelete:
			if m.fb.confirm {
				return m, m.delete(m.editingID)
			}
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the user manager.
func (m Model) View() string {
	if m.mode != modeList && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render("Users"))

	scope := "all roles"
	if m.query.Role != "" {
		scope = m.query.Role.Label()
	}
	b.WriteString(theme.HelpStyle.Render(fmt.Sprintf("  %s · page %d/%d · %d accounts",
		scope, max(m.pagination.CurrentPage, 1), max(m.pagination.TotalPages, 1), m.pagination.TotalItems)))
	b.WriteString("\n")

	if s := m.stats; s != nil {
		parts := []string{fmt.Sprintf("%d total", s.TotalUsers), fmt.Sprintf("%d active", s.ActiveUsers)}
		for _, e := range s.ByRole {
			parts = append(parts, fmt.Sprintf("%s %d", e.Key, e.Count))
		}
		b.WriteString(theme.HelpStyle.Render(strings.Join(parts, " · ")))
	}
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No users."))
	}
	for i, u := range m.users {
		line := fmt.Sprintf("%-24s %-30s %s", truncate(u.Name, 24), truncate(u.Email, 30),
			theme.RoleStyle(u.Role).Render(u.Role.Label()))
		if u.Department != nil && u.Department.Name != "" {
			line += theme.HelpStyle.Render(" · " + u.Department.Name)
		}
		if !u.IsActive {
			line += "  " + theme.StaleStyle.Render("inactive")
		}
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("n new | e edit | a (de)activate | d delete | tab role | [ ] page | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
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

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) load() tea.Cmd {
	svc := m.svc
	q := m.query
	needDepartments := m.departments == nil
	return func() tea.Msg {
		ctx := context.Background()
		page, err := svc.ListUsers(ctx, q.Params())
		if err != nil {
			return loadedMsg{query: q, err: err}
		}
		msg := loadedMsg{query: q, page: page}
		if s, err := svc.UserStats(ctx); err == nil {
			msg.stats = &s
		}
		if needDepartments {
			if deps, err := svc.ListDepartments(ctx); err == nil {
				msg.departments = deps
			}
		}
		return msg
	}
}

func (m Model) create() tea.Cmd {
	svc := m.svc
	fb := *m.fb
	return func() tea.Msg {
		reg := api.Registration{
			Name:     strings.TrimSpace(fb.name),
			Email:    strings.TrimSpace(fb.email),
			Password: fb.password,
			Phone:    strings.TrimSpace(fb.phone),
			Role:     fb.role,
		}
		if fb.role == model.RoleDepartment {
			reg.Department = fb.department
		}
		_, err := svc.CreateUser(context.Background(), reg)
		return doneMsg{status: "User created", err: err}
	}
}

func (m Model) update() tea.Cmd {
	svc := m.svc
	fb := *m.fb
	id := m.editingID
	return func() tea.Msg {
		name := strings.TrimSpace(fb.name)
		phone := strings.TrimSpace(fb.phone)
		role := fb.role
		patch := model.UserPatch{Name: &name, Phone: &phone, Role: &role}
		if role == model.RoleDepartment {
			dept := fb.department
			patch.Department = &dept
		}
		_, err := svc.UpdateUser(context.Background(), id, patch)
		return doneMsg{status: "User updated", err: err}
	}
}

func (m Model) setActive(id string, active bool) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, err := svc.UpdateUser(context.Background(), id, model.UserPatch{IsActive: &active})
		status := "User deactivated"
		if active {
			status = "User activated"
		}
		return doneMsg{status: status, err: err}
	}
}

func (m Model) delete(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return doneMsg{status: "User deleted", err: svc.DeleteUser(context.Background(), id)}
	}
}
