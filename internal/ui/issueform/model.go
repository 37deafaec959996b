// Package issueform holds the forms that write issues: reporting a new
// one, changing status, and posting a progress update.
package issueform

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
	"github.com/nhle/civic-dashboard/internal/ui/validate"
)

// ReportMsg is dispatched when a new issue report is submitted.
type ReportMsg struct {
	Issue model.NewIssue
}

// StatusMsg is dispatched when a status change is submitted.
type StatusMsg struct {
	IssueID string
	Status  model.Status
	Notes   string
}

// UpdateMsg is dispatched when a progress update is submitted.
type UpdateMsg struct {
	IssueID string
	Update  api.NewIssueUpdate
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// Kind selects which form is shown.
type Kind int

const (
	KindReport Kind = iota
	KindStatus
	KindUpdate
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	category    model.Category
	priority    model.Priority
	latitude    string
	longitude   string
	address     string
	tags        string
	anonymous   bool
	images      string

	status model.Status
	notes  string
}

// Model is the Bubble Tea model for the issue forms.
type Model struct {
	kind    Kind
	form    *huh.Form
	fb      *formBindings
	issueID string
	width   int
	height  int
}

// New creates a new issue form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartReport opens the report form. at, when non-nil, pre-fills the
// coordinates.
func (m *Model) StartReport(at *model.LatLng) tea.Cmd {
	m.kind = KindReport
	m.issueID = ""
	*m.fb = formBindings{
		category: model.CategoryRoad,
		priority: model.PriorityMedium,
	}
	if at != nil {
		m.fb.latitude = strconv.FormatFloat(at.Latitude, 'f', 6, 64)
		m.fb.longitude = strconv.FormatFloat(at.Longitude, 'f', 6, 64)
	}
	m.form = m.buildReportForm()
	return m.form.Init()
}

// StartStatus opens the status form for is.
func (m *Model) StartStatus(is model.Issue) tea.Cmd {
	m.kind = KindStatus
	m.issueID = is.ID
	*m.fb = formBindings{status: is.Status}
	m.form = m.buildStatusForm()
	return m.form.Init()
}

// StartUpdate opens the progress update form for is.
func (m *Model) StartUpdate(is model.Issue) tea.Cmd {
	m.kind = KindUpdate
	m.issueID = is.ID
	*m.fb = formBindings{}
	m.form = m.buildUpdateForm()
	return m.form.Init()
}

// Update handles messages for the active form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.handleSubmit()
		m.form = nil
		return m, submit
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the active form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var titleText string
	switch m.kind {
	case KindStatus:
		titleText = "Change Status"
	case KindUpdate:
		titleText = "Add Progress Update"
	default:
		titleText = "Report an Issue"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildReportForm() *huh.Form {
	catOpts := make([]huh.Option[model.Category], len(model.Categories))
	for i, c := range model.Categories {
		catOpts[i] = huh.NewOption(titleCase(string(c)), c)
	}
	priOpts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		priOpts[i] = huh.NewOption(titleCase(string(p)), p)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Short summary of the problem").
				Value(&m.fb.title).
				Validate(validate.MinLength("title", 5)),
			huh.NewText().
				Title("Description").
				Placeholder("What is wrong, and since when?").
				Value(&m.fb.description).
				Validate(validate.MinLength("description", 10)),
			huh.NewSelect[model.Category]().
				Title("Category").
				Options(catOpts...).
				Value(&m.fb.category),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(priOpts...).
				Value(&m.fb.priority),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Latitude").
				Value(&m.fb.latitude).
				Validate(validate.Latitude),
			huh.NewInput().
				Title("Longitude").
				Value(&m.fb.longitude).
				Validate(validate.Longitude),
			huh.NewInput().
				Title("Address").
				Placeholder("optional").
				Value(&m.fb.address),
			huh.NewInput().
				Title("Tags").
				Placeholder("comma separated, optional").
				Value(&m.fb.tags),
			huh.NewInput().
				Title("Photos").
				Placeholder("comma separated file paths, optional").
				Value(&m.fb.images),
			huh.NewConfirm().
				Title("Report anonymously?").
				Value(&m.fb.anonymous),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildStatusForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			statusSelect(&m.fb.status, false),
			huh.NewText().
				Title("Notes").
				Placeholder("Optional note for the reporter").
				Value(&m.fb.notes),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildUpdateForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Note").
				Placeholder("What was done?").
				Value(&fb.notes),
			statusSelect(&fb.status, true),
			huh.NewInput().
				Title("Photos").
				Placeholder("comma separated file paths, optional").
				Value(&fb.images),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func statusSelect(v *model.Status, optional bool) *huh.Select[model.Status] {
	var opts []huh.Option[model.Status]
	if optional {
		opts = append(opts, huh.NewOption("Keep current status", model.Status("")))
	}
	for _, s := range model.Statuses {
		opts = append(opts, huh.NewOption(titleCase(string(s)), s))
	}
	return huh.NewSelect[model.Status]().
		Title("Status").
		Options(opts...).
		Value(v)
}

func (m Model) handleSubmit() tea.Cmd {
	fb := *m.fb
	id := m.issueID

	switch m.kind {
	case KindStatus:
		msg := StatusMsg{IssueID: id, Status: fb.status, Notes: strings.TrimSpace(fb.notes)}
		return func() tea.Msg { return msg }

	case KindUpdate:
		upd := api.NewIssueUpdate{
			Note:       strings.TrimSpace(fb.notes),
			Status:     fb.status,
			ImagePaths: validate.SplitList(fb.images),
		}
		if upd.Note == "" && upd.Status == "" && len(upd.ImagePaths) == 0 {
			return func() tea.Msg { return CancelMsg{} }
		}
		return func() tea.Msg { return UpdateMsg{IssueID: id, Update: upd} }

	default:
		msg := ReportMsg{Issue: ReportFrom(fb.title, fb.description, fb.category, fb.priority,
			fb.latitude, fb.longitude, fb.address, fb.tags, fb.images, fb.anonymous)}
		return func() tea.Msg { return msg }
	}
}

// ReportFrom builds the report payload from raw form values. Coordinates
// have already been validated.
func ReportFrom(title, description string, c model.Category, p model.Priority,
	lat, lon, address, tags, images string, anonymous bool) model.NewIssue {
	latV, _ := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lonV, _ := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	return model.NewIssue{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Category:    c,
		Priority:    p,
		Latitude:    latV,
		Longitude:   lonV,
		Address:     strings.TrimSpace(address),
		Tags:        validate.SplitList(tags),
		IsAnonymous: anonymous,
		ImagePaths:  validate.SplitList(images),
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
