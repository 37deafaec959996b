// Package filterform edits the issue filter record in one form.
package filterform

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
	"github.com/nhle/civic-dashboard/internal/ui/validate"
)

// dateLayout is the format of the date range inputs.
const dateLayout = "2006-01-02"

// AppliedMsg carries the edited filter as a merge action.
type AppliedMsg struct {
	Update filter.Update
}

// CancelMsg is sent when the form is dismissed without applying.
type CancelMsg struct{}

type formBindings struct {
	categories  []model.Category
	statuses    []model.Status
	priorities  []model.Priority
	departments []string
	sortBy      filter.SortKey
	sortOrder   filter.SortOrder
	radius      string
	from        string
	to          string
}

// Model is the filter form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	base   filter.State
	width  int
	height int
}

// New creates the filter form.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start opens the form pre-filled from s. departments, when non-empty,
// adds a department selector.
func (m *Model) Start(s filter.State, departments []model.Department) tea.Cmd {
	m.base = s
	*m.fb = formBindings{
		categories:  append([]model.Category{}, s.Categories...),
		statuses:    append([]model.Status{}, s.Statuses...),
		priorities:  append([]model.Priority{}, s.Priorities...),
		departments: append([]string{}, s.Departments...),
		sortBy:      s.SortBy,
		sortOrder:   s.SortOrder,
		radius:      strconv.FormatFloat(s.Location.RadiusKm, 'f', -1, 64),
	}
	if s.DateRange.Start != nil {
		m.fb.from = s.DateRange.Start.Local().Format(dateLayout)
	}
	if s.DateRange.End != nil {
		m.fb.to = s.DateRange.End.Local().Format(dateLayout)
	}
	m.form = m.build(departments)
	return m.form.Init()
}

// Active reports whether the form is open.
func (m Model) Active() bool {
	return m.form != nil
}

func (m *Model) build(departments []model.Department) *huh.Form {
	fb := m.fb

	catOpts := make([]huh.Option[model.Category], len(model.Categories))
	for i, c := range model.Categories {
		catOpts[i] = huh.NewOption(string(c), c)
	}
	statusOpts := make([]huh.Option[model.Status], len(model.Statuses))
	for i, s := range model.Statuses {
		statusOpts[i] = huh.NewOption(string(s), s)
	}
	prioOpts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		prioOpts[i] = huh.NewOption(string(p), p)
	}
	sortOpts := make([]huh.Option[filter.SortKey], len(filter.SortKeys))
	for i, k := range filter.SortKeys {
		sortOpts[i] = huh.NewOption(string(k), k)
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewMultiSelect[model.Category]().
				Title("Categories").
				Description("None selected shows every category").
				Options(catOpts...).
				Value(&fb.categories),
			huh.NewMultiSelect[model.Status]().
				Title("Statuses").
				Options(statusOpts...).
				Value(&fb.statuses),
			huh.NewMultiSelect[model.Priority]().
				Title("Priorities").
				Options(prioOpts...).
				Value(&fb.priorities),
		),
	}

	if len(departments) > 0 {
		deptOpts := make([]huh.Option[string], len(departments))
		for i, d := range departments {
			deptOpts[i] = huh.NewOption(d.Name, d.ID)
		}
		groups = append(groups, huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Departments").
				Options(deptOpts...).
				Value(&fb.departments),
		))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewSelect[filter.SortKey]().
			Title("Sort by").
			Options(sortOpts...).
			Value(&fb.sortBy),
		huh.NewSelect[filter.SortOrder]().
			Title("Order").
			Options(
				huh.NewOption("Newest / highest first", filter.Desc),
				huh.NewOption("Oldest / lowest first", filter.Asc),
			).
			Value(&fb.sortOrder),
		huh.NewInput().
			Title("Radius (km)").
			Description("Used when a center is set on the map").
			Value(&fb.radius).
			Validate(validate.PositiveFloat("radius")),
		huh.NewInput().
			Title("Reported from").
			Placeholder(dateLayout).
			Value(&fb.from).
			Validate(optionalDate),
		huh.NewInput().
			Title("Reported until").
			Placeholder(dateLayout).
			Value(&fb.to).
			Validate(optionalDate),
	))

	return huh.NewForm(groups...).
		WithWidth(min(max(m.width-4, 40), 100)).
		WithHeight(max(m.height-4, 10))
}

func optionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.ParseInLocation(dateLayout, s, time.Local)
	return err
}

// Update handles messages for the open form.
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
		m.form = nil
		upd := toUpdate(m.base, *m.fb)
		return m, func() tea.Msg { return AppliedMsg{Update: upd} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// toUpdate turns the form values into a merge action over base. Selections
// are always sent, so clearing a multi-select removes that predicate.
func toUpdate(base filter.State, fb formBindings) filter.Update {
	upd := filter.Update{
		Categories:  append([]model.Category{}, fb.categories...),
		Statuses:    append([]model.Status{}, fb.statuses...),
		Priorities:  append([]model.Priority{}, fb.priorities...),
		Departments: append([]string{}, fb.departments...),
	}
	if fb.sortBy != "" {
		by := fb.sortBy
		upd.SortBy = &by
	}
	if fb.sortOrder != "" {
		order := fb.sortOrder
		upd.SortOrder = &order
	}
	if r, err := strconv.ParseFloat(strings.TrimSpace(fb.radius), 64); err == nil && r > 0 {
		loc := base.Location
		loc.RadiusKm = r
		upd.Location = &loc
	}

	var dr filter.DateRange
	if t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(fb.from), time.Local); err == nil {
		dr.Start = &t
	}
	if t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(fb.to), time.Local); err == nil {
		// The end date is inclusive.
		end := t.Add(24*time.Hour - time.Nanosecond)
		dr.End = &end
	}
	upd.DateRange = &dr
	return upd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).Render("Filters")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
