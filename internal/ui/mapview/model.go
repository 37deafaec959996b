// Package mapview is the map panel: issue clusters plotted on a character
// grid with the selected administrative area and the user's radius.
package mapview

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/geo"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
)

// Snapshot is the full issue set the map filters locally. Stale is set
// when it comes from the offline copy.
type Snapshot struct {
	Issues []model.Issue
	Stale  bool
}

// Source loads the issues for the map.
type Source interface {
	MapIssues(ctx context.Context, s filter.State) (Snapshot, error)
}

// Areas loads administrative areas. parentID is empty for top-level states.
type Areas interface {
	Locations(ctx context.Context, t model.LocationType, parentID string) ([]model.Location, error)
}

// RadiusSteps are the radii cycled with the radius keys, in kilometers.
var RadiusSteps = []float64{1, 2, 5, 10, 15, 25, 50}

// FilterMsg asks the parent to apply a filter action to the shared filter
// record and hand the result back through SetFilter.
type FilterMsg struct {
	Action filter.Action
}

// SelectedIssueMsg asks the parent to open an issue.
type SelectedIssueMsg struct {
	IssueID string
}

// ReportHereMsg asks the parent to open the report form at a position.
type ReportHereMsg struct {
	At model.LatLng
}

// OpenFiltersMsg asks the parent to show the filter form.
type OpenFiltersMsg struct{}

// IssuesLoadedMsg carries the map issues for a filter state.
type IssuesLoadedMsg struct {
	State    filter.State
	Snapshot Snapshot
	Err      error
}

type areasLoadedMsg struct {
	level     model.LocationType
	parentID  string
	locations []model.Location
	err       error
}

type locatedMsg struct {
	pos model.LatLng
	err error
}

type mode int

const (
	modeBrowse mode = iota
	modePopup
	modeArea
	modeSearch
)

// picker is the state > district > tehsil chooser.
type picker struct {
	level   model.LocationType
	options []model.Location
	index   int
	loading bool
}

// Model is the map view.
type Model struct {
	source  Source
	areas   Areas
	locator geo.Locator
	keys    *keys.KeyMap

	state    filter.State
	issues   []model.Issue
	clusters []geo.Cluster
	stats    geo.Stats
	area     geo.AreaSelection
	known    map[string]model.Location
	viewport Viewport
	framed   bool

	mode        mode
	selected    int
	popupIndex  int
	picker      picker
	searchInput textinput.Model
	results     []geo.SearchResult
	resultIndex int

	stale   bool
	loading bool
	notice  string
	err     error
	width   int
	height  int
}

// New creates the map view.
func New(src Source, areas Areas, locator geo.Locator, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "place or issue..."
	si.Prompt = "/ "

	return Model{
		source:      src,
		areas:       areas,
		locator:     locator,
		keys:        k,
		state:       filter.Default(),
		known:       make(map[string]model.Location),
		viewport:    Viewport{Center: model.LatLng{Latitude: 20.5937, Longitude: 78.9629}, Zoom: 4},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init loads the issues and the top-level areas.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Load(), m.loadAreas(model.LocationState, ""))
}

// SetHome sets the fallback viewport center used before any issue loads.
func (m *Model) SetHome(p model.LatLng) {
	if !m.framed {
		m.viewport.Center = p
		m.viewport.Zoom = 11
	}
}

// SetFilter replaces the filter record. The issues are refetched only when
// a server-side parameter changed; otherwise clusters are recomputed.
func (m *Model) SetFilter(s filter.State) tea.Cmd {
	prev := m.state
	m.state = s
	if filter.MapParams(prev, 1).Encode() != filter.MapParams(s, 1).Encode() {
		return m.Load()
	}
	m.recompute()
	return nil
}

// State returns the filter record the map is showing.
func (m Model) State() filter.State {
	return m.state
}

// Load fetches the issues for the current filter.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	src := m.source
	state := m.state
	return func() tea.Msg {
		snap, err := src.MapIssues(context.Background(), state)
		return IssuesLoadedMsg{State: state, Snapshot: snap, Err: err}
	}
}

func (m Model) loadAreas(level model.LocationType, parentID string) tea.Cmd {
	areas := m.areas
	return func() tea.Msg {
		locs, err := areas.Locations(context.Background(), level, parentID)
		return areasLoadedMsg{level: level, parentID: parentID, locations: locs, err: err}
	}
}

func (m Model) locate() tea.Cmd {
	loc := m.locator
	return func() tea.Msg {
		pos, err := loc.Locate(context.Background())
		return locatedMsg{pos: pos, err: err}
	}
}

// Clusters returns the markers currently shown.
func (m Model) Clusters() []geo.Cluster {
	return m.clusters
}

// Stats returns the header counts for the shown issues.
func (m Model) Stats() geo.Stats {
	return m.stats
}

// Area returns the selected administrative area.
func (m Model) Area() geo.AreaSelection {
	return m.area
}

// Typing reports whether the search input has focus.
func (m Model) Typing() bool {
	return m.mode == modeSearch
}

func (m *Model) recompute() {
	var bounds *model.Bounds
	if a := m.area.Active(); a != nil {
		b := a.Bounds
		bounds = &b
	}
	visible := geo.Filter(m.issues, filter.Criteria(m.state, bounds))
	m.clusters = geo.ClusterIssues(visible)
	m.stats = geo.Summarize(visible)
	if m.selected >= len(m.clusters) {
		m.selected = max(len(m.clusters)-1, 0)
	}
	if m.mode == modePopup && len(m.clusters) == 0 {
		m.mode = modeBrowse
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case IssuesLoadedMsg:
		if filter.MapParams(msg.State, 1).Encode() != filter.MapParams(m.state, 1).Encode() {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.issues = msg.Snapshot.Issues
		m.stale = msg.Snapshot.Stale
		m.recompute()
		if !m.framed {
			if v, ok := Fit(m.clusters, m.state.Location.Center); ok {
				m.viewport = v
				m.framed = true
			}
		}
		return m, nil

	case areasLoadedMsg:
		return m.handleAreas(msg)

	case locatedMsg:
		if msg.err != nil {
			m.notice = "Location unavailable: " + msg.err.Error()
			return m, nil
		}
		m.notice = fmt.Sprintf("Located at %.5f, %.5f", msg.pos.Latitude, msg.pos.Longitude)
		m.viewport = AroundRadius(msg.pos, m.state.Location.RadiusKm)
		m.framed = true
		pos := msg.pos
		return m, func() tea.Msg { return FilterMsg{Action: filter.SetLocation{Center: &pos}} }

	case tea.KeyMsg:
		switch m.mode {
		case modePopup:
			return m.handlePopupKey(msg)
		case modeArea:
			return m.handleAreaKey(msg)
		case modeSearch:
			return m.handleSearchKey(msg)
		default:
			return m.handleBrowseKey(msg)
		}
	}
	return m, nil
}

func (m Model) handleAreas(msg areasLoadedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m.picker.loading = false
		m.notice = "Could not load areas: " + api.Message(msg.err)
		return m, nil
	}
	for _, l := range msg.locations {
		m.known[l.ID] = l
	}
	if m.mode == modeArea && m.picker.level == msg.level {
		m.picker.options = msg.locations
		m.picker.index = 0
		m.picker.loading = false
	}
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.clusters) > 0 {
			m.selected = (m.selected + 1) % len(m.clusters)
		}
	case key.Matches(msg, m.keys.Up):
		if len(m.clusters) > 0 {
			m.selected = (m.selected - 1 + len(m.clusters)) % len(m.clusters)
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.clusters) > 0 {
			m.mode = modePopup
			m.popupIndex = 0
		}
	case key.Matches(msg, m.keys.ZoomIn):
		m.viewport = m.viewport.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.viewport = m.viewport.ZoomOut()
	case msg.String() == "0":
		if v, ok := Fit(m.clusters, m.state.Location.Center); ok {
			m.viewport = v
		}
	case key.Matches(msg, m.keys.RadiusUp):
		return m, m.stepRadius(1)
	case key.Matches(msg, m.keys.RadiusDown):
		return m, m.stepRadius(-1)
	case key.Matches(msg, m.keys.Locate):
		m.notice = "Locating..."
		return m, m.locate()
	case msg.String() == "c":
		if m.state.Location.Center != nil {
			return m, func() tea.Msg { return FilterMsg{Action: filter.SetLocation{ClearCenter: true}} }
		}
	case key.Matches(msg, m.keys.Area):
		return m.openPicker(model.LocationState, "")
	case msg.String() == "x":
		m.area = geo.AreaSelection{}
		m.recompute()
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.results = nil
		m.searchInput.Reset()
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.Filter):
		return m, func() tea.Msg { return OpenFiltersMsg{} }
	case key.Matches(msg, m.keys.Report):
		at := m.viewport.Center
		if c := m.state.Location.Center; c != nil {
			at = *c
		}
		return m, func() tea.Msg { return ReportHereMsg{At: at} }
	}
	return m, nil
}

// stepRadius moves to the next radius step in dir.
func (m Model) stepRadius(dir int) tea.Cmd {
	cur := m.state.Location.RadiusKm
	next := cur
	if dir > 0 {
		for _, r := range RadiusSteps {
			if r > cur {
				next = r
				break
			}
		}
	} else {
		for i := len(RadiusSteps) - 1; i >= 0; i-- {
			if RadiusSteps[i] < cur {
				next = RadiusSteps[i]
				break
			}
		}
	}
	if next == cur {
		return nil
	}
	return func() tea.Msg { return FilterMsg{Action: filter.SetLocation{RadiusKm: &next}} }
}

func (m Model) handlePopupKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if len(m.clusters) == 0 {
		m.mode = modeBrowse
		return m, nil
	}
	cl := m.clusters[m.selected]

	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Down):
		m.popupIndex = (m.popupIndex + 1) % cl.Count()
	case key.Matches(msg, m.keys.Up):
		m.popupIndex = (m.popupIndex - 1 + cl.Count()) % cl.Count()
	case key.Matches(msg, m.keys.Select):
		id := cl.Issues[m.popupIndex].ID
		return m, func() tea.Msg { return SelectedIssueMsg{IssueID: id} }
	case key.Matches(msg, m.keys.Report):
		at := model.LatLng{Latitude: cl.Latitude, Longitude: cl.Longitude}
		return m, func() tea.Msg { return ReportHereMsg{At: at} }
	}
	return m, nil
}

func (m Model) openPicker(level model.LocationType, parentID string) (Model, tea.Cmd) {
	m.mode = modeArea
	m.picker = picker{level: level, loading: true}
	return m, m.loadAreas(level, parentID)
}

func (m Model) handleAreaKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	p := &m.picker
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Down):
		if len(p.options) > 0 {
			p.index = (p.index + 1) % len(p.options)
		}
	case key.Matches(msg, m.keys.Up):
		if len(p.options) > 0 {
			p.index = (p.index - 1 + len(p.options)) % len(p.options)
		}
	case msg.String() == "backspace":
		return m.pickerUp()
	case key.Matches(msg, m.keys.Select):
		if len(p.options) == 0 {
			return m, nil
		}
		loc := p.options[p.index]
		m = m.selectArea(loc)
		switch loc.Type {
		case model.LocationState:
			return m.openPicker(model.LocationDistrict, loc.ID)
		case model.LocationDistrict:
			return m.openPicker(model.LocationTehsil, loc.ID)
		default:
			m.mode = modeBrowse
		}
	}
	return m, nil
}

// pickerUp steps back one level, dropping the selection at that level.
func (m Model) pickerUp() (Model, tea.Cmd) {
	switch m.picker.level {
	case model.LocationTehsil:
		m.area.Tehsil = nil
		m.area.District = nil
		m.recompute()
		parent := ""
		if m.area.State != nil {
			parent = m.area.State.ID
		}
		return m.openPicker(model.LocationDistrict, parent)
	case model.LocationDistrict:
		m.area = geo.AreaSelection{}
		m.recompute()
		return m.openPicker(model.LocationState, "")
	default:
		m.mode = modeBrowse
		return m, nil
	}
}

// selectArea narrows the map to loc, clearing finer levels, and frames it.
func (m Model) selectArea(loc model.Location) Model {
	l := loc
	switch loc.Type {
	case model.LocationState:
		m.area = geo.AreaSelection{State: &l}
	case model.LocationDistrict:
		m.area.District = &l
		m.area.Tehsil = nil
	default:
		m.area.Tehsil = &l
	}
	m.viewport = FitBounds(loc.Bounds)
	if loc.ZoomLevel > 0 {
		m.viewport.Zoom = loc.ZoomLevel
	}
	m.framed = true
	m.recompute()
	return m
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.searchInput.Blur()
		return m, nil

	case "enter":
		if len(m.results) > 0 {
			return m.jumpTo(m.results[m.resultIndex])
		}
		locs := make([]model.Location, 0, len(m.known))
		for _, l := range m.known {
			locs = append(locs, l)
		}
		sortLocations(locs)
		m.results = geo.Search(m.searchInput.Value(), locs, m.issues)
		m.resultIndex = 0
		if len(m.results) == 0 {
			m.notice = fmt.Sprintf("No place or issue matches %q", m.searchInput.Value())
		}
		return m, nil

	case "down", "ctrl+n":
		if len(m.results) > 0 {
			m.resultIndex = (m.resultIndex + 1) % len(m.results)
		}
		return m, nil

	case "up", "ctrl+p":
		if len(m.results) > 0 {
			m.resultIndex = (m.resultIndex - 1 + len(m.results)) % len(m.results)
		}
		return m, nil
	}

	m.results = nil
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// jumpTo centers the map on a search hit. An issue hit also selects the
// marker holding it.
func (m Model) jumpTo(r geo.SearchResult) (Model, tea.Cmd) {
	m.mode = modeBrowse
	m.searchInput.Blur()
	m.viewport = Viewport{Center: r.Center, Zoom: max(r.Zoom, minZoom)}
	m.framed = true
	m.notice = "Showing " + r.Name
	if r.Issue != nil {
		want := geo.CoordinateKey(r.Issue.Latitude, r.Issue.Longitude)
		for i, c := range m.clusters {
			if c.Key == want {
				m.selected = i
				break
			}
		}
	}
	return m, nil
}

// View renders the map.
func (m Model) View() string {
	header := m.headerLine()

	switch m.mode {
	case modeArea:
		return lipgloss.JoinVertical(lipgloss.Left, header, m.pickerView())
	case modeSearch:
		return lipgloss.JoinVertical(lipgloss.Left, header, m.searchView())
	}

	side := m.sideWidth()
	plotW := max(m.width-side-4, 10)
	plotH := max(m.height-6, 5)

	plotView := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(m.renderPlot(plotW, plotH))

	var panel string
	if m.mode == modePopup {
		panel = m.popupView(side)
	} else {
		panel = m.clusterList(side, plotH)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, plotView, " ", panel)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.footer())
}

func (m Model) sideWidth() int {
	return min(max(m.width/3, 28), 48)
}

func (m Model) headerLine() string {
	s := m.stats
	parts := []string{
		fmt.Sprintf("%d issues", s.Total),
		lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(fmt.Sprintf("%d resolved", s.Resolved)),
		lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(fmt.Sprintf("%d in progress", s.InProgress)),
		lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(fmt.Sprintf("%d pending", s.Pending)),
		fmt.Sprintf("%d markers", len(m.clusters)),
	}
	line := strings.Join(parts, " · ")
	if m.loading {
		line += theme.HelpStyle.Render("  loading...")
	}
	if m.stale {
		line += "  " + theme.StaleStyle.Render("offline: showing saved snapshot")
	}
	return line + "\n" + theme.HelpStyle.Render(m.scopeLine())
}

func (m Model) scopeLine() string {
	var parts []string
	var names []string
	for _, l := range []*model.Location{m.area.State, m.area.District, m.area.Tehsil} {
		if l != nil {
			names = append(names, l.Name)
		}
	}
	if len(names) > 0 {
		parts = append(parts, "area "+strings.Join(names, " › "))
	}
	if c := m.state.Location.Center; c != nil {
		parts = append(parts, fmt.Sprintf("within %g km of %.4f, %.4f", m.state.Location.RadiusKm, c.Latitude, c.Longitude))
	} else {
		parts = append(parts, fmt.Sprintf("radius %g km (press l to use your location)", m.state.Location.RadiusKm))
	}
	parts = append(parts, fmt.Sprintf("zoom %d", m.viewport.Zoom))
	return strings.Join(parts, " · ")
}

func (m Model) renderPlot(width, height int) string {
	var area *model.Bounds
	if a := m.area.Active(); a != nil {
		b := a.Bounds
		area = &b
	}
	c := canvas{width: width, height: height, view: m.viewport.Bounds(width, height)}
	grid := plot(c, m.clusters, m.selected, m.state.Location.Center, m.state.Location.RadiusKm, area)

	styles := map[cellKind]lipgloss.Style{
		cellArea:     lipgloss.NewStyle().Foreground(theme.ColorSubtle),
		cellRadius:   lipgloss.NewStyle().Foreground(theme.ColorBlue),
		cellUser:     lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue),
		cellMarker:   lipgloss.NewStyle().Bold(true).Foreground(theme.ColorOrange),
		cellSelected: lipgloss.NewStyle().Bold(true).Reverse(true).Foreground(theme.ColorYellow),
	}

	lines := make([]string, len(grid))
	for i, row := range grid {
		var b strings.Builder
		for _, cl := range row {
			if st, ok := styles[cl.kind]; ok {
				b.WriteString(st.Render(string(cl.r)))
			} else {
				b.WriteRune(cl.r)
			}
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

func (m Model) clusterList(width, height int) string {
	if len(m.clusters) == 0 {
		msg := "No issues on the map."
		if m.err != nil {
			msg = theme.ErrorStyle.Render(api.Message(m.err))
		} else if m.state.IsFiltered() || m.area.Active() != nil {
			msg = "No issues match the current filters."
		}
		return lipgloss.NewStyle().Width(width).Foreground(theme.ColorGray).Render(msg)
	}

	// Keep the selection in view.
	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(start+height, len(m.clusters))

	var lines []string
	for i := start; i < end; i++ {
		cl := m.clusters[i]
		var label string
		if cl.Single() {
			is := cl.Issues[0]
			label = theme.StatusStyle(is.Status).Padding(0).Render("●") + " " + is.Title
		} else {
			label = fmt.Sprintf("%d issues at %.4f, %.4f", cl.Count(), cl.Latitude, cl.Longitude)
		}
		label = truncate(label, width-2)
		if i == m.selected {
			lines = append(lines, theme.SelectedItemStyle.Render(label))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(label))
		}
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) popupView(width int) string {
	cl := m.clusters[m.selected]
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBlue).
		Padding(0, 1).
		Width(width - 2)
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	if cl.Single() {
		is := cl.Issues[0]
		lines := []string{
			title.Render(is.Title),
			theme.StatusStyle(is.Status).Padding(0).Render(string(is.Status)) + " · " +
				theme.PriorityStyle(is.Priority).Render(string(is.Priority)) + " · " + string(is.Category),
		}
		if is.Address != "" {
			lines = append(lines, is.Address)
		}
		if is.Description != "" {
			lines = append(lines, "", truncate(is.Description, 3*(width-6)))
		}
		lines = append(lines, "", fmt.Sprintf("▲ %d  ▼ %d", len(is.Upvotes), len(is.Downvotes)),
			theme.HelpStyle.Render("enter open · n report here · esc close"))
		return box.Render(strings.Join(lines, "\n"))
	}

	lines := []string{title.Render(fmt.Sprintf("%d issues at this location", cl.Count())), ""}
	for i, is := range cl.Issues {
		label := fmt.Sprintf("%d. %s", i+1, truncate(is.Title, width-12))
		label += " " + theme.StatusStyle(is.Status).Padding(0).Render(string(is.Status))
		if i == m.popupIndex {
			label = theme.SelectedItemStyle.Render(label)
		}
		lines = append(lines, label)
	}
	lines = append(lines, "", theme.HelpStyle.Render("j/k choose · enter open · esc close"))
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) pickerView() string {
	p := m.picker
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Choose a " + string(p.level)))
	b.WriteString("\n\n")
	switch {
	case p.loading:
		b.WriteString(theme.HelpStyle.Render("Loading..."))
	case len(p.options) == 0:
		b.WriteString(theme.HelpStyle.Render("Nothing at this level."))
	}
	for i, l := range p.options {
		if i == p.index {
			b.WriteString(theme.SelectedItemStyle.Render(l.Name))
		} else {
			b.WriteString(theme.ListItemStyle.Render(l.Name))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + theme.HelpStyle.Render("enter select · backspace up a level · esc done"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")
	for i, r := range m.results {
		label := fmt.Sprintf("%s  %s", r.Name, theme.HelpStyle.Render(r.Type))
		if i == m.resultIndex {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	if m.notice != "" && len(m.results) == 0 {
		b.WriteString(theme.HelpStyle.Render(m.notice))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) footer() string {
	hints := "j/k marker · enter open · z/Z zoom · 0 fit · </> radius · l locate · c clear center · a area · x clear area · / search · f filters"
	out := theme.HelpStyle.Render(hints)
	if m.notice != "" {
		out = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(m.notice) + "\n" + out
	}
	return out
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 6
}

func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n {
		r = r[:n-1]
	}
	return string(r) + "…"
}

// sortLocations orders by level then name so search results are stable.
func sortLocations(locs []model.Location) {
	rank := map[model.LocationType]int{model.LocationState: 0, model.LocationDistrict: 1, model.LocationTehsil: 2}
	slices.SortFunc(locs, func(a, b model.Location) int {
		if d := rank[a.Type] - rank[b.Type]; d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})
}
