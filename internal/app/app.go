package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/cache"
	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/geo"
	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/session"
	"github.com/nhle/civic-dashboard/internal/store"
	appsync "github.com/nhle/civic-dashboard/internal/sync"
	"github.com/nhle/civic-dashboard/internal/theme"
	"github.com/nhle/civic-dashboard/internal/ui"
	"github.com/nhle/civic-dashboard/internal/ui/auth"
	"github.com/nhle/civic-dashboard/internal/ui/command"
	"github.com/nhle/civic-dashboard/internal/ui/dashboard"
	"github.com/nhle/civic-dashboard/internal/ui/departments"
	"github.com/nhle/civic-dashboard/internal/ui/detail"
	"github.com/nhle/civic-dashboard/internal/ui/filterform"
	helpview "github.com/nhle/civic-dashboard/internal/ui/help"
	"github.com/nhle/civic-dashboard/internal/ui/issueform"
	"github.com/nhle/civic-dashboard/internal/ui/issuelist"
	"github.com/nhle/civic-dashboard/internal/ui/mapview"
	"github.com/nhle/civic-dashboard/internal/ui/notifications"
	"github.com/nhle/civic-dashboard/internal/ui/profile"
	"github.com/nhle/civic-dashboard/internal/ui/users"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewAuth
	ViewDashboard
	ViewIssues
	ViewMap
	ViewNotifications
	ViewProfile
	ViewUsers
	ViewDepartments
	ViewDetail
	ViewIssueForm
	ViewFilters
	ViewHelp
	ViewCommand
)

const sessionExpired = "Your session has expired. Please sign in again."

// Deps are the long-lived services the UI runs on. The caller owns them
// and closes them after the program exits.
type Deps struct {
	Config  *model.AppConfig
	Client  *api.Client
	Cache   *cache.Cache
	Session *session.Manager
	Store   store.Store
	Poller  *appsync.Poller
	Locator geo.Locator
	Log     logrus.FieldLogger
}

// Model is the root Bubble Tea model that manages view routing, role
// gating and the session lifecycle.
type Model struct {
	client  *api.Client
	cache   *cache.Cache
	session *session.Manager
	store   store.Store
	poller  *appsync.Poller
	backend *backend
	log     logrus.FieldLogger

	currentView ViewState
	history     []ViewState
	layout      ui.Layout
	keys        *keys.KeyMap

	authView       auth.Model
	dashboardView  dashboard.Model
	issueList      issuelist.Model
	mapView        mapview.Model
	detail         detail.Model
	issueForm      issueform.Model
	filterForm     filterform.Model
	inbox          notifications.Model
	profileView    profile.Model
	userView       users.Model
	departmentView departments.Model
	helpView       helpview.Model
	commandView    command.Model

	sessionCh   chan session.State
	user        *model.User
	departments []model.Department
	loggingOut  bool
	ready       bool
	unreadCount int
	status      string
	statusErr   bool
}

// New creates the root model. The session must already be initialized so
// a persisted token decides between the loading and login screens.
func New(d Deps) Model {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := d.Config
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	k := keys.DefaultKeyMap()

	b := &backend{
		client:      d.Client,
		cache:       d.Cache,
		store:       d.Store,
		log:         log.WithField("component", "backend"),
		mapPageSize: cfg.Map.PageSize,
	}

	m := Model{
		client:  d.Client,
		cache:   d.Cache,
		session: d.Session,
		store:   d.Store,
		poller:  d.Poller,
		backend: b,
		log:     log.WithField("component", "app"),
		keys:    k,

		authView:       auth.New(80, 24),
		dashboardView:  dashboard.New(b, 80, 24),
		issueList:      issuelist.New(b, k, 80, 24),
		mapView:        mapview.New(b, b, d.Locator, k, 80, 24),
		detail:         detail.New(k, 80, 24),
		issueForm:      issueform.New(80, 24),
		filterForm:     filterform.New(80, 24),
		inbox:          notifications.New(d.Store, k, 80, 24),
		profileView:    profile.New(b, k, 80, 24),
		userView:       users.New(b, k, 80, 24),
		departmentView: departments.New(b, k, 80, 24),
		helpView:       helpview.New(k, 80, 24),
		commandView:    command.New(80, 24),

		sessionCh: make(chan session.State, 8),
	}

	if cfg.Map.RadiusKm > 0 {
		r := cfg.Map.RadiusKm
		m.issueList.Dispatch(filter.SetLocation{RadiusKm: &r})
		m.mapView.SetFilter(m.issueList.State())
	}
	if cfg.Map.Home != nil {
		m.mapView.SetHome(*cfg.Map.Home)
	} else {
		m.mapView.SetHome(cfg.Map.Center)
	}

	ch := m.sessionCh
	d.Session.Subscribe(func(s session.State) {
		select {
		case ch <- s:
		default:
		}
	})

	if d.Session.Snapshot().IsLoading {
		m.currentView = ViewLoading
	} else {
		m.currentView = ViewAuth
	}
	return m
}

// Init resolves a restored session, or shows the login form.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewLoading {
		return tea.Batch(m.waitForSession(), m.bootstrap())
	}
	return tea.Batch(m.waitForSession(), m.authView.Init())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.authView.SetSize(w, h)
		m.dashboardView.SetSize(w, h)
		m.issueList.SetSize(w, h)
		m.mapView.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.issueForm.SetSize(w, h)
		m.filterForm.SetSize(w, h)
		m.inbox.SetSize(w, h)
		m.profileView.SetSize(w, h)
		m.userView.SetSize(w, h)
		m.departmentView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	// === Session lifecycle ===

	case bootstrapDoneMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Info("restored session rejected")
			return m, m.leaveApp(sessionExpired)
		}
		return m, m.enterApp()

	case auth.LoginMsg:
		return m, m.login(msg.Email, msg.Password)

	case auth.RegisterMsg:
		return m, m.register(msg.Registration)

	case authResultMsg:
		if msg.err != nil {
			return m, m.authView.SetError(api.Message(msg.err))
		}
		return m, m.enterApp()

	case sessionChangedMsg:
		cmds := []tea.Cmd{m.waitForSession()}
		if st := msg.state; st.User != nil && m.inApp() {
			u := *st.User
			m.user = &u
			m.profileView.SetUser(u, st.Token)
		}
		if !msg.state.IsAuthenticated && m.inApp() {
			reason := sessionExpired
			if m.loggingOut {
				reason = ""
			}
			cmds = append(cmds, m.leaveApp(reason))
		}
		return m, tea.Batch(cmds...)

	case loggedOutMsg:
		if m.inApp() {
			return m, m.leaveApp("")
		}
		return m, nil

	case profile.LogoutMsg:
		m.loggingOut = true
		return m, m.logout()

	case profile.UpdatedMsg:
		m.session.SetUser(msg.User)
		m.setStatus("Profile updated")
		return m, nil

	// === Background sync ===

	case appsync.SyncResultMsg:
		if !m.inApp() {
			return m, nil
		}
		if msg.Unauthorized {
			return m, m.leaveApp(sessionExpired)
		}
		cmds := []tea.Cmd{m.poller.WaitForNextResult(), m.fetchUnreadCount()}
		if msg.NewIssueCount > 0 {
			m.setStatus(fmt.Sprintf("%d new issue(s) reported", msg.NewIssueCount))
			cmds = append(cmds, m.issueList.Load(), m.mapView.Load(), m.inbox.Load())
		}
		return m, tea.Batch(cmds...)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case departmentsLoadedMsg:
		m.departments = msg.departments
		m.authView.SetDepartments(msg.departments)
		return m, nil

	// === Loads owned by views that may be in the background ===

	case issuelist.IssuesLoadedMsg:
		var cmd tea.Cmd
		m.issueList, cmd = m.issueList.Update(msg)
		return m, cmd

	case mapview.IssuesLoadedMsg:
		var cmd tea.Cmd
		m.mapView, cmd = m.mapView.Update(msg)
		return m, cmd

	case dashboard.LoadedMsg:
		var cmd tea.Cmd
		m.dashboardView, cmd = m.dashboardView.Update(msg)
		return m, cmd

	case detail.LoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		if msg.Err != nil && msg.Issue != nil {
			m.setError(fmt.Errorf("offline, showing saved copy: %s", api.Message(msg.Err)))
		}
		return m, cmd

	// === Navigation between views ===

	case issuelist.SelectedIssueMsg:
		return m, m.openIssue(msg.IssueID)

	case mapview.SelectedIssueMsg:
		return m, m.openIssue(msg.IssueID)

	case notifications.OpenIssueMsg:
		return m, m.openIssue(msg.IssueID)

	case detail.BackMsg:
		m.back()
		return m, nil

	case users.CloseMsg, departments.CloseMsg:
		return m, m.switchTab(ViewDashboard)

	// === Issue actions ===

	case detail.ActionMsg:
		return m, m.handleAction(msg)

	case mapview.ReportHereMsg:
		at := msg.At
		return m, m.startReport(&at)

	case issueform.ReportMsg:
		m.back()
		m.setStatus("Submitting report...")
		return m, m.reportIssue(msg.Issue)

	case issueform.StatusMsg:
		m.back()
		return m, m.changeStatus(msg)

	case issueform.UpdateMsg:
		m.back()
		return m, m.addUpdate(msg)

	case issueform.CancelMsg:
		m.back()
		return m, nil

	case issueChangedMsg:
		return m, m.handleIssueChanged(msg)

	// === Filters ===

	case issuelist.OpenFiltersMsg, mapview.OpenFiltersMsg:
		m.open(ViewFilters)
		return m, m.filterForm.Start(m.issueList.State(), m.departments)

	case filterform.AppliedMsg:
		m.back()
		return m, m.applyFilter(msg.Update)

	case filterform.CancelMsg:
		m.back()
		return m, nil

	case mapview.FilterMsg:
		return m, m.applyFilter(msg.Action)

	// === Inbox and admin ===

	case notifications.ChangedMsg:
		return m, m.fetchUnreadCount()

	case departments.ChangedMsg:
		return m, m.loadDepartments()

	case command.CommandMsg:
		m.back()
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.poller.Stop()
			return m, tea.Quit
		}
		m.status = ""
		if m.inApp() && !m.capturing() {
			if handled, cmd := m.handleGlobalKey(msg); handled {
				return m, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey handles keys that work from any non-editing view.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "q":
		if m.isTab(m.currentView) {
			m.poller.Stop()
			return true, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.back()
			return true, nil
		}
		m.open(ViewHelp)
		return true, nil

	case ":":
		m.open(ViewCommand)
		return true, m.commandView.Focus()

	case "esc":
		if m.currentView == ViewHelp {
			m.back()
			return true, nil
		}

	case "1":
		return true, m.switchTab(ViewDashboard)
	case "2":
		return true, m.switchTab(ViewIssues)
	case "3":
		return true, m.switchTab(ViewMap)
	case "4":
		return true, m.switchTab(ViewNotifications)
	case "5":
		return true, m.switchTab(ViewProfile)
	case "6":
		return true, m.switchTab(ViewUsers)
	case "7":
		return true, m.switchTab(ViewDepartments)

	case "r":
		switch m.currentView {
		case ViewDashboard, ViewIssues, ViewMap, ViewNotifications, ViewDetail:
			return true, m.refreshAll()
		}

	case "n":
		switch m.currentView {
		case ViewDashboard, ViewIssues, ViewNotifications:
			return true, m.startReport(nil)
		}
	}
	return false, nil
}

// updateActiveView dispatches the message to the currently active view.
// Other messages also reach the map and the inbox, whose loads may finish
// while they are in the background.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authView, cmd = m.authView.Update(msg)
	case ViewDashboard:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	case ViewIssues:
		m.issueList, cmd = m.issueList.Update(msg)
		cmds = append(cmds, m.mapView.SetFilter(m.issueList.State()))
	case ViewMap:
		m.mapView, cmd = m.mapView.Update(msg)
	case ViewNotifications:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewUsers:
		m.userView, cmd = m.userView.Update(msg)
	case ViewDepartments:
		m.departmentView, cmd = m.departmentView.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewIssueForm:
		m.issueForm, cmd = m.issueForm.Update(msg)
	case ViewFilters:
		m.filterForm, cmd = m.filterForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.back()
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	}
	cmds = append(cmds, cmd)

	if _, isKey := msg.(tea.KeyMsg); !isKey {
		if _, isSize := msg.(tea.WindowSizeMsg); !isSize {
			var bg tea.Cmd
			if m.currentView != ViewMap {
				m.mapView, bg = m.mapView.Update(msg)
				cmds = append(cmds, bg)
			}
			if m.currentView != ViewNotifications {
				m.inbox, bg = m.inbox.Update(msg)
				cmds = append(cmds, bg)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// enterApp shows the signed-in views and starts loading them.
func (m *Model) enterApp() tea.Cmd {
	st := m.session.Snapshot()
	if st.User == nil {
		return m.leaveApp(sessionExpired)
	}
	u := *st.User
	m.user = &u
	m.loggingOut = false
	m.detail.SetViewer(u.ID, u.Role)
	m.helpView.SetRole(u.Role)
	m.profileView.SetUser(u, st.Token)
	m.history = nil
	m.currentView = ViewDashboard
	m.log.WithFields(logrus.Fields{"user": u.Email, "role": u.Role}).Info("signed in")

	return tea.Batch(
		m.dashboardView.Load(),
		m.issueList.Load(),
		m.mapView.Init(),
		m.inbox.Load(),
		m.fetchUnreadCount(),
		m.loadDepartments(),
		m.poller.Start(),
	)
}

// leaveApp returns to the login screen, dropping everything cached for the
// previous user. reason, when set, is shown above the form.
func (m *Model) leaveApp(reason string) tea.Cmd {
	m.poller.Stop()
	m.cache.Reset()
	m.user = nil
	m.unreadCount = 0
	m.history = nil
	m.loggingOut = false
	m.currentView = ViewAuth
	if reason != "" {
		return m.authView.SetError(reason)
	}
	return m.authView.Switch(auth.ModeLogin)
}

func (m Model) inApp() bool {
	return m.currentView != ViewAuth && m.currentView != ViewLoading && m.user != nil
}

func (m Model) caps() model.Capabilities {
	if m.user == nil {
		return model.Capabilities{}
	}
	return m.user.Role.Capabilities()
}

// capturing reports whether the active view is taking text input, in which
// case global keys are left to it.
func (m Model) capturing() bool {
	switch m.currentView {
	case ViewIssueForm, ViewFilters, ViewCommand:
		return true
	case ViewIssues:
		return m.issueList.Searching()
	case ViewMap:
		return m.mapView.Typing()
	case ViewProfile:
		return m.profileView.Editing()
	case ViewUsers:
		return m.userView.Editing()
	case ViewDepartments:
		return m.departmentView.Editing()
	}
	return false
}

// tab is one navigable top-level view.
type tab struct {
	view  ViewState
	key   string
	label string
}

// tabsFor lists the top-level views the capabilities allow.
func tabsFor(c model.Capabilities) []tab {
	tabs := []tab{
		{ViewDashboard, "1", "Dashboard"},
		{ViewIssues, "2", "Issues"},
		{ViewMap, "3", "Map"},
		{ViewNotifications, "4", "Inbox"},
		{ViewProfile, "5", "Profile"},
	}
	if c.ManageUsers {
		tabs = append(tabs, tab{ViewUsers, "6", "Users"})
	}
	if c.ManageDepartments {
		tabs = append(tabs, tab{ViewDepartments, "7", "Departments"})
	}
	return tabs
}

func (m Model) isTab(v ViewState) bool {
	for _, t := range tabsFor(m.caps()) {
		if t.view == v {
			return true
		}
	}
	return false
}

// switchTab shows a top-level view, refusing the ones the role may not
// open.
func (m *Model) switchTab(v ViewState) tea.Cmd {
	if !m.isTab(v) {
		return m.setError(fmt.Errorf("not available for your role"))
	}
	m.history = nil
	m.currentView = v
	switch v {
	case ViewUsers:
		return m.userView.Init()
	case ViewDepartments:
		return m.departmentView.Init()
	case ViewNotifications:
		return m.inbox.Load()
	}
	return nil
}

// open shows an overlay view on top of the current one.
func (m *Model) open(v ViewState) {
	if m.currentView == v {
		return
	}
	m.history = append(m.history, m.currentView)
	m.currentView = v
}

// back closes the current overlay.
func (m *Model) back() {
	if n := len(m.history); n > 0 {
		m.currentView = m.history[n-1]
		m.history = m.history[:n-1]
		return
	}
	if m.inApp() {
		m.currentView = ViewDashboard
	}
}

func (m *Model) openIssue(id string) tea.Cmd {
	m.open(ViewDetail)
	m.detail.StartLoading(id)
	return m.loadIssue(id)
}

func (m *Model) startReport(at *model.LatLng) tea.Cmd {
	if !m.caps().ReportIssues {
		return m.setError(fmt.Errorf("your role cannot report issues"))
	}
	m.open(ViewIssueForm)
	return m.issueForm.StartReport(at)
}

func (m *Model) handleAction(msg detail.ActionMsg) tea.Cmd {
	is, ok := m.detail.Issue()
	switch msg.Action {
	case detail.ActionUpvote:
		return m.vote(msg.IssueID, model.VoteUp)
	case detail.ActionDownvote:
		return m.vote(msg.IssueID, model.VoteDown)
	case detail.ActionChangeStatus:
		if ok {
			m.open(ViewIssueForm)
			return m.issueForm.StartStatus(is)
		}
	case detail.ActionAddUpdate:
		if ok {
			m.open(ViewIssueForm)
			return m.issueForm.StartUpdate(is)
		}
	case detail.ActionDelete:
		return m.deleteIssue(msg.IssueID)
	}
	return nil
}

// handleIssueChanged reports a write and reloads every view that shows
// issues.
func (m *Model) handleIssueChanged(msg issueChangedMsg) tea.Cmd {
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("issue", msg.issueID).Warn("issue write failed")
		return m.setError(fmt.Errorf("request failed: %s", api.Message(msg.err)))
	}
	m.setStatus(msg.done)

	cmds := []tea.Cmd{m.issueList.Load(), m.mapView.Load(), m.dashboardView.Load(), m.fetchUnreadCount(), m.inbox.Load()}
	if m.detail.IssueID() == msg.issueID && msg.issueID != "" {
		if msg.deleted {
			if m.currentView == ViewDetail {
				m.back()
			}
		} else {
			m.detail.StartLoading(msg.issueID)
			cmds = append(cmds, m.loadIssue(msg.issueID))
		}
	}
	return tea.Batch(cmds...)
}

// applyFilter changes the shared filter record. The list owns it; the map
// is handed the result.
func (m *Model) applyFilter(a filter.Action) tea.Cmd {
	listCmd := m.issueList.Dispatch(a)
	mapCmd := m.mapView.SetFilter(m.issueList.State())
	return tea.Batch(listCmd, mapCmd)
}

// refreshAll drops cached issue reads and reloads the views.
func (m *Model) refreshAll() tea.Cmd {
	m.cache.Invalidate(
		cache.General(cache.TagIssue),
		cache.General(cache.TagAnalytics),
		cache.General(cache.TagLocation),
	)
	cmds := []tea.Cmd{m.poller.Refresh(), m.dashboardView.Load(), m.issueList.Load(), m.mapView.Load(), m.inbox.Load(), m.fetchUnreadCount()}
	if id := m.detail.IssueID(); id != "" && m.currentView == ViewDetail {
		m.detail.StartLoading(id)
		cmds = append(cmds, m.loadIssue(id))
	}
	m.setStatus("Refreshing...")
	return tea.Batch(cmds...)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) tea.Cmd {
	m.status = err.Error()
	m.statusErr = true
	return nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewLoading {
		return lipgloss.NewStyle().
			Width(m.layout.Width).
			Height(m.layout.Height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Restoring your session...")
	}

	if m.currentView == ViewAuth {
		header := m.layout.RenderHeader("Civic Dashboard", "signed out")
		return m.layout.RenderWithFrame(header, "", m.authView.View(), m.layout.RenderStatusBar(m.keyHints()))
	}

	title := "Civic Dashboard"
	if m.unreadCount > 0 {
		title = fmt.Sprintf("Civic Dashboard [%d unread]", m.unreadCount)
	}
	header := m.layout.RenderHeader(title, m.headerRight())
	tabs := m.layout.RenderTabs(m.tabs())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, tabs, m.renderContent(), statusBar)
}

func (m Model) tabs() []ui.Tab {
	active := m.currentView
	for i := len(m.history) - 1; i >= 0 && !m.isTab(active); i-- {
		active = m.history[i]
	}
	var out []ui.Tab
	for _, t := range tabsFor(m.caps()) {
		out = append(out, ui.Tab{Key: t.key, Label: t.label, Active: t.view == active})
	}
	return out
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewIssues:
		return m.issueList.View()
	case ViewMap:
		return m.mapView.View()
	case ViewNotifications:
		return m.inbox.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewUsers:
		return m.userView.View()
	case ViewDepartments:
		return m.departmentView.View()
	case ViewDetail:
		return m.detail.View()
	case ViewIssueForm:
		return m.issueForm.View()
	case ViewFilters:
		return m.filterForm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerRight shows who is signed in and the sync state.
func (m Model) headerRight() string {
	var parts []string
	if m.user != nil {
		parts = append(parts, m.user.Name+" · "+theme.RoleStyle(m.user.Role).Render(m.user.Role.Label()))
	}
	parts = append(parts, m.syncStatus())
	return strings.Join(parts, " · ")
}

// syncStatus returns a short string describing the snapshot sync.
func (m Model) syncStatus() string {
	st := m.poller.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		if st.LastSync.IsZero() {
			return "⚠ offline"
		}
		return "⚠ offline, last sync " + issuelist.RelativeTime(st.LastSync)
	default:
		if st.LastSync.IsZero() {
			return "not synced"
		}
		return "synced " + issuelist.RelativeTime(st.LastSync)
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.status != "" {
		if m.statusErr {
			return theme.ErrorStyle.Render(m.status)
		}
		return lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.status)
	}

	switch m.currentView {
	case ViewAuth:
		return "enter submit | ctrl+r login/register | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return m.detail.Hints()
	case ViewIssueForm, ViewFilters:
		return "enter next | shift+tab previous | esc cancel"
	case ViewMap:
		return "j/k markers | enter open | f filters | : commands | ? help"
	case ViewNotifications:
		return "enter open | m read | M read all | x delete | X clear | f unread only"
	case ViewProfile:
		return "e edit | p password | L logout"
	case ViewUsers:
		return "n new | e edit | a toggle active | d delete | tab role | [/] page | esc back"
	case ViewDepartments:
		return "n new | e edit | d delete | r refresh | esc back"
	case ViewIssues:
		if s := m.issueList.FilterSummary(); s != "" {
			return s + " | f filters | : clear"
		}
		fallthrough
	default:
		hints := "q quit | ? help | : commands | / search | f filters | r refresh"
		if m.caps().ReportIssues {
			hints += " | n report"
		}
		return hints
	}
}
