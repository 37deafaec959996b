package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Views
	Dashboard     key.Binding
	Issues        key.Binding
	Map           key.Binding
	Notifications key.Binding
	Profile       key.Binding
	Users         key.Binding
	Departments   key.Binding

	// Issue actions
	Report    key.Binding
	Upvote    key.Binding
	Downvote  key.Binding
	Status    key.Binding
	AddUpdate key.Binding
	Delete    key.Binding

	// List controls
	Filter    key.Binding
	CycleSort key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding

	// Map controls
	RadiusUp   key.Binding
	RadiusDown key.Binding
	Locate     key.Binding
	Area       key.Binding
	ZoomIn     key.Binding
	ZoomOut    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "dashboard"),
		),
		Issues: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "issues"),
		),
		Map: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "map"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "notifications"),
		),
		Profile: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "profile"),
		),
		Users: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "users"),
		),
		Departments: key.NewBinding(
			key.WithKeys("7"),
			key.WithHelp("7", "departments"),
		),
		Report: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "report issue"),
		),
		Upvote: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "upvote"),
		),
		Downvote: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "downvote"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "change status"),
		),
		AddUpdate: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "add update"),
		),
		Delete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filters"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle sort"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev page"),
		),
		RadiusUp: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "widen radius"),
		),
		RadiusDown: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "narrow radius"),
		),
		Locate: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "use my location"),
		),
		Area: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "pick area"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "zoom out"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.Dashboard, k.Issues, k.Map, k.Notifications, k.Profile, k.Users, k.Departments},
		{k.Report, k.Upvote, k.Downvote, k.Status, k.AddUpdate, k.Delete},
		{k.Filter, k.CycleSort, k.PrevPage, k.NextPage},
		{k.RadiusDown, k.RadiusUp, k.Locate, k.Area, k.ZoomIn, k.ZoomOut},
	}
}
