// Package notifications is the inbox view.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
	"github.com/nhle/civic-dashboard/internal/ui/issuelist"
)

// Inbox is the notification storage the view operates on.
type Inbox interface {
	GetNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error
}

// ChangedMsg is sent after the inbox was modified so the parent can
// refresh its unread badge.
type ChangedMsg struct{}

// OpenIssueMsg asks the parent to show the linked issue.
type OpenIssueMsg struct {
	IssueID string
}

type loadedMsg struct {
	items []model.Notification
	err   error
}

type changedMsg struct{ err error }

// Model is the notification inbox.
type Model struct {
	inbox       Inbox
	keys        *keys.KeyMap
	items       []model.Notification
	unreadOnly  bool
	selectedIdx int
	err         error
	width       int
	height      int
}

// New creates the inbox view.
func New(inbox Inbox, k *keys.KeyMap, width, height int) Model {
	return Model{inbox: inbox, keys: k, width: width, height: height}
}

// Init loads the inbox.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load re-reads the inbox.
func (m Model) Load() tea.Cmd {
	inbox := m.inbox
	unreadOnly := m.unreadOnly
	return func() tea.Msg {
		items, err := inbox.GetNotifications(context.Background(), unreadOnly)
		return loadedMsg{items: items, err: err}
	}
}

// Unread counts the unread items currently loaded.
func (m Model) Unread() int {
	n := 0
	for _, it := range m.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.items = msg.items
		}
		if m.selectedIdx >= len(m.items) {
			m.selectedIdx = max(len(m.items)-1, 0)
		}
		return m, nil

	case changedMsg:
		m.err = msg.err
		return m, tea.Batch(m.Load(), func() tea.Msg { return ChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	sel, ok := m.selected()

	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.items)) % len(m.items)
		}

	case key.Matches(msg, m.keys.Select):
		if !ok {
			return m, nil
		}
		cmds := []tea.Cmd{}
		if !sel.Read {
			cmds = append(cmds, m.mutate(func(ctx context.Context, in Inbox) error {
				return in.MarkNotificationRead(ctx, sel.ID)
			}))
		}
		if sel.IssueID != "" {
			id := sel.IssueID
			cmds = append(cmds, func() tea.Msg { return OpenIssueMsg{IssueID: id} })
		}
		return m, tea.Batch(cmds...)

	case msg.String() == "m":
		if ok && !sel.Read {
			return m, m.mutate(func(ctx context.Context, in Inbox) error {
				return in.MarkNotificationRead(ctx, sel.ID)
			})
		}

	case msg.String() == "M":
		return m, m.mutate(func(ctx context.Context, in Inbox) error {
			return in.MarkAllNotificationsRead(ctx)
		})

	case msg.String() == "x":
		if ok {
			return m, m.mutate(func(ctx context.Context, in Inbox) error {
				return in.DeleteNotification(ctx, sel.ID)
			})
		}

	case msg.String() == "X":
		return m, m.mutate(func(ctx context.Context, in Inbox) error {
			return in.ClearNotifications(ctx)
		})

	case msg.String() == "f":
		m.unreadOnly = !m.unreadOnly
		m.selectedIdx = 0
		return m, m.Load()
	}
	return m, nil
}

// MarkAllRead marks the whole inbox read.
func (m Model) MarkAllRead() tea.Cmd {
	return m.mutate(func(ctx context.Context, in Inbox) error {
		return in.MarkAllNotificationsRead(ctx)
	})
}

func (m Model) mutate(fn func(context.Context, Inbox) error) tea.Cmd {
	inbox := m.inbox
	return func() tea.Msg {
		return changedMsg{err: fn(context.Background(), inbox)}
	}
}

func (m Model) selected() (model.Notification, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.items) {
		return model.Notification{}, false
	}
	return m.items[m.selectedIdx], true
}

// View renders the inbox.
func (m Model) View() string {
	var b strings.Builder

	title := "Notifications"
	if m.unreadOnly {
		title += " (unread)"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(title))
	b.WriteString(theme.HelpStyle.Render(fmt.Sprintf("  %d unread", m.Unread())))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("You're all caught up."))
	}

	for i, n := range m.items {
		marker := "  "
		if !n.Read {
			marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("● ")
		}
		line := marker + theme.NotificationStyle(n.Kind).Render(n.Title)
		if n.Message != "" {
			line += "  " + n.Message
		}
		line += theme.HelpStyle.Render("  " + issuelist.RelativeTime(n.CreatedAt))

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + theme.ErrorStyle.Render(m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("enter open | m read | M read all | x delete | X clear | f unread only"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
