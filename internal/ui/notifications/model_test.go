package notifications

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/tests/testutil"
)

func seeded(t *testing.T) (Model, Inbox) {
	t.Helper()
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, n := range []model.Notification{
		{ID: "n1", Kind: model.NotifyInfo, Title: "New issue reported", IssueID: "i1", CreatedAt: base},
		{ID: "n2", Kind: model.NotifySuccess, Title: "Issue resolved", Read: true, CreatedAt: base.Add(time.Minute)},
	} {
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	m := New(s, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Update(m.Init()())
	return m, s
}

// drain runs cmd and every command it batches, feeding messages to m.
func drain(m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		out = append(out, msg)
		var next tea.Cmd
		m, next = m.Update(msg)
		queue = append(queue, next)
	}
	return m, out
}

func TestLoad_NewestFirst(t *testing.T) {
	m, _ := seeded(t)
	if len(m.items) != 2 || m.items[0].ID != "n2" {
		t.Fatalf("items = %+v", m.items)
	}
	if m.Unread() != 1 {
		t.Errorf("unread = %d", m.Unread())
	}
}

func TestEnter_MarksReadAndOpensIssue(t *testing.T) {
	m, inbox := seeded(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, msgs := drain(m, cmd)

	var opened, changed bool
	for _, msg := range msgs {
		switch msg := msg.(type) {
		case OpenIssueMsg:
			opened = msg.IssueID == "i1"
		case ChangedMsg:
			changed = true
		}
	}
	if !opened || !changed {
		t.Errorf("opened=%v changed=%v", opened, changed)
	}
	unread, _ := inbox.GetNotifications(context.Background(), true)
	if len(unread) != 0 || m.Unread() != 0 {
		t.Errorf("still unread: %+v", unread)
	}
}

func TestClearAndUnreadFilter(t *testing.T) {
	m, _ := seeded(t)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	m, _ = drain(m, cmd)
	if !m.unreadOnly || len(m.items) != 1 {
		t.Fatalf("unreadOnly=%v items=%d", m.unreadOnly, len(m.items))
	}

	m, _ = drain(m, m.mutate(func(ctx context.Context, in Inbox) error { return in.ClearNotifications(ctx) }))
	if len(m.items) != 0 {
		t.Errorf("items after clear = %d", len(m.items))
	}
}
