package detail

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/civic-dashboard/internal/keys"
	"github.com/nhle/civic-dashboard/internal/model"
)

func loaded(role model.Role) Model {
	m := New(keys.DefaultKeyMap(), 100, 40)
	m.SetViewer("u1", role)
	m.StartLoading("i1")
	m, _ = m.Update(LoadedMsg{
		Issue: &model.Issue{
			ID:        "i1",
			Title:     "Streetlight out",
			Status:    model.StatusPending,
			Upvotes:   []string{"u1"},
			Downvotes: []string{},
		},
		Updates: []model.IssueUpdate{{Note: "Crew dispatched", Status: model.StatusInProgress,
			CreatedBy: model.UserRef{Name: "Ravi"}}},
	})
	return m
}

func press(m Model, s string) (Model, tea.Msg) {
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestActions_GatedByRole(t *testing.T) {
	citizen := loaded(model.RoleUser)
	if _, msg := press(citizen, "s"); msg != nil {
		if _, ok := msg.(ActionMsg); ok {
			t.Error("citizen offered status change")
		}
	}
	if _, msg := press(citizen, "+"); msg != (ActionMsg{Action: ActionUpvote, IssueID: "i1"}) {
		t.Errorf("citizen upvote = %#v", msg)
	}

	staff := loaded(model.RoleDepartment)
	if _, msg := press(staff, "u"); msg != (ActionMsg{Action: ActionAddUpdate, IssueID: "i1"}) {
		t.Errorf("staff add update = %#v", msg)
	}
	if m, _ := press(staff, "D"); m.confirm {
		t.Error("department staff may not delete")
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	m := loaded(model.RoleAdmin)
	m, msg := press(m, "D")
	if msg != nil || !m.confirm {
		t.Fatalf("first D: msg=%#v confirm=%v", msg, m.confirm)
	}
	m, msg = press(m, "n")
	if msg != nil || m.confirm {
		t.Fatalf("cancel: msg=%#v confirm=%v", msg, m.confirm)
	}

	m, _ = press(m, "D")
	_, msg = press(m, "y")
	if msg != (ActionMsg{Action: ActionDelete, IssueID: "i1"}) {
		t.Errorf("confirm = %#v", msg)
	}
}

func TestRender_ShowsVoteAndUpdates(t *testing.T) {
	out := loaded(model.RoleUser).renderContent()
	for _, want := range []string{"Streetlight out", "you upvoted", "Crew dispatched", "Progress updates (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("content missing %q", want)
		}
	}
}

func TestHints(t *testing.T) {
	if h := loaded(model.RoleUser).Hints(); strings.Contains(h, "status") {
		t.Errorf("citizen hints = %q", h)
	}
	if h := loaded(model.RoleAdmin).Hints(); !strings.Contains(h, "D delete") {
		t.Errorf("admin hints = %q", h)
	}
}
