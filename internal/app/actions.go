package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/session"
	"github.com/nhle/civic-dashboard/internal/ui/detail"
	"github.com/nhle/civic-dashboard/internal/ui/issueform"
)

// bootstrapDoneMsg is sent once a restored session has been resolved.
type bootstrapDoneMsg struct{ err error }

// authResultMsg is sent after a login or registration attempt.
type authResultMsg struct{ err error }

// loggedOutMsg is sent after the session has been cleared.
type loggedOutMsg struct{}

// sessionChangedMsg carries a session update made outside the UI, such as
// the API client logging out after a failed refresh.
type sessionChangedMsg struct{ state session.State }

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct{ count int }

// departmentsLoadedMsg carries the department list used by the filter and
// registration forms.
type departmentsLoadedMsg struct {
	departments []model.Department
}

// issueChangedMsg is sent after a write to an issue.
type issueChangedMsg struct {
	issueID string
	done    string
	deleted bool
	err     error
}

// bootstrap resolves a restored session by fetching the profile.
func (m *Model) bootstrap() tea.Cmd {
	sess, client := m.session, m.client
	return func() tea.Msg {
		return bootstrapDoneMsg{err: sess.Bootstrap(context.Background(), client)}
	}
}

// waitForSession delivers the next session change.
func (m *Model) waitForSession() tea.Cmd {
	ch := m.sessionCh
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return sessionChangedMsg{state: s}
	}
}

func (m *Model) login(email, password string) tea.Cmd {
	sess, client := m.session, m.client
	return func() tea.Msg {
		res, err := client.Login(context.Background(), email, password)
		if err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{err: sess.SetCredentials(&res.User, res.Token, res.RefreshToken)}
	}
}

func (m *Model) register(reg api.Registration) tea.Cmd {
	sess, client := m.session, m.client
	return func() tea.Msg {
		res, err := client.Register(context.Background(), reg)
		if err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{err: sess.SetCredentials(&res.User, res.Token, res.RefreshToken)}
	}
}

// logout tells the server, then clears the session whatever it answered.
func (m *Model) logout() tea.Cmd {
	sess, client, log := m.session, m.client, m.log
	return func() tea.Msg {
		if err := client.Logout(context.Background()); err != nil {
			log.WithError(err).Debug("server logout failed")
		}
		if err := sess.Logout(); err != nil {
			log.WithError(err).Error("clearing session")
		}
		return loggedOutMsg{}
	}
}

// fetchUnreadCount returns a tea.Cmd that queries the store for the
// number of unread notifications.
func (m *Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		n, err := s.UnreadCount(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: n}
	}
}

func (m *Model) loadDepartments() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		d, err := b.ListDepartments(context.Background())
		if err != nil {
			b.log.WithError(err).Debug("loading departments")
			return nil
		}
		return departmentsLoadedMsg{departments: d}
	}
}

// loadIssue fetches an issue for the detail view.
func (m *Model) loadIssue(id string) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		is, updates, err := b.Issue(context.Background(), id)
		return detail.LoadedMsg{Issue: is, Updates: updates, Err: err}
	}
}

// mutateIssue runs a write against one issue, invalidating its cached reads
// on success.
func (m *Model) mutateIssue(id, done string, fn func(ctx context.Context, c *api.Client) error) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		err := b.cache.Mutate(context.Background(), api.IssueTags(id), func(ctx context.Context) error {
			return fn(ctx, b.client)
		})
		return issueChangedMsg{issueID: id, done: done, err: err}
	}
}

func (m *Model) vote(id string, v model.VoteType) tea.Cmd {
	return m.mutateIssue(id, "Vote recorded", func(ctx context.Context, c *api.Client) error {
		_, err := c.Vote(ctx, id, v)
		return err
	})
}

func (m *Model) changeStatus(msg issueform.StatusMsg) tea.Cmd {
	done := fmt.Sprintf("Status changed to %s", msg.Status)
	return m.mutateIssue(msg.IssueID, done, func(ctx context.Context, c *api.Client) error {
		_, err := c.UpdateStatus(ctx, msg.IssueID, msg.Status, msg.Notes)
		return err
	})
}

func (m *Model) addUpdate(msg issueform.UpdateMsg) tea.Cmd {
	return m.mutateIssue(msg.IssueID, "Update posted", func(ctx context.Context, c *api.Client) error {
		_, err := c.AddIssueUpdate(ctx, msg.IssueID, msg.Update)
		return err
	})
}

// deleteIssue removes an issue on the server and from the snapshot.
func (m *Model) deleteIssue(id string) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		tags := append(api.IssueTags(id), api.IssueCollectionTags()...)
		err := b.cache.Mutate(context.Background(), tags, func(ctx context.Context) error {
			return b.client.DeleteIssue(ctx, id)
		})
		if err == nil {
			if serr := b.store.DeleteIssue(context.Background(), id); serr != nil {
				b.log.WithError(serr).WithField("issue", id).Warn("removing issue from snapshot")
			}
		}
		return issueChangedMsg{issueID: id, done: "Issue deleted", deleted: true, err: err}
	}
}

// reportIssue creates an issue and records it in the inbox.
func (m *Model) reportIssue(in model.NewIssue) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx := context.Background()
		var created model.Issue
		err := b.cache.Mutate(ctx, api.IssueCollectionTags(), func(ctx context.Context) error {
			var err error
			created, err = b.client.CreateIssue(ctx, in)
			return err
		})
		if err != nil {
			return issueChangedMsg{done: "Issue reported", err: err}
		}

		n := model.Notification{
			Kind:    model.NotifySuccess,
			Title:   "Issue reported",
			Message: created.Title,
			IssueID: created.ID,
		}
		if nerr := b.store.CreateNotification(ctx, n); nerr != nil {
			b.log.WithError(nerr).Warn("recording report notification")
		}
		return issueChangedMsg{issueID: created.ID, done: "Issue reported"}
	}
}
