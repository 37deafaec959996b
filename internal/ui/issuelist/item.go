package issuelist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
)

// IssueItem wraps a model.Issue so it can be used in a bubbles/list.
type IssueItem struct {
	Issue model.Issue
}

// FilterValue returns the string used for fuzzy filtering.
func (i IssueItem) FilterValue() string { return i.Issue.Title }

// Title returns the issue title for the list.
func (i IssueItem) Title() string { return i.Issue.Title }

// Description returns a short summary line for the list.
func (i IssueItem) Description() string {
	return fmt.Sprintf("%s | %s | %s", i.Issue.Category, i.Issue.Status, RelativeTime(i.Issue.CreatedAt))
}

// ItemDelegate renders one issue per line.
type ItemDelegate struct{}

func (d ItemDelegate) Height() int { return 1 }

func (d ItemDelegate) Spacing() int { return 0 }

func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(IssueItem)
	if !ok {
		return
	}
	is := it.Issue

	status := theme.StatusStyle(is.Status).Render(fmt.Sprintf("%-12s", is.Status))
	priority := theme.PriorityStyle(is.Priority).Render(PriorityLabel(is.Priority))
	category := lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(fmt.Sprintf("%-11s", is.Category))

	votes := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(fmt.Sprintf("%+d", is.VoteScore()))
	age := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(RelativeTime(is.CreatedAt))

	line := fmt.Sprintf("%s %s %s %s  %s %s", status, priority, category, is.Title, votes, age)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// RelativeTime returns a human-friendly relative time string.
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// PriorityLabel returns a fixed-width tag for p.
func PriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "CRIT"
	case model.PriorityHigh:
		return "HIGH"
	case model.PriorityMedium:
		return "MED "
	case model.PriorityLow:
		return "LOW "
	default:
		return "??? "
	}
}
