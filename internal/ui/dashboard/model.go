// Package dashboard renders the analytics summary.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/theme"
)

// Source loads the analytics summary.
type Source interface {
	Analytics(ctx context.Context) (model.Analytics, error)
}

// LoadedMsg carries a fresh summary.
type LoadedMsg struct {
	Analytics model.Analytics
	Err       error
}

const barWidth = 30

// Model is the dashboard view.
type Model struct {
	source   Source
	data     *model.Analytics
	err      error
	loading  bool
	viewport viewport.Model
	width    int
	height   int
}

// New creates the dashboard.
func New(src Source, width, height int) Model {
	return Model{
		source:   src,
		viewport: viewport.New(width, height),
		width:    width,
		height:   height,
	}
}

// Init loads the summary.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load fetches the summary.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	src := m.source
	return func() tea.Msg {
		a, err := src.Analytics(context.Background())
		return LoadedMsg{Analytics: a, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(LoadedMsg); ok {
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			a := msg.Analytics
			m.data = &a
		}
		m.viewport.SetContent(m.render())
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.data == nil {
		msg := "Loading analytics..."
		if m.err != nil {
			msg = theme.ErrorStyle.Render(api.Message(m.err)) + "\n\nPress r to retry."
		}
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(msg)
	}
	return m.viewport.View()
}

func (m Model) render() string {
	if m.data == nil {
		return ""
	}
	a := *m.data

	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	var sections []string

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total", a.TotalIssues, theme.ColorBlue),
		card("Resolved", a.ResolvedIssues, theme.ColorGreen),
		card("In progress", a.InProgressIssues, theme.ColorMagenta),
		card("Pending", a.PendingIssues, theme.ColorYellow),
		card("Rejected", a.RejectedIssues, theme.ColorRed),
	)
	sections = append(sections, cards)

	summary := fmt.Sprintf("Resolution rate %.1f%%", a.ResolutionRate()*100)
	if a.AverageResolutionTime > 0 {
		summary += fmt.Sprintf(" · average time to resolve %s", hours(a.AverageResolutionTime))
	}
	sections = append(sections, theme.HelpStyle.Render(summary), "")

	if len(a.IssuesByMonth) > 0 {
		sections = append(sections, header.Render("Issues over time"), Bars(a.IssuesByMonth, barWidth), "")
	}
	if len(a.IssuesByStatus) > 0 {
		sections = append(sections, header.Render("By status"), Shares(a.IssuesByStatus), "")
	}
	if len(a.IssuesByCategory) > 0 {
		sections = append(sections, header.Render("By category"), Bars(a.IssuesByCategory, barWidth), "")
	}
	if len(a.IssuesByPriority) > 0 {
		sections = append(sections, header.Render("By priority"), Bars(a.IssuesByPriority, barWidth), "")
	}

	if len(a.TopDepartments) > 0 {
		sections = append(sections, header.Render("Department performance"))
		for i, d := range a.TopDepartments {
			sections = append(sections, fmt.Sprintf("%2d. %-24s %4d issues  %5.1f%% resolved",
				i+1, d.Name, d.TotalIssues, d.ResolutionRate))
		}
		sections = append(sections, "")
	}

	if len(a.TopReporters) > 0 {
		sections = append(sections, header.Render("Top reporters"))
		for i, r := range a.TopReporters {
			sections = append(sections, fmt.Sprintf("%2d. %-24s %4d reports", i+1, r.Name, r.Count))
		}
	}

	if m.err != nil {
		sections = append(sections, "", theme.StaleStyle.Render("refresh failed: "+api.Message(m.err)))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func card(label string, n int, c lipgloss.TerminalColor) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 2).
		MarginRight(1).
		Render(lipgloss.NewStyle().Bold(true).Foreground(c).Render(fmt.Sprint(n)) + "\n" +
			theme.HelpStyle.Render(label))
}

// Bars renders entries as a horizontal bar chart scaled to width cells.
func Bars(entries []model.CountEntry, width int) string {
	peak := 0
	labelWidth := 0
	for _, e := range entries {
		peak = max(peak, e.Count)
		labelWidth = max(labelWidth, len(e.Key))
	}
	bar := lipgloss.NewStyle().Foreground(theme.ColorBlue)

	lines := make([]string, len(entries))
	for i, e := range entries {
		n := 0
		if peak > 0 {
			n = e.Count * width / peak
		}
		if e.Count > 0 && n == 0 {
			n = 1
		}
		lines[i] = fmt.Sprintf("%-*s %s %d", labelWidth, e.Key, bar.Render(strings.Repeat("█", n)), e.Count)
	}
	return strings.Join(lines, "\n")
}

// Shares renders each entry with its percentage of the total.
func Shares(entries []model.CountEntry) string {
	total := 0
	for _, e := range entries {
		total += e.Count
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		pct := 0.0
		if total > 0 {
			pct = float64(e.Count) * 100 / float64(total)
		}
		label := theme.StatusStyle(model.Status(e.Key)).Render(e.Key)
		parts[i] = fmt.Sprintf("%s %.0f%%", label, pct)
	}
	return strings.Join(parts, "  ")
}

func hours(h float64) string {
	if h < 48 {
		return fmt.Sprintf("%.1fh", h)
	}
	return fmt.Sprintf("%.1f days", h/24)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.render())
}
