package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/civic-dashboard/internal/theme"
)

// Layout manages the dashboard frame dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabsHeight      int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions. The
// header, tab strip and status bar are one line each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabsHeight:      1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.TabsHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// Tab is one entry of the navigation strip.
type Tab struct {
	Key    string
	Label  string
	Active bool
}

var (
	tabStyle       = lipgloss.NewStyle().Foreground(theme.ColorGray).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Underline(true).Padding(0, 1)
)

// RenderHeader renders the title on the left and the session and sync
// summary on the right.
func (l Layout) RenderHeader(title, right string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	rightRendered := theme.HeaderStyle.Align(lipgloss.Right).Render(right)
	return fill(l.Width, theme.HeaderStyle, titleRendered, rightRendered)
}

// RenderTabs renders the views the current user can navigate to.
func (l Layout) RenderTabs(tabs []Tab) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := t.Key + " " + t.Label
		if t.Active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	row := strings.Join(parts, " ")
	if lipgloss.Width(row) > l.Width && l.Width > 1 {
		row = lipgloss.NewStyle().MaxWidth(l.Width).Render(row)
	}
	return row
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return fill(l.Width, theme.StatusBarStyle, theme.StatusBarStyle.Render(hints))
}

// RenderWithFrame stacks the header, tabs, content and status bar. An
// empty tabs string is skipped, as on the login screen.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	rows := []string{header}
	if tabs != "" {
		rows = append(rows, tabs)
	}
	rows = append(rows, content, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// fill pads the gap between the first and last part with style's
// background so the bar spans width.
func fill(width int, style lipgloss.Style, parts ...string) string {
	used := 0
	for _, p := range parts {
		used += lipgloss.Width(p)
	}
	gap := width - used
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	if len(parts) == 1 {
		return lipgloss.JoinHorizontal(lipgloss.Top, parts[0], filler)
	}
	row := append([]string{}, parts[:len(parts)-1]...)
	row = append(row, filler, parts[len(parts)-1])
	return lipgloss.JoinHorizontal(lipgloss.Top, row...)
}
