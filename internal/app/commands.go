package app

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/ui/command"
)

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "dashboard":
		return m.switchTab(ViewDashboard)
	case "issues":
		return m.switchTab(ViewIssues)
	case "map":
		return m.switchTab(ViewMap)
	case "notifications", "inbox":
		return m.switchTab(ViewNotifications)
	case "profile":
		return m.switchTab(ViewProfile)
	case "users":
		return m.switchTab(ViewUsers)
	case "departments":
		return m.switchTab(ViewDepartments)

	case "report":
		return m.startReport(nil)
	case "refresh", "sync":
		return m.refreshAll()
	case "read all":
		return m.inbox.MarkAllRead()
	case "logout":
		return m.logout()
	case "quit", "q":
		m.poller.Stop()
		return tea.Quit

	case "search":
		return m.applyFilter(filter.SetSearch(strings.Join(c.Args, " ")))
	case "clear":
		return m.applyFilter(filter.Reset{})
	case "status":
		v, err := parseSet(c.Args, model.Statuses)
		if err != nil {
			return m.setError(err)
		}
		return m.applyFilter(filter.SetStatuses(v))
	case "category":
		v, err := parseSet(c.Args, model.Categories)
		if err != nil {
			return m.setError(err)
		}
		return m.applyFilter(filter.SetCategories(v))
	case "priority":
		v, err := parseSet(c.Args, model.Priorities)
		if err != nil {
			return m.setError(err)
		}
		return m.applyFilter(filter.SetPriorities(v))
	case "radius":
		if len(c.Args) != 1 {
			return m.setError(fmt.Errorf("usage: radius <km>"))
		}
		km, err := strconv.ParseFloat(c.Args[0], 64)
		if err != nil || km <= 0 {
			return m.setError(fmt.Errorf("radius must be a positive number of kilometers"))
		}
		return m.applyFilter(filter.SetLocation{RadiusKm: &km})
	}

	return m.setError(fmt.Errorf("unknown command %q", c.Name))
}

// parseSet validates each argument against the allowed values. Arguments
// may also be comma-separated. No arguments clears the set.
func parseSet[T ~string](args []string, allowed []T) ([]T, error) {
	out := make([]T, 0, len(args))
	for _, a := range strings.FieldsFunc(strings.Join(args, ","), func(r rune) bool { return r == ',' }) {
		a = strings.TrimSpace(a)
		v := T(a)
		if !slices.Contains(allowed, v) {
			names := make([]string, len(allowed))
			for i, x := range allowed {
				names[i] = string(x)
			}
			return nil, fmt.Errorf("unknown value %q, expected one of %s", a, strings.Join(names, ", "))
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}
