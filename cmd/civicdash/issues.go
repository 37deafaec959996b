package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/store"
)

var errEmptySnapshot = errors.New("no saved issues")

var issuesCmd = &cobra.Command{
	Use:     "issues",
	Aliases: []string{"ls"},
	Short:   "List issues",
	GroupID: "issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		s = filter.Reduce(s, filter.SetPagination{Page: max(page, 1), Limit: max(limit, 0)})

		res, err := client.ListIssues(context.Background(), filter.Params(s))
		if err != nil {
			if !api.IsTransport(err) {
				return fmt.Errorf("listing issues: %s", api.Message(err))
			}
			issues, serr := snapshotIssues(s)
			if serr != nil {
				return fmt.Errorf("listing issues: %s", api.Message(err))
			}
			fmt.Fprintln(os.Stderr, "Server unreachable, showing the saved snapshot")
			res = model.IssuePage{Issues: issues, Pagination: model.Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: len(issues)}}
		}

		if jsonOutput {
			printJSON(res)
			return nil
		}
		printIssueTable(res.Issues)
		p := res.Pagination
		fmt.Printf("\npage %d of %d · %d issues\n", p.CurrentPage, max(p.TotalPages, 1), p.TotalItems)
		return nil
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an issue and its progress updates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		is, err := client.GetIssue(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading issue: %s", api.Message(err))
		}
		updates, err := client.IssueUpdates(ctx, is.ID)
		if err != nil {
			log.WithError(err).Warn("loading issue updates")
		}

		if jsonOutput {
			printJSON(struct {
				Issue   model.Issue         `json:"issue"`
				Updates []model.IssueUpdate `json:"updates"`
			}{is, updates})
			return nil
		}
		printIssue(is, updates)
		return nil
	},
}

func init() {
	addFilterFlags(issuesCmd)
	issuesCmd.Flags().String("sort", string(filter.SortCreatedAt), "sort key (createdAt, updatedAt, priority, status, title)")
	issuesCmd.Flags().Bool("asc", false, "sort ascending")
	issuesCmd.Flags().Int("page", 1, "page number")
	issuesCmd.Flags().Int("limit", filter.DefaultLimit, "issues per page")
	issuesCmd.AddCommand(issueShowCmd)
}

// addFilterFlags registers the flags shared by the issue and map commands.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "q", "", "free-text search")
	cmd.Flags().StringSliceP("status", "s", nil, "filter by status (repeatable)")
	cmd.Flags().StringSliceP("category", "c", nil, "filter by category (repeatable)")
	cmd.Flags().StringSliceP("priority", "p", nil, "filter by priority (repeatable)")
}

// filterFromFlags builds a filter record from the command's flags.
func filterFromFlags(cmd *cobra.Command) (filter.State, error) {
	s := filter.Default()

	if q, _ := cmd.Flags().GetString("search"); q != "" {
		s = filter.Reduce(s, filter.SetSearch(q))
	}

	raw, _ := cmd.Flags().GetStringSlice("status")
	statuses, err := parseEach(raw, model.ParseStatus)
	if err != nil {
		return s, err
	}
	raw, _ = cmd.Flags().GetStringSlice("category")
	categories, err := parseEach(raw, model.ParseCategory)
	if err != nil {
		return s, err
	}
	raw, _ = cmd.Flags().GetStringSlice("priority")
	priorities, err := parseEach(raw, model.ParsePriority)
	if err != nil {
		return s, err
	}
	s = filter.Reduce(s, filter.Update{
		Statuses:   statuses,
		Categories: categories,
		Priorities: priorities,
	})

	if cmd.Flags().Lookup("sort") != nil {
		key, _ := cmd.Flags().GetString("sort")
		asc, _ := cmd.Flags().GetBool("asc")
		by := filter.SortKey(key)
		if !validSortKey(by) {
			return s, fmt.Errorf("unknown sort key %q", key)
		}
		order := filter.Desc
		if asc {
			order = filter.Asc
		}
		s = filter.Reduce(s, filter.SetSorting{By: by, Order: order})
	}
	return s, nil
}

func parseEach[T any](raw []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		v, err := parse(strings.TrimSpace(r))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func validSortKey(k filter.SortKey) bool {
	for _, sk := range filter.SortKeys {
		if sk == k {
			return true
		}
	}
	return false
}

// snapshotIssues reads the local snapshot the dashboard keeps.
func snapshotIssues(s filter.State) ([]model.Issue, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	f := store.IssueFilter{
		Categories: s.Categories,
		Statuses:   s.Statuses,
		Priorities: s.Priorities,
		SortBy:     "created_at",
		SortDesc:   true,
		Limit:      s.Limit,
	}
	if s.Search != "" {
		q := s.Search
		f.Query = &q
	}
	issues, err := st.GetIssues(context.Background(), f)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, errEmptySnapshot
	}
	return issues, nil
}
