package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nhle/civic-dashboard/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printIssueTable(issues []model.Issue) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tCATEGORY\tVOTES\tTITLE")
	for _, is := range issues {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%+d\t%s\n",
			is.ID, is.Status, is.Priority, is.Category, is.VoteScore(), truncate(is.Title, 60))
	}
	w.Flush()
}

func printIssue(is model.Issue, updates []model.IssueUpdate) {
	fmt.Printf("ID:          %s\n", is.ID)
	fmt.Printf("Title:       %s\n", is.Title)
	fmt.Printf("Status:      %s\n", is.Status)
	fmt.Printf("Priority:    %s\n", is.Priority)
	fmt.Printf("Category:    %s\n", is.Category)
	fmt.Printf("Location:    %.6f, %.6f\n", is.Latitude, is.Longitude)
	if is.Address != "" {
		fmt.Printf("Address:     %s\n", is.Address)
	}
	if !is.IsAnonymous && is.ReportedBy.Name != "" {
		fmt.Printf("Reported By: %s\n", is.ReportedBy.Name)
	}
	if is.AssignedTo != nil {
		fmt.Printf("Assigned To: %s\n", is.AssignedTo.Name)
	}
	if is.Department != nil {
		fmt.Printf("Department:  %s\n", is.Department.Name)
	}
	fmt.Printf("Votes:       +%d / -%d\n", len(is.Upvotes), len(is.Downvotes))
	if len(is.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(is.Tags, ", "))
	}
	if !is.CreatedAt.IsZero() {
		fmt.Printf("Created At:  %s\n", is.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if is.Description != "" {
		fmt.Printf("\n%s\n", is.Description)
	}

	if len(updates) > 0 {
		fmt.Printf("\nUpdates:\n")
		for _, u := range updates {
			line := u.Note
			if u.Status != "" {
				line = fmt.Sprintf("[%s] %s", u.Status, line)
			}
			fmt.Printf("  %s  %s: %s\n", u.CreatedAt.Format("2006-01-02 15:04"), u.CreatedBy.Name, line)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
