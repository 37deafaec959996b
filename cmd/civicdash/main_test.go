package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/model"
)

func newFilterCmd(t *testing.T, withSort bool, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd)
	if withSort {
		cmd.Flags().String("sort", string(filter.SortCreatedAt), "")
		cmd.Flags().Bool("asc", false, "")
	}
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return cmd
}

func TestFilterFromFlags(t *testing.T) {
	cmd := newFilterCmd(t, true, "-q", "pothole", "--status", "pending,in-progress", "-c", "road", "--sort", "priority", "--asc")

	s, err := filterFromFlags(cmd)
	if err != nil {
		t.Fatalf("filterFromFlags: %v", err)
	}
	if s.Search != "pothole" {
		t.Errorf("Search = %q", s.Search)
	}
	if len(s.Statuses) != 2 || s.Statuses[1] != model.StatusInProgress {
		t.Errorf("Statuses = %v", s.Statuses)
	}
	if len(s.Categories) != 1 || s.Categories[0] != model.CategoryRoad {
		t.Errorf("Categories = %v", s.Categories)
	}
	if s.SortBy != filter.SortPriority || s.SortOrder != filter.Asc {
		t.Errorf("sort = %s %s", s.SortBy, s.SortOrder)
	}
	if s.Page != 1 {
		t.Errorf("Page = %d", s.Page)
	}
}

func TestFilterFromFlags_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"status", []string{"--status", "closed"}},
		{"priority", []string{"-p", "urgent"}},
		{"sort", []string{"--sort", "votes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := filterFromFlags(newFilterCmd(t, true, tt.args...)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFilterFromFlags_MapHasNoSort(t *testing.T) {
	s, err := filterFromFlags(newFilterCmd(t, false))
	if err != nil {
		t.Fatalf("filterFromFlags: %v", err)
	}
	d := filter.Default()
	if s.SortBy != d.SortBy || s.SortOrder != d.SortOrder {
		t.Errorf("sort changed to %s %s", s.SortBy, s.SortOrder)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"1", 1},
		{"2.5", 2.5},
		{"http://localhost:5000/api/v1", "http://localhost:5000/api/v1"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("Overflowing drain near market", 10); got != "Overflowi…" {
		t.Errorf("got %q", got)
	}
}
