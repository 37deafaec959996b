package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedIssues writes issues into the snapshot of s.
func SeedIssues(t *testing.T, s store.Store, issues ...model.Issue) {
	t.Helper()
	if err := s.UpsertIssues(context.Background(), issues, time.Now()); err != nil {
		t.Fatalf("seeding issues: %v", err)
	}
}

// Issue builds a pending, medium-priority road issue at (lat, lon). The
// created time is derived from the id order so sorts are deterministic.
func Issue(id string, lat, lon float64) model.Issue {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range id {
		created = created.Add(time.Duration(c) * time.Minute)
	}
	return model.Issue{
		ID:         id,
		Title:      "Issue " + id,
		Category:   model.CategoryRoad,
		Priority:   model.PriorityMedium,
		Status:     model.StatusPending,
		Latitude:   lat,
		Longitude:  lon,
		ReportedBy: model.UserRef{ID: "reporter", Name: "Reporter"},
		Upvotes:    []string{},
		Downvotes:  []string{},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}
