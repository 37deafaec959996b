package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/store"
	"github.com/nhle/civic-dashboard/tests/testutil"
)

func TestSQLiteStore_IssueSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := testutil.Issue("a", 28.6, 77.2)
	a.Title = "Overflowing drain"
	a.Category = model.CategoryWater
	a.Priority = model.PriorityCritical
	a.CreatedAt = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a.AssignedTo = &model.UserRef{ID: "staff", Name: "Ravi"}

	b := testutil.Issue("b", 28.7, 77.1)
	b.Status = model.StatusResolved
	b.Priority = model.PriorityLow
	b.CreatedAt = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	c := testutil.Issue("c", 19.0, 72.8)
	c.Address = "Marine Drive"
	c.CreatedAt = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	testutil.SeedIssues(t, s, a, b, c)

	all, err := s.GetIssues(ctx, store.IssueFilter{SortBy: "created_at", SortDesc: true})
	if err != nil {
		t.Fatalf("GetIssues: %v", err)
	}
	if ids(all) != "c,a,b" {
		t.Errorf("order = %s, want c,a,b", ids(all))
	}

	pending, err := s.GetIssues(ctx, store.IssueFilter{Statuses: []model.Status{model.StatusPending}})
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %s", ids(pending))
	}

	byPriority, err := s.GetIssues(ctx, store.IssueFilter{SortBy: "priority", SortDesc: true})
	if err != nil {
		t.Fatal(err)
	}
	if ids(byPriority) != "a,c,b" {
		t.Errorf("priority order = %s, want a,c,b", ids(byPriority))
	}

	q := "marine"
	found, err := s.GetIssues(ctx, store.IssueFilter{Query: &q})
	if err != nil {
		t.Fatal(err)
	}
	if ids(found) != "c" {
		t.Errorf("search = %s", ids(found))
	}

	mixed, err := s.GetIssues(ctx, store.IssueFilter{
		Categories: []model.Category{model.CategoryRoad, model.CategoryWater},
		Priorities: []model.Priority{model.PriorityCritical, model.PriorityLow},
	})
	if err != nil {
		t.Fatal(err)
	}
	if ids(mixed) != "b,a" && ids(mixed) != "a,b" {
		t.Errorf("category+priority = %s", ids(mixed))
	}

	got, err := s.GetIssueByID(ctx, "a")
	if err != nil || got == nil {
		t.Fatalf("GetIssueByID: %v %v", got, err)
	}
	if got.AssignedTo == nil || got.AssignedTo.Name != "Ravi" || got.Title != "Overflowing drain" {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	is := testutil.Issue("a", 1, 1)
	testutil.SeedIssues(t, s, is)
	is.Status = model.StatusInProgress
	testutil.SeedIssues(t, s, is)

	got, err := s.GetIssues(ctx, store.IssueFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != model.StatusInProgress {
		t.Errorf("issues = %+v", got)
	}

	known, err := s.KnownIssueIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := known["a"]; !ok || len(known) != 1 {
		t.Errorf("known = %v", known)
	}

	if err := s.DeleteIssue(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if got, err := s.GetIssueByID(ctx, "a"); err != nil || got != nil {
		t.Errorf("after delete: %v %v", got, err)
	}
}

func TestSQLiteStore_Pagination(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	var batch []model.Issue
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		is := testutil.Issue(id, 0, 0)
		is.CreatedAt = time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC)
		batch = append(batch, is)
	}
	testutil.SeedIssues(t, s, batch...)

	page, err := s.GetIssues(ctx, store.IssueFilter{SortBy: "created_at", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if ids(page) != "c,d" {
		t.Errorf("page = %s, want c,d", ids(page))
	}
}

func TestSQLiteStore_Locations(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	delhi := model.Location{
		ID: "s1", Name: "Delhi", Type: model.LocationState,
		Bounds: model.Bounds{North: 28.9, South: 28.4, East: 77.4, West: 76.8},
		Center: model.LatLng{Latitude: 28.6, Longitude: 77.2}, ZoomLevel: 9,
	}
	south := model.Location{ID: "d1", Name: "South Delhi", Type: model.LocationDistrict, ParentID: "s1"}
	north := model.Location{ID: "d2", Name: "North Delhi", Type: model.LocationDistrict, ParentID: "s1"}
	other := model.Location{ID: "d3", Name: "Pune", Type: model.LocationDistrict, ParentID: "s2"}

	if err := s.UpsertLocations(ctx, []model.Location{delhi, south, north, other}); err != nil {
		t.Fatalf("UpsertLocations: %v", err)
	}

	states, err := s.GetLocations(ctx, model.LocationState, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 1 || states[0] != delhi {
		t.Errorf("states = %+v", states)
	}

	districts, err := s.GetLocations(ctx, model.LocationDistrict, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(districts) != 2 || districts[0].Name != "North Delhi" {
		t.Errorf("districts = %+v", districts)
	}
}

func TestSQLiteStore_Notifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	older := model.Notification{Kind: model.NotifyInfo, Title: "New issue", IssueID: "a",
		CreatedAt: time.Now().Add(-time.Hour)}
	newer := model.Notification{ID: "n2", Kind: model.NotifySuccess, Title: "Status updated",
		CreatedAt: time.Now()}
	for _, n := range []model.Notification{older, newer} {
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}

	all, err := s.GetNotifications(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != "n2" || all[1].ID == "" || all[1].IssueID != "a" {
		t.Fatalf("notifications = %+v", all)
	}

	if err := s.MarkNotificationRead(ctx, "n2"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.UnreadCount(ctx); n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}
	unread, err := s.GetNotifications(ctx, true)
	if err != nil || len(unread) != 1 || unread[0].Read {
		t.Errorf("unread = %+v, %v", unread, err)
	}

	if err := s.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.UnreadCount(ctx); n != 0 {
		t.Errorf("unread after mark all = %d", n)
	}

	if err := s.DeleteNotification(ctx, "n2"); err != nil {
		t.Fatal(err)
	}
	if all, _ := s.GetNotifications(ctx, false); len(all) != 1 {
		t.Errorf("after delete = %d", len(all))
	}
	if err := s.ClearNotifications(ctx); err != nil {
		t.Fatal(err)
	}
	if all, _ := s.GetNotifications(ctx, false); len(all) != 0 {
		t.Errorf("after clear = %d", len(all))
	}
}

func TestSQLiteStore_LastSynced(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if got, err := s.LastSynced(ctx); err != nil || !got.IsZero() {
		t.Fatalf("fresh store = %v, %v", got, err)
	}
	when := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	if err := s.SetLastSynced(ctx, when); err != nil {
		t.Fatal(err)
	}
	if got, err := s.LastSynced(ctx); err != nil || !got.Equal(when) {
		t.Errorf("LastSynced = %v, %v", got, err)
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "civic.db")
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.SeedIssues(t, s, testutil.Issue("a", 0, 0))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Migrations must be skipped on the second open.
	s, err = store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s.Close()
	known, err := s.KnownIssueIDs(context.Background())
	if err != nil || len(known) != 1 {
		t.Errorf("known = %v, %v", known, err)
	}
}

func ids(issues []model.Issue) string {
	out := ""
	for i, is := range issues {
		if i > 0 {
			out += ","
		}
		out += is.ID
	}
	return out
}
