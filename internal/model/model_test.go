package model

import (
	"encoding/json"
	"testing"
)

func TestPriority_Rank(t *testing.T) {
	for _, tc := range []struct {
		p    Priority
		want int
	}{
		{PriorityLow, 1},
		{PriorityMedium, 2},
		{PriorityHigh, 3},
		{PriorityCritical, 4},
		{Priority("urgent"), 0},
	} {
		if got := tc.p.Rank(); got != tc.want {
			t.Errorf("Priority(%q).Rank() = %d, want %d", tc.p, got, tc.want)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseCategory("water"); err != nil {
		t.Errorf("ParseCategory(water): %v", err)
	}
	if _, err := ParseCategory("lava"); err == nil {
		t.Error("ParseCategory(lava) should fail")
	}
	if got, err := ParseStatus("in-progress"); err != nil || got != StatusInProgress {
		t.Errorf("ParseStatus(in-progress) = %q, %v", got, err)
	}
	if _, err := ParseStatus("in_progress"); err == nil {
		t.Error("ParseStatus(in_progress) should fail")
	}
	if _, err := ParsePriority("critical"); err != nil {
		t.Errorf("ParsePriority(critical): %v", err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("ParseRole(superuser) should fail")
	}
	if len(Categories) != 8 || len(Priorities) != 4 || len(Statuses) != 5 {
		t.Errorf("enum sizes = %d/%d/%d, want 8/4/5", len(Categories), len(Priorities), len(Statuses))
	}
}

func TestRole_Capabilities(t *testing.T) {
	for _, tc := range []struct {
		role          Role
		manageUsers   bool
		updateStatus  bool
		deleteIssues  bool
		reportIssues  bool
	}{
		{RoleAdmin, true, true, true, true},
		{RoleDepartment, false, true, false, true},
		{RoleUser, false, false, false, true},
		{Role(""), false, false, false, false},
	} {
		c := tc.role.Capabilities()
		if c.ManageUsers != tc.manageUsers {
			t.Errorf("%q ManageUsers = %v, want %v", tc.role, c.ManageUsers, tc.manageUsers)
		}
		if c.UpdateStatus != tc.updateStatus {
			t.Errorf("%q UpdateStatus = %v, want %v", tc.role, c.UpdateStatus, tc.updateStatus)
		}
		if c.DeleteIssues != tc.deleteIssues {
			t.Errorf("%q DeleteIssues = %v, want %v", tc.role, c.DeleteIssues, tc.deleteIssues)
		}
		if c.ReportIssues != tc.reportIssues {
			t.Errorf("%q ReportIssues = %v, want %v", tc.role, c.ReportIssues, tc.reportIssues)
		}
	}
}

func TestBounds_ContainsInclusive(t *testing.T) {
	b := Bounds{North: 29, South: 28, East: 78, West: 77}
	for _, tc := range []struct {
		name string
		p    LatLng
		want bool
	}{
		{"inside", LatLng{28.5, 77.5}, true},
		{"north edge", LatLng{29, 77.5}, true},
		{"south edge", LatLng{28, 77.5}, true},
		{"west edge", LatLng{28.5, 77}, true},
		{"east edge", LatLng{28.5, 78}, true},
		{"corner", LatLng{29, 77}, true},
		{"above", LatLng{29.0001, 77.5}, false},
		{"left", LatLng{28.5, 76.9999}, false},
	} {
		if got := b.Contains(tc.p); got != tc.want {
			t.Errorf("%s: Contains(%v) = %v, want %v", tc.name, tc.p, got, tc.want)
		}
	}
}

func TestIssue_Votes(t *testing.T) {
	var is Issue
	body := `{"_id":"i1","title":"Pothole","category":"road","priority":"high",
		"status":"pending","latitude":28.6,"longitude":77.2,
		"upvotes":["u1","u2"],"downvotes":["u3"],"reportedBy":{"_id":"u1","name":"Asha"}}`
	if err := json.Unmarshal([]byte(body), &is); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if is.VoteScore() != 1 {
		t.Errorf("VoteScore = %d, want 1", is.VoteScore())
	}
	if is.VotedBy("u2") != "upvote" || is.VotedBy("u3") != "downvote" || is.VotedBy("u9") != "" {
		t.Errorf("VotedBy mismatch")
	}
	if is.ReportedBy.Name != "Asha" {
		t.Errorf("ReportedBy.Name = %q", is.ReportedBy.Name)
	}
}

func TestUser_Merge(t *testing.T) {
	u := User{ID: "u1", Name: "Old", Email: "a@b.c", Role: RoleUser}
	name := "New"
	got := u.Merge(UserPatch{Name: &name})
	if got.Name != "New" || got.Email != "a@b.c" || got.Role != RoleUser {
		t.Errorf("Merge = %+v", got)
	}
	if u.Name != "Old" {
		t.Error("Merge mutated receiver")
	}
}

func TestRefs_AcceptBareID(t *testing.T) {
	var issue Issue
	data := `{"_id":"i1","reportedBy":{"_id":"u1","name":"Asha"},"assignedTo":"u2","department":"d9"}`
	if err := json.Unmarshal([]byte(data), &issue); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if issue.ReportedBy.Name != "Asha" || issue.ReportedBy.ID != "u1" {
		t.Errorf("reportedBy = %+v", issue.ReportedBy)
	}
	if issue.AssignedTo == nil || issue.AssignedTo.ID != "u2" {
		t.Errorf("assignedTo = %+v", issue.AssignedTo)
	}
	if issue.Department == nil || issue.Department.ID != "d9" {
		t.Errorf("department = %+v", issue.Department)
	}
}
