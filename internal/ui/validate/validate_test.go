package validate

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"asha@city.gov.in", true},
		{"  a@b.co ", true},
		{"", false},
		{"asha", false},
		{"asha@city", false},
		{"a sha@city.in", false},
	}
	for _, tt := range tests {
		if err := Email(tt.in); (err == nil) != tt.valid {
			t.Errorf("Email(%q) = %v, want valid=%v", tt.in, err, tt.valid)
		}
	}
}

func TestPassword(t *testing.T) {
	if Password("") == nil || Password("12345") == nil {
		t.Error("short passwords accepted")
	}
	if err := Password("123456"); err != nil {
		t.Errorf("six characters rejected: %v", err)
	}
}

func TestMatches(t *testing.T) {
	pw := "secret1"
	check := Matches(&pw)
	if err := check("secret1"); err != nil {
		t.Errorf("equal passwords: %v", err)
	}
	pw = "changed"
	if check("secret1") == nil {
		t.Error("check must read the current password value")
	}
	if check("") == nil {
		t.Error("empty confirmation accepted")
	}
}

func TestMinLength(t *testing.T) {
	check := MinLength("name", 2)
	if check(" a ") == nil {
		t.Error("one rune accepted")
	}
	if err := check("Ré"); err != nil {
		t.Errorf("two runes rejected: %v", err)
	}
}

func TestCoordinates(t *testing.T) {
	for _, s := range []string{"28.6139", "-90", "90", "0"} {
		if err := Latitude(s); err != nil {
			t.Errorf("Latitude(%q): %v", s, err)
		}
	}
	for _, s := range []string{"90.01", "abc", ""} {
		if Latitude(s) == nil {
			t.Errorf("Latitude(%q) accepted", s)
		}
	}
	if Longitude("180") != nil || Longitude("-180.5") == nil {
		t.Error("longitude range wrong")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" pothole, ,main road,")
	want := []string{"pothole", "main road"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
	if SplitList("") != nil {
		t.Error("empty input should yield nil")
	}
}
