// Package validate holds the field checks shared by the TUI forms.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinPasswordLength is the shortest password the forms accept.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Required returns a check that rejects blank input.
func Required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// MinLength returns a check that rejects input shorter than n runes after
// trimming.
func MinLength(field string, n int) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		if len([]rune(s)) < n {
			return fmt.Errorf("%s must be at least %d characters", field, n)
		}
		return nil
	}
}

func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if !emailPattern.MatchString(s) {
		return fmt.Errorf("email is invalid")
	}
	return nil
}

func Password(s string) error {
	if s == "" {
		return fmt.Errorf("password is required")
	}
	if len(s) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Matches returns a check that the input equals *other at validation time.
func Matches(other *string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("please confirm your password")
		}
		if s != *other {
			return fmt.Errorf("passwords must match")
		}
		return nil
	}
}

// Latitude accepts a decimal in [-90, 90].
func Latitude(s string) error {
	return coordinate(s, "latitude", 90)
}

// Longitude accepts a decimal in [-180, 180].
func Longitude(s string) error {
	return coordinate(s, "longitude", 180)
}

func coordinate(s, name string, limit float64) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("%s must be a number", name)
	}
	if v < -limit || v > limit {
		return fmt.Errorf("%s must be between %g and %g", name, -limit, limit)
	}
	return nil
}

// PositiveFloat accepts a number greater than zero.
func PositiveFloat(field string) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("%s must be a positive number", field)
		}
		return nil
	}
}

// SplitList splits a comma separated field, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
