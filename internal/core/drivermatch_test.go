package core

import (
	"testing"
	"time"
)

func TestMatchesDriver(t *testing.T) {
	tests := []struct {
		description string
		driver      string
		want        bool
	}{
		{"Driver added: Marcus Harrell", "Marcus Harrell", true},
		{"Driver added: Marcus Harrell", "Renee Harrell", false},
		{"Marcus", "Marcus Harrell", true}, // single-token description matches on one shared token
		{"Driver added", "Marcus Harrell", false},
		{"", "Marcus Harrell", false},
		{"driver added: MARCUS harrell", "Marcus Harrell", true},
	}

	for _, tc := range tests {
		if got := MatchesDriver(tc.description, tc.driver); got != tc.want {
			t.Errorf("MatchesDriver(%q, %q) = %v, want %v", tc.description, tc.driver, got, tc.want)
		}
	}
}

func TestAgeInYears(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		dob  time.Time
		want int
	}{
		{time.Date(2007, 3, 1, 0, 0, 0, 0, time.UTC), 18},
		{time.Date(1999, 6, 15, 0, 0, 0, 0, time.UTC), 26},
		{time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 0}, // future birth date clamps to zero
	}

	for _, tc := range tests {
		if got := AgeInYears(tc.dob, now); got != tc.want {
			t.Errorf("AgeInYears(%s) = %d, want %d", tc.dob.Format("2006-01-02"), got, tc.want)
		}
	}
}
