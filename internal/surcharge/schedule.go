// Package surcharge holds the claim surcharge schedule: how many
// calendar years each claim type counts toward the renewal rating
// surcharge before falling off.
package surcharge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultYears applies to any claim type without a schedule entry.
const DefaultYears = 3

type Schedule struct {
	Default int            `yaml:"default_years"`
	ByType  map[string]int `yaml:"by_type"`
}

// Default returns the built-in schedule: every claim type surcharges
// for three years.
func DefaultSchedule() Schedule {
	return Schedule{Default: DefaultYears}
}

// Load reads a YAML schedule file, e.g.
//
//	default_years: 3
//	by_type:
//	  at_fault_accident: 5
//	  glass: 1
func Load(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read surcharge schedule: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Schedule, error) {
	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schedule{}, fmt.Errorf("parse surcharge schedule: %w", err)
	}
	if s.Default <= 0 {
		s.Default = DefaultYears
	}
	// Keys are normalized here so a schedule written as
	// "At Fault Accident:" matches the same lookups as
	// "at_fault_accident:".
	byType := make(map[string]int, len(s.ByType))
	for t, y := range s.ByType {
		if y <= 0 {
			return Schedule{}, fmt.Errorf("surcharge schedule: %q must be a positive year count, got %d", t, y)
		}
		byType[normalize(t)] = y
	}
	s.ByType = byType
	return s, nil
}

// YearsFor returns the surcharge window for a claim type. Matching is
// case-insensitive on the normalized type name.
func (s Schedule) YearsFor(claimType string) int {
	if y, ok := s.ByType[normalize(claimType)]; ok {
		return y
	}
	if s.Default > 0 {
		return s.Default
	}
	return DefaultYears
}

func normalize(t string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(t), " ", "_"))
}
