package surcharge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	s, err := Parse([]byte("default_years: 4\nby_type:\n  at_fault_accident: 5\n  glass: 1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Default != 4 {
		t.Errorf("default = %d, want 4", s.Default)
	}
	if got := s.YearsFor("at_fault_accident"); got != 5 {
		t.Errorf("at_fault_accident = %d, want 5", got)
	}
	if got := s.YearsFor("comprehensive"); got != 4 {
		t.Errorf("unlisted type = %d, want the default 4", got)
	}
}

func TestParse_MissingDefault(t *testing.T) {
	s, err := Parse([]byte("by_type:\n  glass: 1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Default != DefaultYears {
		t.Errorf("default = %d, want the built-in %d", s.Default, DefaultYears)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("by_type:\n  glass: -2\n")); err == nil {
		t.Errorf("negative year count should be rejected")
	}
	if _, err := Parse([]byte("by_type: [unclosed")); err == nil {
		t.Errorf("malformed yaml should be rejected")
	}
}

func TestYearsFor_Normalization(t *testing.T) {
	s, err := Parse([]byte("by_type:\n  at_fault_accident: 5\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, name := range []string{"At Fault Accident", "AT_FAULT_ACCIDENT", "  at fault accident  "} {
		if got := s.YearsFor(name); got != 5 {
			t.Errorf("YearsFor(%q) = %d, want 5", name, got)
		}
	}
}

func TestParse_NormalizesKeys(t *testing.T) {
	// Schedules written with display-style keys match the same lookups
	// as ones written with canonical keys.
	s, err := Parse([]byte("by_type:\n  At Fault Accident: 5\n  GLASS: 1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := s.YearsFor("at_fault_accident"); got != 5 {
		t.Errorf("at_fault_accident = %d, want 5", got)
	}
	if got := s.YearsFor("glass"); got != 1 {
		t.Errorf("glass = %d, want 1", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	if err := os.WriteFile(path, []byte("default_years: 3\nby_type:\n  glass: 1\n"), 0o644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.YearsFor("glass"); got != 1 {
		t.Errorf("glass = %d, want 1", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing file should error")
	}
}
