package core

import (
	"testing"
	"time"
)

var agingNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestAgeClaim_Statuses(t *testing.T) {
	tests := []struct {
		name       string
		claimDate  string
		years      int
		wantStatus AgingStatus
		wantMonths int
	}{
		// Fell off five days before now.
		{"expired", "2022-06-10", 3, AgingExpired, 0},
		// Falls off in five days.
		{"about to fall off", "2022-06-20", 3, AgingNearFalloff, 1},
		// Falls off 2026-06-15, exactly 365 days out: ceil lands on 12.
		{"twelve month boundary", "2023-06-15", 3, AgingNearFalloff, 12},
		// Falls off 2027-01-01, about 19 months out.
		{"approaching", "2024-01-01", 3, AgingApproaching, 19},
		// Falls off 2028-01-01, about 31 months out.
		{"active", "2025-01-01", 3, AgingActive, 31},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AgeClaim(tc.claimDate, tc.years, agingNow)
			if got == nil {
				t.Fatalf("AgeClaim returned nil for parseable date %q", tc.claimDate)
			}
			if got.Status != tc.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tc.wantStatus)
			}
			if got.MonthsRemaining != tc.wantMonths {
				t.Errorf("months remaining = %d, want %d", got.MonthsRemaining, tc.wantMonths)
			}
		})
	}
}

func TestAgeClaim_ProgressClamped(t *testing.T) {
	expired := AgeClaim("2015-01-01", 3, agingNow)
	if expired.ProgressPercent != 100 {
		t.Errorf("expired progress = %f, want 100", expired.ProgressPercent)
	}

	future := AgeClaim("2026-01-01", 3, agingNow)
	if future.ProgressPercent != 0 {
		t.Errorf("future claim progress = %f, want 0", future.ProgressPercent)
	}

	partial := AgeClaim("2024-06-15", 3, agingNow)
	if partial.ProgressPercent <= 0 || partial.ProgressPercent >= 100 {
		t.Errorf("mid-window progress = %f, want between 0 and 100", partial.ProgressPercent)
	}
}

func TestAgeClaim_FallOffDate(t *testing.T) {
	got := AgeClaim("2023-08-17", 5, agingNow)
	want := time.Date(2028, 8, 17, 0, 0, 0, 0, time.UTC)
	if !got.FallOffDate.Equal(want) {
		t.Errorf("fall off = %s, want %s", got.FallOffDate, want)
	}
}

func TestAgeClaim_DefaultYears(t *testing.T) {
	got := AgeClaim("2023-08-17", 0, agingNow)
	want := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	if !got.FallOffDate.Equal(want) {
		t.Errorf("zero years should fall back to %d: fall off = %s", DefaultSurchargeYears, got.FallOffDate)
	}
}

func TestAgeClaim_DateFormats(t *testing.T) {
	for _, date := range []string{
		"2023-08-17",
		"2023-08-17T00:00:00Z",
		"08/17/2023",
		"2023-08-17 14:22:01",
	} {
		if got := AgeClaim(date, 3, agingNow); got == nil {
			t.Errorf("AgeClaim(%q) = nil, want parsed timeline", date)
		}
	}

	for _, date := range []string{"", "not-a-date", "17.08.2023"} {
		if got := AgeClaim(date, 3, agingNow); got != nil {
			t.Errorf("AgeClaim(%q) = %+v, want nil", date, got)
		}
	}
}
