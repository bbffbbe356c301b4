package core

import (
	"math"
	"time"
)

type AgingStatus string

const (
	AgingActive      AgingStatus = "active"
	AgingApproaching AgingStatus = "approaching"
	AgingNearFalloff AgingStatus = "near_falloff"
	AgingExpired     AgingStatus = "expired"
)

// DefaultSurchargeYears applies when no surcharge schedule entry
// covers a claim's type.
const DefaultSurchargeYears = 3

// daysPerMonth is the mean Gregorian month, matching hoursPerYear.
const daysPerMonth = 30.44

// ClaimAging is the decay timeline of one dated claim against its
// rating surcharge window.
type ClaimAging struct {
	ClaimDate       time.Time   `json:"claim_date"`
	FallOffDate     time.Time   `json:"fall_off_date"`
	MonthsRemaining int         `json:"months_remaining"`
	ProgressPercent float64     `json:"progress_percent"`
	Status          AgingStatus `json:"status"`
}

var claimDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// AgeClaim computes the surcharge decay timeline for one claim date.
// Returns nil when the date does not parse; callers skip that claim
// instead of failing the whole computation.
func AgeClaim(claimDate string, surchargeYears int, now time.Time) *ClaimAging {
	parsed, ok := parseClaimDate(claimDate)
	if !ok {
		return nil
	}
	if surchargeYears <= 0 {
		surchargeYears = DefaultSurchargeYears
	}

	fallOff := parsed.AddDate(surchargeYears, 0, 0)
	totalWindow := float64(surchargeYears) * hoursPerYear
	elapsed := now.Sub(parsed).Hours()
	remaining := fallOff.Sub(now)

	monthsRemaining := 0
	if remaining > 0 {
		monthsRemaining = int(math.Ceil(remaining.Hours() / (daysPerMonth * 24)))
	}

	progress := elapsed / totalWindow * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	var status AgingStatus
	switch {
	case remaining <= 0:
		status = AgingExpired
	case monthsRemaining <= 12:
		status = AgingNearFalloff
	case monthsRemaining <= 24:
		status = AgingApproaching
	default:
		status = AgingActive
	}

	return &ClaimAging{
		ClaimDate:       parsed,
		FallOffDate:     fallOff,
		MonthsRemaining: monthsRemaining,
		ProgressPercent: progress,
		Status:          status,
	}
}

func parseClaimDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range claimDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
