package core

import (
	"strings"
	"time"
)

const youngDriverAgeCutoff = 26

// hoursPerYear uses the mean Gregorian year so ages line up with the
// claims aging window arithmetic.
const hoursPerYear = 365.25 * 24

// MatchesDriver reports whether a change description and a driver name
// look like the same person. It is a token-overlap heuristic: both
// strings are lowercased and split on whitespace, and a match requires
// at least min(2, len(description tokens)) shared tokens. Shared
// surnames can misfire; callers that need stronger identity matching
// should swap this function out rather than touching the reason rules.
func MatchesDriver(description, driverName string) bool {
	descTokens := nameTokens(description)
	if len(descTokens) == 0 {
		return false
	}
	need := 2
	if len(descTokens) < need {
		need = len(descTokens)
	}

	overlap := 0
	for tok := range nameTokens(driverName) {
		if _, ok := descTokens[tok]; ok {
			overlap++
			if overlap >= need {
				return true
			}
		}
	}
	return false
}

// AgeInYears returns whole calendar years between dateOfBirth and now.
func AgeInYears(dateOfBirth, now time.Time) int {
	if now.Before(dateOfBirth) {
		return 0
	}
	return int(now.Sub(dateOfBirth).Hours() / hoursPerYear)
}

// isYoungDriver reports whether the added-driver description matches a
// renewal driver with a known date of birth who is under the young
// driver cutoff.
func isYoungDriver(description string, drivers []Driver, now time.Time) bool {
	for _, d := range drivers {
		if d.DateOfBirth == nil {
			continue
		}
		if MatchesDriver(description, d.Name) && AgeInYears(*d.DateOfBirth, now) < youngDriverAgeCutoff {
			return true
		}
	}
	return false
}

func nameTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}
