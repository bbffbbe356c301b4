package core

import "math"

// ReviewableChecks returns the findings an agent must acknowledge.
func ReviewableChecks(checks []CheckResult) []CheckResult {
	var out []CheckResult
	for _, c := range checks {
		if c.Reviewable() {
			out = append(out, c)
		}
	}
	return out
}

// ReviewProgress is the single source of truth for review completion,
// as a whole percentage. Empty-reviewable policy: a comparison with no
// reviewable findings and no material changes is 100% (a clean renewal
// needs no acknowledgement); no reviewable findings but outstanding
// material changes is 0% (the rule engine has not produced anything to
// acknowledge yet, so approval stays blocked).
func ReviewProgress(checks []CheckResult, changes []MaterialChange) int {
	reviewable := ReviewableChecks(checks)
	if len(reviewable) == 0 {
		if len(changes) == 0 {
			return 100
		}
		return 0
	}

	reviewed := 0
	for _, c := range reviewable {
		if c.Reviewed {
			reviewed++
		}
	}
	return int(math.Round(float64(reviewed) / float64(len(reviewable)) * 100))
}
