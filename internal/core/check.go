package core

import "time"

type CheckSeverity string

const (
	SeverityCritical  CheckSeverity = "critical"
	SeverityWarning   CheckSeverity = "warning"
	SeverityInfo      CheckSeverity = "info"
	SeverityUnchanged CheckSeverity = "unchanged"
	SeverityAdded     CheckSeverity = "added"
	SeverityRemoved   CheckSeverity = "removed"
)

// NoChange is the display string the rule engine emits for a field
// that did not move.
const NoChange = "No change"

// CheckResult is one rule-engine finding about a single policy field.
// Everything except the review fields is write-once at ingestion; the
// review fields are toggled only through ReviewService.SetReviewed.
type CheckResult struct {
	RuleID      string        `json:"rule_id"`
	Category    string        `json:"category"`
	Field       string        `json:"field"`
	Severity    CheckSeverity `json:"severity"`
	Message     string        `json:"message"`
	Change      string        `json:"change"`                 // display string, e.g. "+$120" or "No change"
	AgentAction string        `json:"agent_action,omitempty"` // suggested phrasing for the agent
	Reviewed    bool          `json:"reviewed"`
	ReviewedBy  string        `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
}

// Reviewable reports whether this finding requires acknowledgement.
// Unchanged fields never do.
func (c CheckResult) Reviewable() bool {
	return c.Severity != SeverityUnchanged
}

// CheckSummary aggregates the rule engine's blocking findings for one
// comparison.
type CheckSummary struct {
	PipelineHalted bool     `json:"pipeline_halted"`
	BlockerRuleIDs []string `json:"blocker_rule_ids,omitempty"`
}
