package core

import (
	"context"
	"fmt"
	"time"
)

// RenewalComparison is the aggregate root of the review workspace: one
// renewal term queued for an agent's decision, with its baseline term
// (absent for first-term policies), the detector and rule-engine
// output, and the decision trail. Mutable only through check-review
// toggles and decision recording; never deleted, only transitioned to
// a terminal status.
type RenewalComparison struct {
	ID             string           `json:"id"`
	PolicyNumber   string           `json:"policy_number"`
	LineOfBusiness string           `json:"line_of_business"`
	Line           LineKind         `json:"line"`
	Baseline       *PolicySnapshot  `json:"baseline,omitempty"`
	Renewal        PolicySnapshot   `json:"renewal"`
	Changes        []MaterialChange `json:"changes"`
	Checks         []CheckResult    `json:"checks"`
	Summary        CheckSummary     `json:"summary"`

	// Derived at ingestion; nil when no baseline exists (renewal-only,
	// surfaced as an informational state rather than an error).
	PremiumChangePercent *float64 `json:"premium_change_percent,omitempty"`
	PremiumChangeAmount  *float64 `json:"premium_change_amount,omitempty"`

	Status          ComparisonStatus `json:"status"`
	StatusSynced    bool             `json:"status_synced"` // false while a stage move awaits CRM replay
	Decision        *Decision        `json:"decision,omitempty"`
	DecisionHistory []Decision       `json:"decision_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PremiumDelta derives the percent/amount pair for a baseline and
// renewal premium. Both are nil without a baseline, and percent is
// also nil when the baseline premium is zero (no meaningful ratio).
func PremiumDelta(baseline *PolicySnapshot, renewal PolicySnapshot) (pct, amount *float64) {
	if baseline == nil {
		return nil, nil
	}
	diff := renewal.Premium - baseline.Premium
	amount = &diff
	if baseline.Premium != 0 {
		p := diff / baseline.Premium * 100
		pct = &p
	}
	return pct, amount
}

// pctOrZero feeds the classifier, which treats an undefined percent as
// a flat premium.
func (c *RenewalComparison) pctOrZero() float64 {
	if c.PremiumChangePercent == nil {
		return 0
	}
	return *c.PremiumChangePercent
}

func (c *RenewalComparison) amountOrZero() float64 {
	if c.PremiumChangeAmount == nil {
		return 0
	}
	return *c.PremiumChangeAmount
}

type ComparisonFilter struct {
	Status ComparisonStatus
	Line   LineKind
}

type ComparisonRepo interface {
	Create(ctx context.Context, c RenewalComparison) error
	Get(ctx context.Context, id string) (RenewalComparison, error)
	List(ctx context.Context, filter ComparisonFilter, limit, offset int) ([]RenewalComparison, int64, error)

	// SetCheckReview updates exactly the review fields of the check
	// identified by ruleID+field.
	SetCheckReview(ctx context.Context, id, ruleID, field string, reviewed bool, by string, at *time.Time, updatedAt time.Time) error

	// RecordDecision appends a decision and moves the status from one
	// stage to another, but only if no final decision exists yet;
	// otherwise ErrDecisionConflict. The synced flag is cleared for
	// CRM replay only when the stage actually changes: a decision that
	// leaves the comparison where it was queues nothing.
	RecordDecision(ctx context.Context, id string, d Decision, from, to ComparisonStatus) error

	// Cancel transitions a pending comparison to cancelled.
	Cancel(ctx context.Context, id string, now time.Time) error

	// FindUnsynced returns comparisons whose latest stage move has not
	// been replayed to the CRM, and MarkSynced acknowledges one replay
	// (conditional on the status still matching, so a concurrent later
	// move is never masked).
	FindUnsynced(ctx context.Context, limit int) ([]RenewalComparison, error)
	MarkSynced(ctx context.Context, id string, status ComparisonStatus) error
}

var (
	ErrComparisonNotFound = fmt.Errorf("%w: renewal comparison not found", ErrNotFound)
	ErrComparisonExists   = fmt.Errorf("%w: renewal comparison already exists", ErrConflict)
	ErrCheckNotFound      = fmt.Errorf("%w: check result not found", ErrNotFound)
)
