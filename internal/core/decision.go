package core

import (
	"fmt"
	"time"
)

type DecisionKind string
type ComparisonStatus string
type DecisionPhase string

const (
	DecisionRenewAsIs       DecisionKind = "renew_as_is"
	DecisionReshop          DecisionKind = "reshop"
	DecisionNeedsMoreInfo   DecisionKind = "needs_more_info"
	DecisionContactCustomer DecisionKind = "contact_customer"
	DecisionNoBetterOption  DecisionKind = "no_better_option"
	DecisionBoundNewPolicy  DecisionKind = "bound_new_policy"
)

// ComparisonStatus mirrors the external CRM pipeline stage for the
// renewal. Transitions: pending → (requote_requested | quote_ready) →
// completed, or pending → cancelled. completed/cancelled are terminal.
const (
	StatusPending          ComparisonStatus = "pending"
	StatusRequoteRequested ComparisonStatus = "requote_requested"
	StatusQuoteReady       ComparisonStatus = "quote_ready"
	StatusCompleted        ComparisonStatus = "completed"
	StatusCancelled        ComparisonStatus = "cancelled"
)

const (
	// PhasePreReshop offers renew-as-is (gated on review progress),
	// reshop, and flag.
	PhasePreReshop DecisionPhase = "pre_reshop"
	// PhasePostReshop offers only the reshop resolutions.
	PhasePostReshop DecisionPhase = "post_reshop"
	// PhaseLocked means a final, non-recoverable decision exists but
	// the status has not reached a terminal stage yet.
	PhaseLocked DecisionPhase = "locked"
	// PhaseClosed means the comparison reached a terminal status and
	// is read-only.
	PhaseClosed DecisionPhase = "closed"
)

// Decision is an agent's disposition of a renewal. Decisions are
// appended; recording a new one never rewrites history.
type Decision struct {
	Kind      DecisionKind `json:"kind"`
	Notes     string       `json:"notes,omitempty"`
	DecidedBy string       `json:"decided_by"`
	DecidedAt time.Time    `json:"decided_at"`
}

var (
	ErrDecisionConflict = fmt.Errorf("%w: a final decision was already recorded", ErrConflict)
	ErrReviewIncomplete = fmt.Errorf("%w: all check results must be reviewed before renewing as-is", ErrInvalidState)
	ErrComparisonClosed = fmt.Errorf("%w: comparison is read-only", ErrInvalidState)
)

// recoverable decision kinds leave the comparison open for another
// decision; anything else is final.
var recoverableKinds = map[DecisionKind]bool{
	DecisionNeedsMoreInfo:   true,
	DecisionContactCustomer: true,
	DecisionReshop:          true,
}

// RecoverableDecisionKinds lists the kinds that do not finalize a
// comparison, for stores that enforce the at-most-one-final-decision
// rule in their write condition.
func RecoverableDecisionKinds() []DecisionKind {
	return []DecisionKind{DecisionNeedsMoreInfo, DecisionContactCustomer, DecisionReshop}
}

func (k DecisionKind) Recoverable() bool { return recoverableKinds[k] }

// RequiresNotes reports whether a decision kind is invalid without
// agent notes (reshop rationale, flag reason, or the bound policy
// number).
func (k DecisionKind) RequiresNotes() bool {
	switch k {
	case DecisionReshop, DecisionNeedsMoreInfo, DecisionBoundNewPolicy:
		return true
	}
	return false
}

// statusAfter returns the pipeline stage a decision moves the
// comparison to, or the current stage when the decision leaves it
// unchanged.
func (k DecisionKind) statusAfter(current ComparisonStatus) ComparisonStatus {
	switch k {
	case DecisionRenewAsIs, DecisionNoBetterOption, DecisionBoundNewPolicy:
		return StatusCompleted
	case DecisionReshop:
		return StatusRequoteRequested
	default:
		return current
	}
}

func (s ComparisonStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PhaseOf derives the workflow phase from the comparison's status and
// current decision. Evaluated in order: terminal status wins, then the
// post-reshop markers, then a lingering final decision.
func PhaseOf(status ComparisonStatus, current *Decision) DecisionPhase {
	if status.Terminal() {
		return PhaseClosed
	}
	if status == StatusRequoteRequested || status == StatusQuoteReady {
		return PhasePostReshop
	}
	if current != nil {
		if current.Kind == DecisionReshop {
			return PhasePostReshop
		}
		if !current.Kind.Recoverable() {
			return PhaseLocked
		}
	}
	return PhasePreReshop
}

// AvailableActions is the transition table of phase and review
// progress: which decision kinds an agent may record right now.
// renew_as_is appears only at 100% review progress; the post-reshop
// phase offers only its two resolutions; locked and closed
// comparisons offer nothing.
func AvailableActions(phase DecisionPhase, reviewProgress int) []DecisionKind {
	switch phase {
	case PhasePreReshop:
		actions := []DecisionKind{}
		if reviewProgress >= 100 {
			actions = append(actions, DecisionRenewAsIs)
		}
		return append(actions, DecisionReshop, DecisionNeedsMoreInfo)
	case PhasePostReshop:
		return []DecisionKind{DecisionNoBetterOption, DecisionBoundNewPolicy}
	default:
		return nil
	}
}

// DecisionInput is an agent's decision submission.
type DecisionInput struct {
	Kind       DecisionKind `json:"kind"`
	Notes      string       `json:"notes"`
	ActingUser string       `json:"acting_user"`
}

func (in DecisionInput) Validate() error {
	switch in.Kind {
	case DecisionRenewAsIs, DecisionReshop, DecisionNeedsMoreInfo,
		DecisionContactCustomer, DecisionNoBetterOption, DecisionBoundNewPolicy:
	default:
		return fmt.Errorf("%w: unknown decision kind %q", ErrValidation, in.Kind)
	}
	if in.Kind.RequiresNotes() && in.Notes == "" {
		return fmt.Errorf("%w: notes are required for %s", ErrValidation, in.Kind)
	}
	if in.ActingUser == "" {
		return fmt.Errorf("%w: acting user is required", ErrValidation)
	}
	return nil
}
