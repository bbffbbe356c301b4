package core

import (
	"context"
	"fmt"
	"time"
)

type DecisionService interface {
	// RecordDecision validates a decision against the current phase
	// and review progress, then appends it. The backing store enforces
	// at-most-one final decision per comparison: a second finalizing
	// write fails with ErrDecisionConflict and the caller must reload
	// the authoritative state rather than retry.
	RecordDecision(ctx context.Context, comparisonID string, input DecisionInput) (RenewalComparison, error)
}

type decisionService struct {
	repo  ComparisonRepo
	clock func() time.Time
}

func NewDecisionService(repo ComparisonRepo) DecisionService {
	return &decisionService{repo: repo, clock: time.Now}
}

func (s *decisionService) RecordDecision(ctx context.Context, comparisonID string, input DecisionInput) (RenewalComparison, error) {
	if comparisonID == "" {
		return RenewalComparison{}, fmt.Errorf("%w: missing comparison ID", ErrValidation)
	}

	// 1) Validate the submission itself (never reaches persistence on
	// failure)
	if err := input.Validate(); err != nil {
		return RenewalComparison{}, err
	}

	// 2) Load current state and derive the phase gate
	c, err := s.repo.Get(ctx, comparisonID)
	if err != nil {
		return RenewalComparison{}, err
	}

	phase := PhaseOf(c.Status, c.Decision)
	progress := ReviewProgress(c.Checks, c.Changes)

	if err := s.checkAllowed(phase, progress, input.Kind); err != nil {
		return RenewalComparison{}, err
	}

	// 3) Conditional write; the store rejects a second final decision
	now := s.clock()
	d := Decision{
		Kind:      input.Kind,
		Notes:     input.Notes,
		DecidedBy: input.ActingUser,
		DecidedAt: now,
	}
	newStatus := input.Kind.statusAfter(c.Status)

	if err := s.repo.RecordDecision(ctx, comparisonID, d, c.Status, newStatus); err != nil {
		return RenewalComparison{}, err
	}

	// 4) Return the authoritative state
	return s.repo.Get(ctx, comparisonID)
}

// checkAllowed is the server-side mirror of the UI's action gating.
func (s *decisionService) checkAllowed(phase DecisionPhase, progress int, kind DecisionKind) error {
	switch phase {
	case PhaseClosed:
		return ErrComparisonClosed
	case PhaseLocked:
		return ErrDecisionConflict
	}

	for _, allowed := range AvailableActions(phase, progress) {
		if allowed == kind {
			return nil
		}
	}

	if phase == PhasePreReshop && kind == DecisionRenewAsIs && progress < 100 {
		return ErrReviewIncomplete
	}
	return fmt.Errorf("%w: %s is not available in the %s phase", ErrInvalidState, kind, phase)
}
