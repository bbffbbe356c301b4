package core

import (
	"context"
	"fmt"
	"time"
)

type ReviewService interface {
	// SetReviewed toggles the acknowledgement state of one check
	// result. Independent of the decision workflow: it never changes
	// the comparison status or decision.
	SetReviewed(ctx context.Context, comparisonID string, input ReviewToggleInput) (RenewalComparison, error)
}

type ReviewToggleInput struct {
	RuleID     string `json:"rule_id"`
	Field      string `json:"field"`
	Reviewed   bool   `json:"reviewed"`
	ActingUser string `json:"acting_user"`
}

func (in ReviewToggleInput) Validate() error {
	if in.RuleID == "" {
		return fmt.Errorf("%w: rule ID is required", ErrValidation)
	}
	if in.Reviewed && in.ActingUser == "" {
		return fmt.Errorf("%w: acting user is required to mark a check reviewed", ErrValidation)
	}
	return nil
}

type reviewService struct {
	repo  ComparisonRepo
	clock func() time.Time
}

func NewReviewService(repo ComparisonRepo) ReviewService {
	return &reviewService{repo: repo, clock: time.Now}
}

func (s *reviewService) SetReviewed(ctx context.Context, comparisonID string, input ReviewToggleInput) (RenewalComparison, error) {
	if comparisonID == "" {
		return RenewalComparison{}, fmt.Errorf("%w: missing comparison ID", ErrValidation)
	}
	if err := input.Validate(); err != nil {
		return RenewalComparison{}, err
	}

	// 1) Load the comparison and locate the check
	c, err := s.repo.Get(ctx, comparisonID)
	if err != nil {
		return RenewalComparison{}, err
	}

	idx := -1
	for i, cr := range c.Checks {
		if cr.RuleID == input.RuleID && cr.Field == input.Field {
			idx = i
			break
		}
	}
	if idx == -1 {
		return RenewalComparison{}, ErrCheckNotFound
	}
	if !c.Checks[idx].Reviewable() {
		return RenewalComparison{}, fmt.Errorf("%w: check %s is not reviewable", ErrValidation, input.RuleID)
	}

	// 2) Apply optimistically to the in-memory view
	prior := c.Checks[idx]
	now := s.clock()
	c.Checks[idx].Reviewed = input.Reviewed
	if input.Reviewed {
		c.Checks[idx].ReviewedBy = input.ActingUser
		c.Checks[idx].ReviewedAt = &now
	} else {
		c.Checks[idx].ReviewedBy = ""
		c.Checks[idx].ReviewedAt = nil
	}
	c.UpdatedAt = now

	// 3) Persist; a failed write must leave no partial application, so
	// the local view is rolled back before the error is surfaced
	var by string
	var at *time.Time
	if input.Reviewed {
		by = input.ActingUser
		at = &now
	}
	if err := s.repo.SetCheckReview(ctx, comparisonID, input.RuleID, input.Field, input.Reviewed, by, at, now); err != nil {
		c.Checks[idx] = prior
		return c, fmt.Errorf("persist check review: %w", err)
	}

	return c, nil
}
