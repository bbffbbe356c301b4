package core

import (
	"context"
	"time"
)

// memRepo is an in-memory ComparisonRepo for service tests. It mirrors
// the store-level write conditions: duplicate IDs are rejected, a
// second final decision fails with ErrDecisionConflict, and cancel only
// applies to pending comparisons.
type memRepo struct {
	items map[string]RenewalComparison
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]RenewalComparison)}
}

func (r *memRepo) clone(c RenewalComparison) RenewalComparison {
	out := c
	out.Checks = append([]CheckResult(nil), c.Checks...)
	out.Changes = append([]MaterialChange(nil), c.Changes...)
	out.DecisionHistory = append([]Decision(nil), c.DecisionHistory...)
	if c.Decision != nil {
		d := *c.Decision
		out.Decision = &d
	}
	return out
}

func (r *memRepo) Create(_ context.Context, c RenewalComparison) error {
	if _, ok := r.items[c.ID]; ok {
		return ErrComparisonExists
	}
	r.items[c.ID] = r.clone(c)
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (RenewalComparison, error) {
	c, ok := r.items[id]
	if !ok {
		return RenewalComparison{}, ErrComparisonNotFound
	}
	return r.clone(c), nil
}

func (r *memRepo) List(_ context.Context, filter ComparisonFilter, limit, offset int) ([]RenewalComparison, int64, error) {
	var out []RenewalComparison
	for _, c := range r.items {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Line != "" && c.Line != filter.Line {
			continue
		}
		out = append(out, r.clone(c))
	}
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *memRepo) SetCheckReview(_ context.Context, id, ruleID, field string, reviewed bool, by string, at *time.Time, updatedAt time.Time) error {
	c, ok := r.items[id]
	if !ok {
		return ErrComparisonNotFound
	}
	for i, cr := range c.Checks {
		if cr.RuleID == ruleID && cr.Field == field {
			c.Checks[i].Reviewed = reviewed
			c.Checks[i].ReviewedBy = by
			c.Checks[i].ReviewedAt = at
			c.UpdatedAt = updatedAt
			r.items[id] = c
			return nil
		}
	}
	return ErrCheckNotFound
}

func (r *memRepo) RecordDecision(_ context.Context, id string, d Decision, from, to ComparisonStatus) error {
	c, ok := r.items[id]
	if !ok {
		return ErrComparisonNotFound
	}
	if c.Status.Terminal() || c.Status != from {
		return ErrDecisionConflict
	}
	if c.Decision != nil && !c.Decision.Kind.Recoverable() {
		return ErrDecisionConflict
	}
	c.Decision = &d
	c.DecisionHistory = append(c.DecisionHistory, d)
	c.Status = to
	if from != to {
		c.StatusSynced = false
	}
	c.UpdatedAt = d.DecidedAt
	r.items[id] = c
	return nil
}

func (r *memRepo) Cancel(_ context.Context, id string, now time.Time) error {
	c, ok := r.items[id]
	if !ok {
		return ErrComparisonNotFound
	}
	if c.Status != StatusPending {
		return ErrInvalidState
	}
	c.Status = StatusCancelled
	c.StatusSynced = false
	c.UpdatedAt = now
	r.items[id] = c
	return nil
}

func (r *memRepo) FindUnsynced(_ context.Context, limit int) ([]RenewalComparison, error) {
	var out []RenewalComparison
	for _, c := range r.items {
		if !c.StatusSynced {
			out = append(out, r.clone(c))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memRepo) MarkSynced(_ context.Context, id string, status ComparisonStatus) error {
	c, ok := r.items[id]
	if !ok {
		return ErrComparisonNotFound
	}
	if c.Status != status {
		return nil
	}
	c.StatusSynced = true
	r.items[id] = c
	return nil
}
