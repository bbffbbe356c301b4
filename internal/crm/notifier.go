// Package crm carries renewal pipeline stage moves to the agency's
// CRM. The CRM's own stage-mapping protocol is out of scope here; this
// package only guarantees that every status transition is delivered
// with a stable idempotency key so replays are safe.
package crm

import (
	"context"
	"time"

	"github.com/mdelaney/renewal-ops/internal/core"
)

// StageEvent is one observed status transition on a comparison.
type StageEvent struct {
	ComparisonID string                `json:"comparison_id"`
	PolicyNumber string                `json:"policy_number"`
	Status       core.ComparisonStatus `json:"status"`
	OccurredAt   time.Time             `json:"occurred_at"`
}

// Key is the idempotency key for this event: replaying the same
// transition for the same comparison is a no-op on the CRM side.
func (e StageEvent) Key() string {
	return e.ComparisonID + ":" + string(e.Status)
}

type Notifier interface {
	MoveStage(ctx context.Context, ev StageEvent) error
}

// Nop is used when no CRM webhook is configured.
type Nop struct{}

func (Nop) MoveStage(context.Context, StageEvent) error { return nil }
