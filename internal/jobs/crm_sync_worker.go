package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/mdelaney/renewal-ops/internal/core"
	"github.com/mdelaney/renewal-ops/internal/crm"
)

// CRMSyncWorker replays unsynced status transitions to the CRM
// pipeline. Delivery is at-least-once: the event's idempotency key
// makes a duplicate replay a no-op on the CRM side, and MarkSynced is
// conditional on the status so a transition that races this worker is
// picked up on the next poll.
type CRMSyncWorker struct {
	BaseWorker
	comparisons core.ComparisonRepo
	notifier    crm.Notifier
}

func NewCRMSyncWorker(
	comparisons core.ComparisonRepo,
	notifier crm.Notifier,
	interval time.Duration,
	log *slog.Logger,
) *CRMSyncWorker {
	return &CRMSyncWorker{
		BaseWorker:  NewBaseWorker("crm-sync", interval, log),
		comparisons: comparisons,
		notifier:    notifier,
	}
}

// Start begins the worker polling loop.
func (w *CRMSyncWorker) Start(ctx context.Context) {
	w.Poll(ctx, w.replayUnsynced)
}

// Name returns the worker name.
func (w *CRMSyncWorker) Name() string {
	return w.name
}

func (w *CRMSyncWorker) replayUnsynced(ctx context.Context) error {
	pending, err := w.comparisons.FindUnsynced(ctx, 10)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	w.log.Info("found unsynced stage moves", "count", len(pending))

	for _, c := range pending {
		ev := crm.StageEvent{
			ComparisonID: c.ID,
			PolicyNumber: c.PolicyNumber,
			Status:       c.Status,
			OccurredAt:   c.UpdatedAt,
		}

		if err := w.notifier.MoveStage(ctx, ev); err != nil {
			w.log.Error("failed to push stage move",
				"comparison_id", c.ID,
				"status", c.Status,
				"err", err,
			)
			continue
		}

		if err := w.comparisons.MarkSynced(ctx, c.ID, c.Status); err != nil {
			w.log.Error("failed to mark stage move synced",
				"comparison_id", c.ID,
				"status", c.Status,
				"err", err,
			)
			continue
		}

		w.log.Info("stage move synced", "comparison_id", c.ID, "status", c.Status)
	}

	return nil
}
