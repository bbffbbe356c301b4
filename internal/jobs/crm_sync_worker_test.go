package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mdelaney/renewal-ops/internal/core"
	"github.com/mdelaney/renewal-ops/internal/crm"
)

type recordingNotifier struct {
	keys []string
	fail map[string]bool
}

func (n *recordingNotifier) MoveStage(_ context.Context, ev crm.StageEvent) error {
	if n.fail[ev.ComparisonID] {
		return errors.New("crm unavailable")
	}
	n.keys = append(n.keys, ev.Key())
	return nil
}

// syncRepo implements just enough of core.ComparisonRepo for the
// worker: a set of unsynced comparisons and a record of acknowledged
// replays.
type syncRepo struct {
	unsynced []core.RenewalComparison
	marked   []string
}

func (r *syncRepo) FindUnsynced(_ context.Context, limit int) ([]core.RenewalComparison, error) {
	if len(r.unsynced) > limit {
		return r.unsynced[:limit], nil
	}
	return r.unsynced, nil
}

func (r *syncRepo) MarkSynced(_ context.Context, id string, _ core.ComparisonStatus) error {
	r.marked = append(r.marked, id)
	return nil
}

func (r *syncRepo) Create(context.Context, core.RenewalComparison) error { return nil }
func (r *syncRepo) Get(context.Context, string) (core.RenewalComparison, error) {
	return core.RenewalComparison{}, core.ErrComparisonNotFound
}
func (r *syncRepo) List(context.Context, core.ComparisonFilter, int, int) ([]core.RenewalComparison, int64, error) {
	return nil, 0, nil
}
func (r *syncRepo) SetCheckReview(context.Context, string, string, string, bool, string, *time.Time, time.Time) error {
	return nil
}
func (r *syncRepo) RecordDecision(context.Context, string, core.Decision, core.ComparisonStatus, core.ComparisonStatus) error {
	return nil
}
func (r *syncRepo) Cancel(context.Context, string, time.Time) error { return nil }

func TestReplayUnsynced(t *testing.T) {
	repo := &syncRepo{unsynced: []core.RenewalComparison{
		{ID: "cmp-1", PolicyNumber: "HO3-1", Status: core.StatusCompleted},
		{ID: "cmp-2", PolicyNumber: "PA-2", Status: core.StatusRequoteRequested},
	}}
	notifier := &recordingNotifier{}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewCRMSyncWorker(repo, notifier, time.Second, log)

	if err := w.replayUnsynced(context.Background()); err != nil {
		t.Fatalf("replay: %v", err)
	}

	wantKeys := []string{"cmp-1:completed", "cmp-2:requote_requested"}
	if len(notifier.keys) != 2 || notifier.keys[0] != wantKeys[0] || notifier.keys[1] != wantKeys[1] {
		t.Errorf("delivered keys = %v, want %v", notifier.keys, wantKeys)
	}
	if len(repo.marked) != 2 {
		t.Errorf("marked = %v, want both comparisons acknowledged", repo.marked)
	}
}

func TestReplayUnsynced_DeliveryFailureSkipsAck(t *testing.T) {
	repo := &syncRepo{unsynced: []core.RenewalComparison{
		{ID: "cmp-1", Status: core.StatusCompleted},
		{ID: "cmp-2", Status: core.StatusCompleted},
	}}
	notifier := &recordingNotifier{fail: map[string]bool{"cmp-1": true}}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewCRMSyncWorker(repo, notifier, time.Second, log)

	if err := w.replayUnsynced(context.Background()); err != nil {
		t.Fatalf("replay: %v", err)
	}

	// cmp-1 failed to deliver, so only cmp-2 is acknowledged; cmp-1
	// stays unsynced for the next poll.
	if len(repo.marked) != 1 || repo.marked[0] != "cmp-2" {
		t.Errorf("marked = %v, want only cmp-2", repo.marked)
	}
}
