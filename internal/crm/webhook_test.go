package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mdelaney/renewal-ops/internal/core"
)

func TestWebhookNotifier_MoveStage(t *testing.T) {
	var gotKey, gotAPIKey string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotAPIKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "secret")
	ev := StageEvent{
		ComparisonID: "cmp-1",
		PolicyNumber: "HO3-1",
		Status:       core.StatusCompleted,
		OccurredAt:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}

	if err := n.MoveStage(context.Background(), ev); err != nil {
		t.Fatalf("move stage: %v", err)
	}

	if gotKey != "cmp-1:completed" {
		t.Errorf("idempotency key = %q, want cmp-1:completed", gotKey)
	}
	if gotAPIKey != "secret" {
		t.Errorf("api key header = %q", gotAPIKey)
	}
	if gotBody["idempotency_key"] != "cmp-1:completed" {
		t.Errorf("body idempotency_key = %v", gotBody["idempotency_key"])
	}
	if gotBody["comparison_id"] != "cmp-1" {
		t.Errorf("body comparison_id = %v", gotBody["comparison_id"])
	}
}

func TestWebhookNotifier_ConflictIsReplaySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "")
	if err := n.MoveStage(context.Background(), StageEvent{ComparisonID: "cmp-1", Status: core.StatusCompleted}); err != nil {
		t.Errorf("409 should count as a successful replay, got %v", err)
	}
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "")
	if err := n.MoveStage(context.Background(), StageEvent{ComparisonID: "cmp-1", Status: core.StatusCompleted}); err == nil {
		t.Errorf("5xx should surface an error")
	}
}
