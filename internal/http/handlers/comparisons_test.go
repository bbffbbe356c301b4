package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	transporthttp "github.com/mdelaney/renewal-ops/internal/http"
	"github.com/mdelaney/renewal-ops/internal/http/handlers"

	"github.com/mdelaney/renewal-ops/internal/core"
)

// stubComparisonService serves one canned comparison under the ID
// "cmp-1"; anything else is not found.
type stubComparisonService struct {
	comparison core.RenewalComparison
}

func (s *stubComparisonService) Ingest(_ context.Context, input core.IngestInput) (core.RenewalComparison, error) {
	if err := input.Validate(); err != nil {
		return core.RenewalComparison{}, err
	}
	c := s.comparison
	c.PolicyNumber = input.PolicyNumber
	return c, nil
}

func (s *stubComparisonService) Get(_ context.Context, id string) (core.RenewalComparison, error) {
	if id != s.comparison.ID {
		return core.RenewalComparison{}, core.ErrComparisonNotFound
	}
	return s.comparison, nil
}

func (s *stubComparisonService) List(_ context.Context, _ core.ComparisonFilter, limit, offset int) ([]core.RenewalComparison, int64, error) {
	return []core.RenewalComparison{s.comparison}, 1, nil
}

func (s *stubComparisonService) Reasons(ctx context.Context, id string) (core.ReasonView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return core.ReasonView{}, err
	}
	return core.ReasonView{
		Reasons: []core.Reason{{Tag: core.ReasonRateIncrease, Color: core.ColorRed}},
		Summary: "Premium increased $470 due to Rate Increase",
	}, nil
}

func (s *stubComparisonService) Aging(ctx context.Context, id string) ([]core.ClaimAgingView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *stubComparisonService) Review(ctx context.Context, id string) (core.ReviewView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return core.ReviewView{}, err
	}
	return core.ReviewView{ReviewableCount: 3, ReviewedCount: 2, Progress: 67}, nil
}

func (s *stubComparisonService) Actions(ctx context.Context, id string) (core.ActionsView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return core.ActionsView{}, err
	}
	return core.ActionsView{Phase: core.PhasePreReshop, Actions: []core.DecisionKind{core.DecisionReshop}, Progress: 67}, nil
}

func (s *stubComparisonService) Cancel(ctx context.Context, id string) (core.RenewalComparison, error) {
	return s.Get(ctx, id)
}

// stubDecisionService always reports a decision race.
type stubDecisionService struct{}

func (stubDecisionService) RecordDecision(_ context.Context, _ string, input core.DecisionInput) (core.RenewalComparison, error) {
	if err := input.Validate(); err != nil {
		return core.RenewalComparison{}, err
	}
	return core.RenewalComparison{}, core.ErrDecisionConflict
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &stubComparisonService{comparison: core.RenewalComparison{
		ID:           "cmp-1",
		PolicyNumber: "HO3-4481920",
		Line:         core.LineHome,
		Status:       core.StatusPending,
		Renewal:      core.PolicySnapshot{Premium: 2310},
	}}

	router := transporthttp.NewRouter(transporthttp.Deps{
		Mounts: []handlers.Mountable{
			handlers.NewComparisonHandler(svc, log),
			handlers.NewDecisionHandler(stubDecisionService{}, log),
		},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetComparison(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/comparisons/cmp-1")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	var c core.RenewalComparison
	if err := json.NewDecoder(res.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.PolicyNumber != "HO3-4481920" {
		t.Errorf("policy number = %q", c.PolicyNumber)
	}
}

func TestGetComparison_NotFound(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/comparisons/nope")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q, want problem+json", ct)
	}
	var prob struct {
		Title  string `json:"title"`
		Status int    `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&prob); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if prob.Title != "Not Found" || prob.Status != http.StatusNotFound {
		t.Errorf("problem = %+v", prob)
	}
}

func TestListComparisons_Envelope(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/comparisons?status=pending&limit=5")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	var page struct {
		Items  []core.RenewalComparison `json:"items"`
		Total  int64                    `json:"total"`
		Limit  int                      `json:"limit"`
		Offset int                      `json:"offset"`
	}
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Errorf("page = %+v", page)
	}
	if page.Limit != 5 {
		t.Errorf("limit = %d, want 5", page.Limit)
	}
}

func TestIngest_BadBody(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Post(srv.URL+"/comparisons", "application/json", bytes.NewBufferString("{not json"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
}

func TestIngest_Created(t *testing.T) {
	srv := newTestServer(t)

	body := bytes.NewBufferString(`{"policy_number":"PA-77","line_of_business":"Personal Auto","renewal":{"premium":1500}}`)
	res, err := http.Post(srv.URL+"/comparisons", "application/json", body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", res.StatusCode)
	}
}

func TestRecordDecision_Conflict(t *testing.T) {
	srv := newTestServer(t)

	body := bytes.NewBufferString(`{"kind":"renew_as_is","acting_user":"mona"}`)
	res, err := http.Post(srv.URL+"/comparisons/cmp-1/decisions", "application/json", body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", res.StatusCode)
	}
	var prob struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(res.Body).Decode(&prob); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if prob.Title != "Decision Already Recorded" {
		t.Errorf("title = %q, want the decision conflict problem", prob.Title)
	}
}
