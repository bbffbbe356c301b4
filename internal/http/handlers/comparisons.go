package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mdelaney/renewal-ops/internal/core"
	"github.com/mdelaney/renewal-ops/pkg/problem"
)

type ComparisonHandler struct {
	Svc core.ComparisonService
	Log *slog.Logger
}

func NewComparisonHandler(svc core.ComparisonService, log *slog.Logger) *ComparisonHandler {
	return &ComparisonHandler{Svc: svc, Log: log}
}

func (h *ComparisonHandler) Mount(r chi.Router) {
	r.Route("/comparisons", func(r chi.Router) {
		r.Post("/", h.Ingest)
		r.Get("/", h.List)
		r.Get("/{comparison_id}", h.Get)
		r.Get("/{comparison_id}/reasons", h.Reasons)
		r.Get("/{comparison_id}/aging", h.Aging)
		r.Get("/{comparison_id}/review", h.Review)
		r.Get("/{comparison_id}/actions", h.Actions)
		r.Post("/{comparison_id}:cancel", h.Cancel)
	})
}

// Ingest creates a comparison from normalized snapshots plus detector
// and rule-engine output.
// 201: JSON; 400: validation; 409: duplicate; 500: internal error.
func (h *ComparisonHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var input core.IngestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid Body", "Request body must be valid JSON.")
		return
	}

	c, err := h.Svc.Ingest(r.Context(), input)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode comparison", "err", err)
	}
}

// List returns the review queue with optional filtering and pagination.
// 200: JSON; 500: internal error.
func (h *ComparisonHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := core.ComparisonFilter{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = core.ComparisonStatus(status)
	}
	if line := r.URL.Query().Get("line"); line != "" {
		filter.Line = core.LineKind(line)
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	comparisons, total, err := h.Svc.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list comparisons")
		return
	}

	// Return empty array instead of null
	if comparisons == nil {
		comparisons = []core.RenewalComparison{}
	}

	response := map[string]interface{}{
		"items":  comparisons,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.Log.Error("failed to encode comparisons", "err", err)
	}
}

// Get retrieves a comparison by ID.
// 200: JSON; 400: missing ID; 404: not found; 500: internal error.
func (h *ComparisonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get comparison")
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode comparison", "comparison_id", id, "err", err)
	}
}

// Reasons returns the derived premium-change reasons and summary line.
// 200: JSON; 404: not found; 500: internal error.
func (h *ComparisonHandler) Reasons(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	view, err := h.Svc.Reasons(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to classify reasons")
		return
	}

	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.Log.Error("failed to encode reasons", "comparison_id", id, "err", err)
	}
}

// Aging returns the surcharge decay timeline per claim.
// 200: JSON; 404: not found; 500: internal error.
func (h *ComparisonHandler) Aging(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	views, err := h.Svc.Aging(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to compute claim aging")
		return
	}

	if views == nil {
		views = []core.ClaimAgingView{}
	}
	if err := json.NewEncoder(w).Encode(views); err != nil {
		h.Log.Error("failed to encode aging", "comparison_id", id, "err", err)
	}
}

// Review returns acknowledgement progress.
// 200: JSON; 404: not found; 500: internal error.
func (h *ComparisonHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	view, err := h.Svc.Review(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to compute review progress")
		return
	}

	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.Log.Error("failed to encode review progress", "comparison_id", id, "err", err)
	}
}

// Actions returns the decision actions currently offered.
// 200: JSON; 404: not found; 500: internal error.
func (h *ComparisonHandler) Actions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	view, err := h.Svc.Actions(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to resolve actions")
		return
	}

	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.Log.Error("failed to encode actions", "comparison_id", id, "err", err)
	}
}

// Cancel transitions a pending comparison to cancelled.
// 200: JSON; 404: not found; 409: not pending; 500: internal error.
func (h *ComparisonHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	c, err := h.Svc.Cancel(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode comparison", "comparison_id", id, "err", err)
	}
}
