package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mdelaney/renewal-ops/internal/core"
	"github.com/mdelaney/renewal-ops/pkg/problem"
)

type ReviewHandler struct {
	Svc core.ReviewService
	Log *slog.Logger
}

func NewReviewHandler(svc core.ReviewService, log *slog.Logger) *ReviewHandler {
	return &ReviewHandler{Svc: svc, Log: log}
}

func (h *ReviewHandler) Mount(r chi.Router) {
	r.Post("/comparisons/{comparison_id}/checks:review", h.SetReviewed)
}

// SetReviewed toggles the acknowledgement state of one check result.
// 200: updated comparison; 400: validation; 404: comparison or check
// not found; 500: internal error.
func (h *ReviewHandler) SetReviewed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	var input core.ReviewToggleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid Body", "Request body must be valid JSON.")
		return
	}

	c, err := h.Svc.SetReviewed(r.Context(), id, input)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode comparison", "comparison_id", id, "err", err)
	}
}
