package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mdelaney/renewal-ops/internal/core"
	"github.com/mdelaney/renewal-ops/pkg/problem"
)

type DecisionHandler struct {
	Svc core.DecisionService
	Log *slog.Logger
}

func NewDecisionHandler(svc core.DecisionService, log *slog.Logger) *DecisionHandler {
	return &DecisionHandler{Svc: svc, Log: log}
}

func (h *DecisionHandler) Mount(r chi.Router) {
	r.Post("/comparisons/{comparison_id}/decisions", h.Record)
}

// Record appends an agent decision to a comparison.
// 201: updated comparison; 400: validation; 409: conflict (already
// decided) or gating violation; 404: not found; 500: internal error.
func (h *DecisionHandler) Record(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "comparison_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Comparison ID", "Path parameter comparison_id is required.")
		return
	}

	var input core.DecisionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid Body", "Request body must be valid JSON.")
		return
	}

	c, err := h.Svc.RecordDecision(r.Context(), id, input)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Log.Error("failed to encode comparison", "comparison_id", id, "err", err)
	}
}
