package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/medalist/internal/domain/types"
)

// ScoreDependencies covers POST /scores.
type ScoreDependencies interface {
	SubmitScore(ctx context.Context, sub types.ScoreSubmission) (types.PerformanceView, types.Status, error)
}

// ScoreHandler records single scores.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

type scoreResponse struct {
	Status      types.Status          `json:"status"`
	Performance types.PerformanceView `json:"performance"`
}

// HandleSubmit handles POST /scores. It answers 201 for a new performance
// and 200 for a forced overwrite.
func (h *ScoreHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub types.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, r, badRequest("invalid JSON body: %v", err))
		return
	}
	view, status, err := h.deps.SubmitScore(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code := http.StatusOK
	if status == types.StatusCreated {
		code = http.StatusCreated
	}
	writeJSON(w, code, scoreResponse{Status: status, Performance: view})
}
