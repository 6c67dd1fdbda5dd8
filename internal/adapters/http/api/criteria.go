package api

import (
	"context"
	"net/http"

	"github.com/okian/medalist/internal/domain/model"
)

// CriteriaDependencies covers GET /criteria.
type CriteriaDependencies interface {
	ListCriteria(ctx context.Context) ([]model.MedalCriteria, error)
}

// CriteriaHandler lists the configured medal criteria.
type CriteriaHandler struct {
	deps CriteriaDependencies
}

// NewCriteriaHandler creates a new criteria handler.
func NewCriteriaHandler(deps CriteriaDependencies) *CriteriaHandler {
	return &CriteriaHandler{deps: deps}
}

// HandleList handles GET /criteria.
func (h *CriteriaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.deps.ListCriteria(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if criteria == nil {
		criteria = []model.MedalCriteria{}
	}
	writeJSON(w, http.StatusOK, criteria)
}
