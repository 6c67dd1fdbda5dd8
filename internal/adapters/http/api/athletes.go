package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/medalist/internal/domain/decode"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/types"
)

// AthleteDependencies covers the athlete routes.
type AthleteDependencies interface {
	ImportAthletes(ctx context.Context, r io.Reader, f decode.Format) (*types.ImportResult, error)
	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	Athlete(ctx context.Context, id int64) (model.Athlete, error)
	UpdateAthlete(ctx context.Context, id int64, upd types.AthleteUpdate) (model.Athlete, error)
	DeleteAthlete(ctx context.Context, id int64) error
}

// AthleteHandler serves /athletes.
type AthleteHandler struct {
	deps     AthleteDependencies
	maxBytes int64
}

// NewAthleteHandler creates a new athlete handler.
func NewAthleteHandler(deps AthleteDependencies, maxBytes int64) *AthleteHandler {
	return &AthleteHandler{deps: deps, maxBytes: maxBytes}
}

// HandleImport handles POST /athletes.
func (h *AthleteHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer up.close()

	res, err := h.deps.ImportAthletes(r.Context(), up.body, up.format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeImport(w, res)
}

// HandleList handles GET /athletes.
func (h *AthleteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.deps.ListAthletes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if athletes == nil {
		athletes = []model.Athlete{}
	}
	writeJSON(w, http.StatusOK, athletes)
}

// HandleGet handles GET /athletes/{id}.
func (h *AthleteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.deps.Athlete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleUpdate handles PUT /athletes/{id}.
func (h *AthleteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var upd types.AthleteUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, r, badRequest("invalid JSON body: %v", err))
		return
	}
	a, err := h.deps.UpdateAthlete(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete handles DELETE /athletes/{id}.
func (h *AthleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.DeleteAthlete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

// writeImport answers 201 when at least one record was written.
func writeImport(w http.ResponseWriter, res *types.ImportResult) {
	status := http.StatusOK
	if res.SuccessCount > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}
