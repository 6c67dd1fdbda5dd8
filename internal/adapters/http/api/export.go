package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/medalist/internal/domain/report"
	"github.com/okian/medalist/internal/domain/types"
)

// ExportDependencies covers the export routes.
type ExportDependencies interface {
	ExportAthletes(ctx context.Context, ids []int64, profile report.Profile) (*types.Export, error)
	ExportPerformances(ctx context.Context, ids []int64, profile report.Profile) (*types.Export, error)
}

// ExportHandler renders CSV downloads.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// exportRequest selects athletes by id. Ids may be a single number or a
// list.
type exportRequest struct {
	IDs     json.RawMessage `json:"ids"`
	Profile string          `json:"profile"`
}

// HandleAthletes handles POST /export/athletes.
func (h *ExportHandler) HandleAthletes(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.deps.ExportAthletes)
}

// HandlePerformances handles POST /export/performances.
func (h *ExportHandler) HandlePerformances(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.deps.ExportPerformances)
}

func (h *ExportHandler) handle(w http.ResponseWriter, r *http.Request,
	export func(context.Context, []int64, report.Profile) (*types.Export, error),
) {
	ids, profile, err := parseExportRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := export(r.Context(), ids, profile)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func parseExportRequest(r *http.Request) ([]int64, report.Profile, error) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", badRequest("invalid JSON body: %v", err)
	}
	ids, err := parseIDs(req.IDs)
	if err != nil {
		return nil, "", err
	}

	name := req.Profile
	if v := r.URL.Query().Get("profile"); v != "" {
		name = v
	}
	if name == "" {
		return ids, "", nil
	}
	profile, err := report.ParseProfile(name)
	if err != nil {
		return nil, "", badRequest("%v", err)
	}
	return ids, profile, nil
}

func parseIDs(raw json.RawMessage) ([]int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var one int64
	if err := json.Unmarshal(raw, &one); err == nil {
		return []int64{one}, nil
	}
	var many []int64
	if err := json.Unmarshal(raw, &many); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, badRequest("ids must be a number or a list of numbers")
		}
		return nil, badRequest("invalid ids: %v", err)
	}
	return many, nil
}
