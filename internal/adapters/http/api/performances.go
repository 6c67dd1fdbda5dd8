package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/medalist/internal/adapters/repository"
	"github.com/okian/medalist/internal/domain/decode"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/types"
)

// PerformanceDependencies covers the performance routes.
type PerformanceDependencies interface {
	ImportPerformances(ctx context.Context, r io.Reader, f decode.Format, force bool) (*types.ImportResult, error)
	ListPerformances(ctx context.Context, f repository.PerformanceFilter) ([]types.PerformanceView, error)
}

// PerformanceHandler serves /performances.
type PerformanceHandler struct {
	deps     PerformanceDependencies
	maxBytes int64
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(deps PerformanceDependencies, maxBytes int64) *PerformanceHandler {
	return &PerformanceHandler{deps: deps, maxBytes: maxBytes}
}

// HandleImport handles POST /performances. The force flag is read from
// the query string or the multipart form.
func (h *PerformanceHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer up.close()

	force, err := parseFlag(up.form("force"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.deps.ImportPerformances(r.Context(), up.body, up.format, force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeImport(w, res)
}

// HandleList handles GET /performances?athleteId=&discipline=&year=.
func (h *PerformanceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	f, err := performanceFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := h.deps.ListPerformances(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if views == nil {
		views = []types.PerformanceView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func performanceFilter(r *http.Request) (repository.PerformanceFilter, error) {
	q := r.URL.Query()
	var f repository.PerformanceFilter
	if v := q.Get("athleteId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, badRequest("invalid athleteId %q", v)
		}
		f.AthleteID = id
	}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, badRequest("invalid year %q", v)
		}
		f.Year = year
	}
	if v := strings.TrimSpace(q.Get("discipline")); v != "" {
		f.Discipline = model.Discipline(strings.ToUpper(v))
	}
	return f, nil
}
