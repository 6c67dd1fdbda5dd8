package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/medalist/internal/adapters/repository"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/report"
	"github.com/okian/medalist/internal/domain/rowerr"
	"github.com/okian/medalist/internal/domain/types"
)

const csvContentType = "text/csv; charset=utf-8"

// ExportAthletes renders the athletes with ids as CSV. An empty profile
// selects the default. Unknown ids fail with NotFound listing them.
func (s *Service) ExportAthletes(ctx context.Context, ids []int64, profile report.Profile) (*types.Export, error) {
	athletes, err := s.exportAthletes(ctx, ids)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := report.NewExporter(s.exportProfile(profile)).Athletes(&buf, athletes); err != nil {
		return nil, fmt.Errorf("export athletes: %w", err)
	}
	return s.export(len(ids), buf.Bytes()), nil
}

// ExportPerformances renders every performance of the athletes with ids as
// CSV, including the age band of the discipline.
func (s *Service) ExportPerformances(ctx context.Context, ids []int64, profile report.Profile) (*types.Export, error) {
	athletes, err := s.exportAthletes(ctx, ids)
	if err != nil {
		return nil, err
	}
	checks, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	var lines []report.PerformanceLine
	for _, a := range athletes {
		sctx, cancel := s.storeCtx(ctx)
		perfs, err := s.store.ListPerformances(sctx, repository.PerformanceFilter{AthleteID: a.ID})
		cancel()
		if err != nil {
			return nil, requestErr(err)
		}
		for _, p := range perfs {
			line := report.PerformanceLine{Athlete: a, Performance: p}
			if c, ok := checks.gate.Criteria(p.Discipline); ok {
				line.Criteria = &c
			}
			lines = append(lines, line)
		}
	}

	var buf bytes.Buffer
	if err := report.NewExporter(s.exportProfile(profile)).Performances(&buf, lines); err != nil {
		return nil, fmt.Errorf("export performances: %w", err)
	}
	return s.export(len(ids), buf.Bytes()), nil
}

func (s *Service) exportAthletes(ctx context.Context, ids []int64) ([]model.Athlete, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, rowerr.New(rowerr.MissingFields, "ids must not be empty").With("fields", []string{"ids"})
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	athletes, err := s.store.AthletesByIDs(sctx, ids)
	if err != nil {
		return nil, requestErr(err)
	}

	found := make(map[int64]struct{}, len(athletes))
	for _, a := range athletes {
		found[a.ID] = struct{}{}
	}
	var missing []int64
	var parts []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
			parts = append(parts, strconv.FormatInt(id, 10))
		}
	}
	if len(missing) > 0 {
		return nil, rowerr.New(rowerr.NotFound, "athletes not found: %s", strings.Join(parts, ", ")).
			With("ids", missing)
	}
	return athletes, nil
}

func (s *Service) exportProfile(p report.Profile) report.Profile {
	if p == "" {
		return s.profile
	}
	return p
}

func (s *Service) export(n int, data []byte) *types.Export {
	prefix := "single-export"
	if n > 1 {
		prefix = "bulk-export"
	}
	return &types.Export{
		Filename:    fmt.Sprintf("%s-%d.csv", prefix, s.now().UnixMilli()),
		ContentType: csvContentType,
		Data:        data,
	}
}
