package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/medalist/internal/adapters/repository"
	"github.com/okian/medalist/internal/domain/decode"
	"github.com/okian/medalist/internal/domain/dedupe"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/report"
	"github.com/okian/medalist/internal/domain/rowerr"
	"github.com/okian/medalist/internal/domain/types"
	"github.com/okian/medalist/internal/domain/validate"
	"github.com/okian/medalist/pkg/logger"
	"github.com/okian/medalist/pkg/metrics"
)

// Row outcomes and batch results used as metric labels.
const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"

	resultCompleted = "completed"
	resultRejected  = "rejected"
	resultAborted   = "aborted"
	resultCanceled  = "canceled"
)

// batch tracks one import from decoding to the result.
type batch struct {
	id    string
	kind  types.RecordKind
	start time.Time
	rows  int
	agg   *report.Aggregator
	log   logger.Logger
}

// pending is a row that passed validation and the dedupe barrier.
type pending[T any] struct {
	row  decode.RawRow
	item T
}

// ImportAthletes creates one athlete per row. Rows whose email already
// exists fail with DuplicateEntry; athletes are never overwritten.
func (s *Service) ImportAthletes(ctx context.Context, r io.Reader, f decode.Format) (*types.ImportResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, b, parsed, err := s.open(ctx, types.RecordAthlete, r, f, validate.AthleteFields)
	if err != nil {
		return nil, err
	}

	tracker := dedupe.New(dedupe.WithCapacity(len(parsed.Rows)))
	var valid []pending[model.Athlete]
	for _, row := range parsed.Rows {
		a, err := s.validator.Athlete(row)
		if err != nil {
			b.fail(ctx, row, err)
			continue
		}
		tracker.SeenAndRecord(dedupe.AthleteKey(a.Email), row.Index)
		valid = append(valid, pending[model.Athlete]{row: row, item: a})
	}
	valid = barrier(ctx, b, tracker, valid)

	records, err := runRows(ctx, s, b, valid, func(ctx context.Context, p pending[model.Athlete]) (types.Record, error) {
		return s.createAthlete(ctx, p.item)
	})
	return s.close(ctx, b, records, err)
}

// ImportPerformances stores one performance per row. The athlete is
// resolved by name and birthdate. Existing results fail with
// DuplicateEntry unless force is set, in which case value and medal are
// overwritten.
func (s *Service) ImportPerformances(ctx context.Context, r io.Reader, f decode.Format, force bool) (*types.ImportResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	checks, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}
	ctx, b, parsed, err := s.open(ctx, types.RecordPerformance, r, f, validate.PerformanceFields)
	if err != nil {
		return nil, err
	}

	tracker := dedupe.New(dedupe.WithCapacity(len(parsed.Rows)))
	var valid []pending[validate.PerformanceRow]
	for _, row := range parsed.Rows {
		pr, err := s.validator.Performance(row)
		if err != nil {
			b.fail(ctx, row, err)
			continue
		}
		tracker.SeenAndRecord(dedupe.PerformanceKey(pr.Athlete, pr.Discipline, pr.Date), row.Index)
		valid = append(valid, pending[validate.PerformanceRow]{row: row, item: pr})
	}
	valid = barrier(ctx, b, tracker, valid)

	records, err := runRows(ctx, s, b, valid, func(ctx context.Context, p pending[validate.PerformanceRow]) (types.Record, error) {
		athlete, err := s.resolveAthlete(ctx, p.item.Athlete)
		if err != nil {
			return types.Record{}, err
		}
		perf := model.Performance{
			AthleteID:  athlete.ID,
			Discipline: p.item.Discipline,
			Value:      p.item.Value,
			Date:       p.item.Date,
		}
		perf.Medal = checks.medal(perf)
		view, status, err := s.upsertPerformance(ctx, checks, athlete, perf, force)
		if err != nil {
			return types.Record{}, err
		}
		return types.Record{Status: status, Performance: &view}, nil
	})
	return s.close(ctx, b, records, err)
}

// open decodes the input and starts the batch.
func (s *Service) open(ctx context.Context, kind types.RecordKind, r io.Reader, f decode.Format, fields []string) (context.Context, *batch, *decode.Batch, error) {
	b := &batch{
		id:    uuid.NewString(),
		kind:  kind,
		start: time.Now(),
	}
	ctx = logger.WithBatchID(ctx, b.id)
	b.log = s.logger.With(logger.String("batch_id", b.id), logger.String("kind", string(kind)))

	var opts []decode.Option
	if s.comma != 0 {
		opts = append(opts, decode.WithComma(s.comma))
	}
	parsed, err := decode.New(opts...).Decode(ctx, r, f)
	if err != nil {
		metrics.RecordBatch(string(kind), resultRejected, 0, time.Since(b.start).Seconds())
		b.log.Warn(ctx, "batch rejected", logger.Error(err))
		return ctx, nil, nil, err
	}

	b.rows = len(parsed.Rows)
	b.agg = report.NewAggregator(reportColumns(fields, parsed.Header), report.WithComma(parsed.Comma))
	b.log.Info(ctx, "batch started", logger.Int("rows", b.rows))
	return ctx, b, parsed, nil
}

// close renders the result or reports the abort.
func (s *Service) close(ctx context.Context, b *batch, records []types.Record, runErr error) (*types.ImportResult, error) {
	elapsed := time.Since(b.start)
	if runErr != nil {
		result := resultCanceled
		if errors.Is(runErr, ErrFatal) {
			result = resultAborted
			metrics.RecordErrorByComponent("import", string(rowerr.KindOf(runErr)))
		}
		metrics.RecordBatch(string(b.kind), result, b.rows, elapsed.Seconds())
		b.log.Error(ctx, "batch "+result,
			logger.Int("rows", b.rows),
			logger.Int("succeeded", len(records)),
			logger.Int("duration_ms", int(elapsed.Milliseconds())),
			logger.Error(runErr))
		return nil, runErr
	}

	errorReport, err := b.agg.CSV()
	if err != nil {
		return nil, fmt.Errorf("render error report: %w", err)
	}
	res := &types.ImportResult{
		BatchID:      b.id,
		Kind:         b.kind,
		Rows:         b.rows,
		SuccessCount: len(records),
		ErrorCount:   b.agg.Len(),
		ErrorReport:  errorReport,
		Errors:       b.agg.Rows(),
		Records:      records,
	}
	if res.Records == nil {
		res.Records = []types.Record{}
	}

	metrics.RecordBatch(string(b.kind), resultCompleted, b.rows, elapsed.Seconds())
	b.log.Info(ctx, "batch finished",
		logger.Int("rows", res.Rows),
		logger.Int("succeeded", res.SuccessCount),
		logger.Int("failed", res.ErrorCount),
		logger.Int("duration_ms", int(elapsed.Milliseconds())))
	return res, nil
}

func (b *batch) fail(ctx context.Context, row decode.RawRow, err error) {
	b.agg.Add(row, err)
	kind := rowerr.KindOf(err)
	metrics.RecordRow(string(b.kind), outcomeFailed)
	metrics.RecordRowError(string(b.kind), string(kind))
	b.log.Debug(ctx, "row failed",
		logger.Int("row", row.Line()),
		logger.String("error_kind", string(kind)),
		logger.Error(err))
}

// barrier drops every repeated key after its first occurrence. It runs
// before any row is resolved.
func barrier[T any](ctx context.Context, b *batch, tracker *dedupe.Tracker, rows []pending[T]) []pending[T] {
	conflicts := tracker.Conflicts()
	if len(conflicts) == 0 {
		return rows
	}
	kept := rows[:0]
	for _, p := range rows {
		if err, dup := conflicts[p.row.Index]; dup {
			b.fail(ctx, p.row, err)
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// runRows processes rows on the worker pool. Row failures go to the error
// report. The first fatal failure stops dispatching and aborts the batch.
func runRows[T any](ctx context.Context, s *Service, b *batch, rows []pending[T], fn func(context.Context, pending[T]) (types.Record, error)) ([]types.Record, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		once     sync.Once
		fatalErr error
		done     = make([]*types.Record, len(rows))
	)
	_, err := s.pool.Run(ctx, len(rows), func(ctx context.Context, i int) {
		p := rows[i]
		rec, err := fn(ctx, p)
		if err != nil {
			if isFatal(err) {
				once.Do(func() {
					fatalErr = err
					cancel(err)
				})
				return
			}
			b.fail(ctx, p.row, err)
			return
		}
		rec.Row = p.row.Line()
		done[i] = &rec
		metrics.RecordRow(string(b.kind), outcomeSucceeded)
	})

	records := make([]types.Record, 0, len(rows))
	for _, rec := range done {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	if fatalErr != nil {
		return records, fatal(fatalErr)
	}
	return records, err
}

func (s *Service) createAthlete(ctx context.Context, a model.Athlete) (types.Record, error) {
	sctx, cancel := s.storeCtx(ctx)
	existing, err := s.store.AthleteByEmail(sctx, a.Email)
	cancel()
	switch {
	case err == nil:
		return types.Record{}, rowerr.New(rowerr.DuplicateEntry,
			"athlete with email %s already exists (id %d)", a.Email, existing.ID).
			With("id", existing.ID)
	case !errors.Is(err, repository.ErrNotFound):
		return types.Record{}, storeErr(err)
	}

	sctx, cancel = s.storeCtx(ctx)
	created, err := s.store.CreateAthlete(sctx, a)
	cancel()
	switch {
	case errors.Is(err, repository.ErrConflict):
		return types.Record{}, rowerr.New(rowerr.DuplicateEntry, "athlete with email %s already exists", a.Email)
	case err != nil:
		return types.Record{}, storeErr(err)
	}
	return types.Record{Status: types.StatusCreated, Athlete: &created}, nil
}

// resolveAthlete matches first name, last name and birthdate exactly.
func (s *Service) resolveAthlete(ctx context.Context, id model.Identity) (model.Athlete, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	a, err := s.store.AthleteByIdentity(sctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Athlete{}, rowerr.New(rowerr.AthleteNotFound,
			"no athlete %s %s born %s", id.FirstName, id.LastName, id.Birthdate).
			With("athlete", id.String())
	}
	if err != nil {
		return model.Athlete{}, storeErr(err)
	}
	return a, nil
}

// upsertPerformance creates p or, with force, overwrites value and medal of
// the stored result with the same key. The age band blocks new results and
// is only reported as a warning for stored ones.
func (s *Service) upsertPerformance(ctx context.Context, r *rules, athlete model.Athlete, p model.Performance, force bool) (types.PerformanceView, types.Status, error) {
	sctx, cancel := s.storeCtx(ctx)
	existing, err := s.store.PerformanceByKey(sctx, p.Key())
	cancel()
	switch {
	case err == nil:
		if !force {
			return types.PerformanceView{}, "", rowerr.New(rowerr.DuplicateEntry,
				"%s already has a %s result on %s (id %d), set force to overwrite",
				athlete.FullName(), p.Discipline, p.Date, existing.ID).
				With("id", existing.ID)
		}
		existing.Value = p.Value
		existing.Medal = p.Medal
		sctx, cancel = s.storeCtx(ctx)
		updated, err := s.store.UpdatePerformance(sctx, existing)
		cancel()
		if err != nil {
			return types.PerformanceView{}, "", storeErr(err)
		}
		s.recordMedal(updated.Medal)
		return s.view(r, athlete, updated), types.StatusUpdated, nil
	case !errors.Is(err, repository.ErrNotFound):
		return types.PerformanceView{}, "", storeErr(err)
	}

	if err := r.gate.Check(athlete.Birthdate, p.Date, p.Discipline); err != nil {
		return types.PerformanceView{}, "", err
	}

	sctx, cancel = s.storeCtx(ctx)
	created, err := s.store.CreatePerformance(sctx, p)
	cancel()
	switch {
	case errors.Is(err, repository.ErrConflict):
		return types.PerformanceView{}, "", rowerr.New(rowerr.DuplicateEntry,
			"%s already has a %s result on %s", athlete.FullName(), p.Discipline, p.Date)
	case errors.Is(err, repository.ErrNotFound):
		return types.PerformanceView{}, "", rowerr.New(rowerr.AthleteNotFound,
			"athlete %d no longer exists", athlete.ID).
			With("athlete", athlete.Identity().String())
	case err != nil:
		return types.PerformanceView{}, "", storeErr(err)
	}
	s.recordMedal(created.Medal)
	return s.view(r, athlete, created), types.StatusCreated, nil
}

func (s *Service) view(r *rules, athlete model.Athlete, p model.Performance) types.PerformanceView {
	v := types.PerformanceView{
		Performance: p,
		AthleteName: athlete.FullName(),
		Warning:     r.gate.Warning(athlete.Birthdate, p.Date, p.Discipline),
	}
	if v.Warning != "" {
		metrics.RecordAgeWarning()
	}
	return v
}

func (s *Service) recordMedal(m model.Medal) {
	if m != model.MedalNone {
		metrics.RecordMedal(string(m))
	}
}

// reportColumns returns the canonical fields followed by any other input
// header, in input order.
func reportColumns(fields, header []string) []string {
	cols := append([]string(nil), fields...)
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	for _, h := range header {
		if _, ok := known[h]; !ok {
			known[h] = struct{}{}
			cols = append(cols, h)
		}
	}
	return cols
}
