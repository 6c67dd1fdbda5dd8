package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/pkg/metrics"
)

// Instrumented wraps a Store and records per-operation latency and error
// metrics.
type Instrumented struct {
	next Store
}

// Instrument returns s wrapped with metrics.
func Instrument(s Store) *Instrumented {
	return &Instrumented{next: s}
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err == nil {
		return
	}
	metrics.RecordStoreError(op, errorLabel(err))
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrHasDependents):
		return "has_dependents"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}

// AthleteByID implements Store.
func (s *Instrumented) AthleteByID(ctx context.Context, id int64) (a model.Athlete, err error) {
	defer func(start time.Time) { observe("athlete_by_id", start, err) }(time.Now())
	return s.next.AthleteByID(ctx, id)
}

// AthleteByEmail implements Store.
func (s *Instrumented) AthleteByEmail(ctx context.Context, email string) (a model.Athlete, err error) {
	defer func(start time.Time) { observe("athlete_by_email", start, err) }(time.Now())
	return s.next.AthleteByEmail(ctx, email)
}

// AthleteByIdentity implements Store.
func (s *Instrumented) AthleteByIdentity(ctx context.Context, id model.Identity) (a model.Athlete, err error) {
	defer func(start time.Time) { observe("athlete_by_identity", start, err) }(time.Now())
	return s.next.AthleteByIdentity(ctx, id)
}

// AthletesByIDs implements Store.
func (s *Instrumented) AthletesByIDs(ctx context.Context, ids []int64) (out []model.Athlete, err error) {
	defer func(start time.Time) { observe("athletes_by_ids", start, err) }(time.Now())
	return s.next.AthletesByIDs(ctx, ids)
}

// ListAthletes implements Store.
func (s *Instrumented) ListAthletes(ctx context.Context) (out []model.Athlete, err error) {
	defer func(start time.Time) { observe("list_athletes", start, err) }(time.Now())
	return s.next.ListAthletes(ctx)
}

// CreateAthlete implements Store.
func (s *Instrumented) CreateAthlete(ctx context.Context, a model.Athlete) (out model.Athlete, err error) {
	defer func(start time.Time) { observe("create_athlete", start, err) }(time.Now())
	return s.next.CreateAthlete(ctx, a)
}

// UpdateAthlete implements Store.
func (s *Instrumented) UpdateAthlete(ctx context.Context, a model.Athlete) (out model.Athlete, err error) {
	defer func(start time.Time) { observe("update_athlete", start, err) }(time.Now())
	return s.next.UpdateAthlete(ctx, a)
}

// DeleteAthlete implements Store.
func (s *Instrumented) DeleteAthlete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_athlete", start, err) }(time.Now())
	return s.next.DeleteAthlete(ctx, id)
}

// PerformanceByKey implements Store.
func (s *Instrumented) PerformanceByKey(ctx context.Context, key model.PerformanceKey) (p model.Performance, err error) {
	defer func(start time.Time) { observe("performance_by_key", start, err) }(time.Now())
	return s.next.PerformanceByKey(ctx, key)
}

// CreatePerformance implements Store.
func (s *Instrumented) CreatePerformance(ctx context.Context, p model.Performance) (out model.Performance, err error) {
	defer func(start time.Time) { observe("create_performance", start, err) }(time.Now())
	return s.next.CreatePerformance(ctx, p)
}

// UpdatePerformance implements Store.
func (s *Instrumented) UpdatePerformance(ctx context.Context, p model.Performance) (out model.Performance, err error) {
	defer func(start time.Time) { observe("update_performance", start, err) }(time.Now())
	return s.next.UpdatePerformance(ctx, p)
}

// ListPerformances implements Store.
func (s *Instrumented) ListPerformances(ctx context.Context, f PerformanceFilter) (out []model.Performance, err error) {
	defer func(start time.Time) { observe("list_performances", start, err) }(time.Now())
	return s.next.ListPerformances(ctx, f)
}

// Criteria implements Store.
func (s *Instrumented) Criteria(ctx context.Context) (out []model.MedalCriteria, err error) {
	defer func(start time.Time) { observe("criteria", start, err) }(time.Now())
	return s.next.Criteria(ctx)
}

// UpsertCriteria implements Store.
func (s *Instrumented) UpsertCriteria(ctx context.Context, c model.MedalCriteria) (err error) {
	defer func(start time.Time) { observe("upsert_criteria", start, err) }(time.Now())
	return s.next.UpsertCriteria(ctx, c)
}

// Counts implements Store. Record gauges are refreshed on every call.
func (s *Instrumented) Counts(ctx context.Context) (c Counts, err error) {
	defer func(start time.Time) { observe("counts", start, err) }(time.Now())
	c, err = s.next.Counts(ctx)
	if err == nil {
		metrics.UpdateRecordsTotal("athletes", c.Athletes)
		metrics.UpdateRecordsTotal("performances", c.Performances)
		metrics.UpdateCriteriaLoaded(c.Criteria)
	}
	return c, err
}

// Ping implements Store.
func (s *Instrumented) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("ping", start, err) }(time.Now())
	return s.next.Ping(ctx)
}

// Close implements Store.
func (s *Instrumented) Close() { s.next.Close() }
