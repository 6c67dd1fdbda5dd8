package service

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/medalist/internal/adapters/repository"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/rowerr"
	"github.com/okian/medalist/internal/domain/scoring"
	"github.com/okian/medalist/internal/domain/types"
	"github.com/okian/medalist/internal/domain/validate"
	"github.com/okian/medalist/pkg/logger"
)

// Athlete returns the athlete with id.
func (s *Service) Athlete(ctx context.Context, id int64) (model.Athlete, error) {
	if err := s.ready(); err != nil {
		return model.Athlete{}, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	a, err := s.store.AthleteByID(sctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Athlete{}, rowerr.New(rowerr.NotFound, "athlete %d not found", id)
	}
	if err != nil {
		return model.Athlete{}, requestErr(err)
	}
	return a, nil
}

// ListAthletes returns all athletes ordered by id.
func (s *Service) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	athletes, err := s.store.ListAthletes(sctx)
	if err != nil {
		return nil, requestErr(err)
	}
	return athletes, nil
}

// UpdateAthlete replaces the non-empty fields of upd. The id and the email
// cannot be changed.
func (s *Service) UpdateAthlete(ctx context.Context, id int64, upd types.AthleteUpdate) (model.Athlete, error) {
	a, err := s.Athlete(ctx, id)
	if err != nil {
		return model.Athlete{}, err
	}
	if v := strings.TrimSpace(upd.FirstName); v != "" {
		a.FirstName = v
	}
	if v := strings.TrimSpace(upd.LastName); v != "" {
		a.LastName = v
	}
	if strings.TrimSpace(upd.Birthdate) != "" {
		d, err := model.ParseDate(upd.Birthdate)
		if err != nil {
			return model.Athlete{}, rowerr.New(rowerr.InvalidDateFormat, "invalid birthdate %q, use YYYY-MM-DD", upd.Birthdate)
		}
		a.Birthdate = d
	}
	if strings.TrimSpace(upd.Gender) != "" {
		g, err := validate.Gender(upd.Gender)
		if err != nil {
			return model.Athlete{}, err
		}
		a.Gender = g
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	updated, err := s.store.UpdateAthlete(sctx, a)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Athlete{}, rowerr.New(rowerr.NotFound, "athlete %d not found", id)
	}
	if err != nil {
		return model.Athlete{}, requestErr(err)
	}
	s.logger.Info(ctx, "athlete updated", logger.Int("id", int(id)))
	return updated, nil
}

// DeleteAthlete removes an athlete without performances.
func (s *Service) DeleteAthlete(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.DeleteAthlete(sctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return rowerr.New(rowerr.NotFound, "athlete %d not found", id)
	case errors.Is(err, repository.ErrHasDependents):
		return rowerr.New(rowerr.HasDependentRecords,
			"athlete %d still has performances, delete them first", id)
	case err != nil:
		return requestErr(err)
	}
	s.logger.Info(ctx, "athlete deleted", logger.Int("id", int(id)))
	return nil
}

// SubmitScore stores an ad hoc result graded with the fixed thresholds.
// Values below bronze are rejected with BelowThreshold and not stored.
func (s *Service) SubmitScore(ctx context.Context, sub types.ScoreSubmission) (types.PerformanceView, types.Status, error) {
	if err := s.ready(); err != nil {
		return types.PerformanceView{}, "", err
	}
	discipline, err := s.validator.Discipline(sub.Discipline)
	if err != nil {
		return types.PerformanceView{}, "", err
	}
	if err := validate.Value(sub.Value); err != nil {
		return types.PerformanceView{}, "", err
	}
	medal, err := s.fixed.Grade(scoring.Input{Discipline: discipline, Value: sub.Value})
	if err != nil {
		return types.PerformanceView{}, "", err
	}

	athlete, err := s.Athlete(ctx, sub.AthleteID)
	if rowerr.Is(err, rowerr.NotFound) {
		return types.PerformanceView{}, "", rowerr.New(rowerr.AthleteNotFound, "athlete %d not found", sub.AthleteID)
	}
	if err != nil {
		return types.PerformanceView{}, "", err
	}
	checks, err := s.loadRules(ctx)
	if err != nil {
		return types.PerformanceView{}, "", err
	}

	date := sub.Date
	if date.IsZero() {
		date = model.DateOf(s.now())
	}
	view, status, err := s.upsertPerformance(ctx, checks, athlete, model.Performance{
		AthleteID:  athlete.ID,
		Discipline: discipline,
		Value:      sub.Value,
		Date:       date,
		Medal:      medal,
	}, sub.Force)
	if err != nil {
		if isFatal(err) {
			return types.PerformanceView{}, "", fatal(err)
		}
		return types.PerformanceView{}, "", err
	}
	return view, status, nil
}

// ListPerformances returns matching performances, newest first, with the
// athlete name, the medal graded against the current criteria and an
// age band warning where it applies.
func (s *Service) ListPerformances(ctx context.Context, f repository.PerformanceFilter) ([]types.PerformanceView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	checks, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	perfs, err := s.store.ListPerformances(sctx, f)
	cancel()
	if err != nil {
		return nil, requestErr(err)
	}

	ids := make([]int64, 0, len(perfs))
	seen := make(map[int64]struct{}, len(perfs))
	for _, p := range perfs {
		if _, ok := seen[p.AthleteID]; !ok {
			seen[p.AthleteID] = struct{}{}
			ids = append(ids, p.AthleteID)
		}
	}
	sctx, cancel = s.storeCtx(ctx)
	athletes, err := s.store.AthletesByIDs(sctx, ids)
	cancel()
	if err != nil {
		return nil, requestErr(err)
	}
	byID := make(map[int64]model.Athlete, len(athletes))
	for _, a := range athletes {
		byID[a.ID] = a
	}

	out := make([]types.PerformanceView, 0, len(perfs))
	for _, p := range perfs {
		p.Medal = checks.medal(p)
		out = append(out, s.view(checks, byID[p.AthleteID], p))
	}
	return out, nil
}

// ListCriteria returns the medal criteria ordered by discipline.
func (s *Service) ListCriteria(ctx context.Context) ([]model.MedalCriteria, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	checks, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}
	return checks.criteria, nil
}
