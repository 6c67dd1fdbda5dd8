// Package service orchestrates the import pipeline and implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/medalist/internal/adapters/mq/worker"
	"github.com/okian/medalist/internal/adapters/repository"
	"github.com/okian/medalist/internal/domain/eligibility"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/report"
	"github.com/okian/medalist/internal/domain/rowerr"
	"github.com/okian/medalist/internal/domain/scoring"
	"github.com/okian/medalist/internal/domain/types"
	"github.com/okian/medalist/internal/domain/validate"
	"github.com/okian/medalist/pkg/logger"
	"github.com/okian/medalist/pkg/metrics"
)

const defaultStoreTimeout = 5 * time.Second

// Service runs batches against a record store.
type Service struct {
	mu sync.Mutex

	// Core components
	store     repository.Store
	pool      *worker.Pool
	validator *validate.Validator
	fixed     *scoring.FixedGrader

	// Configuration
	storeTimeout time.Duration
	comma        rune
	profile      report.Profile
	criteria     []model.MedalCriteria
	now          func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithPool sets the row worker pool.
func WithPool(pool *worker.Pool) Option {
	return func(s *Service) {
		if pool != nil {
			s.pool = pool
		}
	}
}

// WithValidator sets the row validator.
func WithValidator(v *validate.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithFixedGrader sets the grader used for ad hoc score submissions.
func WithFixedGrader(g *scoring.FixedGrader) Option {
	return func(s *Service) {
		if g != nil {
			s.fixed = g
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreTimeout bounds every single store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithComma fixes the CSV delimiter of imports and error reports. Without
// it the delimiter is sniffed from the header line.
func WithComma(comma rune) Option {
	return func(s *Service) {
		s.comma = comma
	}
}

// WithExportProfile sets the default export dialect.
func WithExportProfile(p report.Profile) Option {
	return func(s *Service) {
		if p != "" {
			s.profile = p
		}
	}
}

// WithCriteria sets the medal criteria seeded into the store by Start.
func WithCriteria(criteria []model.MedalCriteria) Option {
	return func(s *Service) {
		s.criteria = criteria
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeTimeout: defaultStoreTimeout,
		profile:      report.ProfileLocalized,
		now:          time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.pool == nil {
		s.pool = worker.NewPool()
	}
	if s.validator == nil {
		s.validator = validate.New()
	}
	if s.fixed == nil {
		s.fixed = scoring.NewFixedGrader()
	}
	return s
}

// Start checks the store and seeds the configured medal criteria.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.ready(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting import service...")

	if err := s.Ping(ctx); err != nil {
		return err
	}
	for _, c := range s.criteria {
		sctx, cancel := s.storeCtx(ctx)
		err := s.store.UpsertCriteria(sctx, c)
		cancel()
		if err != nil {
			return fatal(storeErr(err))
		}
	}

	s.started = true
	s.logger.Info(ctx, "import service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("criteria", len(s.criteria)),
		logger.String("exportProfile", string(s.profile)),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping import service...")
	s.store.Close()
	s.started = false
	s.logger.Info(context.Background(), "import service stopped")
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.Ping(sctx); err != nil {
		return fatal(storeErr(err))
	}
	return nil
}

// Stats returns store counts for monitoring.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	if err := s.ready(); err != nil {
		return types.Stats{}, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	c, err := s.store.Counts(sctx)
	if err != nil {
		return types.Stats{}, requestErr(err)
	}
	metrics.UpdateWorkerCount(s.pool.Size())
	return types.Stats{
		Athletes:     c.Athletes,
		Performances: c.Performances,
		Criteria:     c.Criteria,
		Workers:      s.pool.Size(),
	}, nil
}

// ExportProfile returns the default export dialect.
func (s *Service) ExportProfile() report.Profile { return s.profile }

func (s *Service) ready() error {
	if s.store == nil {
		return fatal(rowerr.Wrap(rowerr.ConfigMissing, ErrNoStore))
	}
	return nil
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// rules holds the criteria-derived checks of one operation.
type rules struct {
	criteria []model.MedalCriteria
	gate     *eligibility.Gate
	grader   *scoring.CriteriaGrader
}

func (s *Service) loadRules(ctx context.Context) (*rules, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	criteria, err := s.store.Criteria(sctx)
	if err != nil {
		return nil, fatal(storeErr(err))
	}
	metrics.UpdateCriteriaLoaded(len(criteria))
	return &rules{
		criteria: criteria,
		gate:     eligibility.New(criteria),
		grader:   scoring.NewCriteriaGrader(criteria),
	}, nil
}

// medal grades p against the criteria of its discipline. The stored medal
// is kept for disciplines without criteria.
func (r *rules) medal(p model.Performance) model.Medal {
	if !r.grader.Covers(p.Discipline) {
		return p.Medal
	}
	m, err := r.grader.Grade(scoring.Input{Discipline: p.Discipline, Value: p.Value})
	if err != nil {
		return model.MedalNone
	}
	return m
}

// storeErr classifies a store failure.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUnavailable):
		return rowerr.Wrap(rowerr.StoreUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return rowerr.Wrap(rowerr.StoreTimeout, err)
	case errors.Is(err, repository.ErrConflict):
		return rowerr.Wrap(rowerr.DuplicateEntry, err)
	case errors.Is(err, repository.ErrHasDependents):
		return rowerr.Wrap(rowerr.HasDependentRecords, err)
	case errors.Is(err, repository.ErrNotFound):
		return rowerr.Wrap(rowerr.NotFound, err)
	default:
		return rowerr.Wrap(rowerr.Internal, err)
	}
}

// requestErr classifies a store failure of a single-request operation,
// wrapping fatal kinds with ErrFatal.
func requestErr(err error) error {
	err = storeErr(err)
	if isFatal(err) {
		return fatal(err)
	}
	return err
}

func isFatal(err error) bool {
	switch rowerr.KindOf(err) {
	case rowerr.StoreUnavailable, rowerr.ConfigMissing:
		return true
	default:
		return false
	}
}

func fatal(err error) error {
	if errors.Is(err, ErrFatal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}
