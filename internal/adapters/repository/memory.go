package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/medalist/internal/domain/model"
)

// MemoryStore is an in-process Store. It is the default when no database
// is configured and the test double for the store contract.
type MemoryStore struct {
	mu sync.RWMutex

	nextAthlete     int64
	nextPerformance int64

	athletes     map[int64]model.Athlete
	byEmail      map[string]int64
	performances map[int64]model.Performance
	byKey        map[model.PerformanceKey]int64
	criteria     map[model.Discipline]model.MedalCriteria
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		athletes:     make(map[int64]model.Athlete),
		byEmail:      make(map[string]int64),
		performances: make(map[int64]model.Performance),
		byKey:        make(map[model.PerformanceKey]int64),
		criteria:     make(map[model.Discipline]model.MedalCriteria),
	}
}

// AthleteByID implements Store.
func (s *MemoryStore) AthleteByID(ctx context.Context, id int64) (model.Athlete, error) {
	if err := ctx.Err(); err != nil {
		return model.Athlete{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.athletes[id]
	if !ok {
		return model.Athlete{}, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// AthleteByEmail implements Store.
func (s *MemoryStore) AthleteByEmail(ctx context.Context, email string) (model.Athlete, error) {
	if err := ctx.Err(); err != nil {
		return model.Athlete{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return model.Athlete{}, fmt.Errorf("athlete %s: %w", email, ErrNotFound)
	}
	return s.athletes[id], nil
}

// AthleteByIdentity implements Store.
func (s *MemoryStore) AthleteByIdentity(ctx context.Context, ident model.Identity) (model.Athlete, error) {
	if err := ctx.Err(); err != nil {
		return model.Athlete{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		found model.Athlete
		ok    bool
	)
	for _, a := range s.athletes {
		if a.Identity() == ident && (!ok || a.ID < found.ID) {
			found, ok = a, true
		}
	}
	if !ok {
		return model.Athlete{}, fmt.Errorf("athlete %s: %w", ident, ErrNotFound)
	}
	return found, nil
}

// AthletesByIDs implements Store.
func (s *MemoryStore) AthletesByIDs(ctx context.Context, ids []int64) ([]model.Athlete, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]struct{}, len(ids))
	out := make([]model.Athlete, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if a, ok := s.athletes[id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAthletes implements Store.
func (s *MemoryStore) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Athlete, 0, len(s.athletes))
	for _, a := range s.athletes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateAthlete implements Store.
func (s *MemoryStore) CreateAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	if err := ctx.Err(); err != nil {
		return model.Athlete{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[a.Email]; exists {
		return model.Athlete{}, fmt.Errorf("athlete email %s: %w", a.Email, ErrConflict)
	}
	s.nextAthlete++
	a.ID = s.nextAthlete
	s.athletes[a.ID] = a
	s.byEmail[a.Email] = a.ID
	return a, nil
}

// UpdateAthlete implements Store.
func (s *MemoryStore) UpdateAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	if err := ctx.Err(); err != nil {
		return model.Athlete{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.athletes[a.ID]
	if !ok {
		return model.Athlete{}, fmt.Errorf("athlete %d: %w", a.ID, ErrNotFound)
	}
	cur.FirstName = a.FirstName
	cur.LastName = a.LastName
	cur.Birthdate = a.Birthdate
	cur.Gender = a.Gender
	s.athletes[cur.ID] = cur
	return cur, nil
}

// DeleteAthlete implements Store.
func (s *MemoryStore) DeleteAthlete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.athletes[id]
	if !ok {
		return fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	for _, p := range s.performances {
		if p.AthleteID == id {
			return fmt.Errorf("athlete %d: %w", id, ErrHasDependents)
		}
	}
	delete(s.athletes, id)
	delete(s.byEmail, a.Email)
	return nil
}

// PerformanceByKey implements Store.
func (s *MemoryStore) PerformanceByKey(ctx context.Context, key model.PerformanceKey) (model.Performance, error) {
	if err := ctx.Err(); err != nil {
		return model.Performance{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return model.Performance{}, fmt.Errorf("performance: %w", ErrNotFound)
	}
	return s.performances[id], nil
}

// CreatePerformance implements Store.
func (s *MemoryStore) CreatePerformance(ctx context.Context, p model.Performance) (model.Performance, error) {
	if err := ctx.Err(); err != nil {
		return model.Performance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.athletes[p.AthleteID]; !ok {
		return model.Performance{}, fmt.Errorf("athlete %d: %w", p.AthleteID, ErrNotFound)
	}
	if _, exists := s.byKey[p.Key()]; exists {
		return model.Performance{}, fmt.Errorf("performance key: %w", ErrConflict)
	}
	s.nextPerformance++
	p.ID = s.nextPerformance
	s.performances[p.ID] = p
	s.byKey[p.Key()] = p.ID
	return p, nil
}

// UpdatePerformance implements Store.
func (s *MemoryStore) UpdatePerformance(ctx context.Context, p model.Performance) (model.Performance, error) {
	if err := ctx.Err(); err != nil {
		return model.Performance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.performances[p.ID]
	if !ok {
		return model.Performance{}, fmt.Errorf("performance %d: %w", p.ID, ErrNotFound)
	}
	cur.Value = p.Value
	cur.Medal = p.Medal
	s.performances[cur.ID] = cur
	return cur, nil
}

// ListPerformances implements Store.
func (s *MemoryStore) ListPerformances(ctx context.Context, f PerformanceFilter) ([]model.Performance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Performance
	for _, p := range s.performances {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Criteria implements Store.
func (s *MemoryStore) Criteria(ctx context.Context) ([]model.MedalCriteria, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MedalCriteria, 0, len(s.criteria))
	for _, c := range s.criteria {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Discipline < out[j].Discipline })
	return out, nil
}

// UpsertCriteria implements Store.
func (s *MemoryStore) UpsertCriteria(ctx context.Context, c model.MedalCriteria) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria[c.Discipline] = c
	return nil
}

// Counts implements Store.
func (s *MemoryStore) Counts(ctx context.Context) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return Counts{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Athletes:     len(s.athletes),
		Performances: len(s.performances),
		Criteria:     len(s.criteria),
	}, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// Close implements Store.
func (s *MemoryStore) Close() {}
