// Package repository defines the record store contract and its
// in-memory and PostgreSQL implementations.
package repository

import (
	"context"

	"github.com/okian/medalist/internal/domain/model"
)

// PerformanceFilter narrows ListPerformances. Zero fields match all.
type PerformanceFilter struct {
	AthleteID  int64
	Discipline model.Discipline
	Year       int
}

// Matches reports whether p passes the filter.
func (f PerformanceFilter) Matches(p model.Performance) bool {
	if f.AthleteID != 0 && p.AthleteID != f.AthleteID {
		return false
	}
	if f.Discipline != "" && p.Discipline != f.Discipline {
		return false
	}
	if f.Year != 0 && p.Date.Year != f.Year {
		return false
	}
	return true
}

// Counts summarizes the store content.
type Counts struct {
	Athletes     int `json:"athletes"`
	Performances int `json:"performances"`
	Criteria     int `json:"criteria"`
}

// Store provides read/write access to athletes, performances and medal
// criteria. Every write is a single-row transaction.
type Store interface {
	// AthleteByID returns ErrNotFound if the athlete is unknown.
	AthleteByID(ctx context.Context, id int64) (model.Athlete, error)
	// AthleteByEmail matches the lower-cased email exactly.
	AthleteByEmail(ctx context.Context, email string) (model.Athlete, error)
	// AthleteByIdentity matches first name, last name and birthdate exactly.
	// When several athletes share the triple the lowest id wins.
	AthleteByIdentity(ctx context.Context, id model.Identity) (model.Athlete, error)
	// AthletesByIDs returns the athletes that exist, ordered by id.
	AthletesByIDs(ctx context.Context, ids []int64) ([]model.Athlete, error)
	// ListAthletes returns all athletes ordered by id.
	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	// CreateAthlete assigns an id. Returns ErrConflict if the email exists.
	CreateAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	// UpdateAthlete replaces names, birthdate and gender. The email is kept.
	UpdateAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	// DeleteAthlete returns ErrHasDependents while performances reference it.
	DeleteAthlete(ctx context.Context, id int64) error

	// PerformanceByKey returns ErrNotFound if no performance has the key.
	PerformanceByKey(ctx context.Context, key model.PerformanceKey) (model.Performance, error)
	// CreatePerformance assigns an id. Returns ErrConflict if the key exists
	// and ErrNotFound if the athlete does not.
	CreatePerformance(ctx context.Context, p model.Performance) (model.Performance, error)
	// UpdatePerformance overwrites value and medal of the performance with p.ID.
	UpdatePerformance(ctx context.Context, p model.Performance) (model.Performance, error)
	// ListPerformances returns matching performances, newest first.
	ListPerformances(ctx context.Context, f PerformanceFilter) ([]model.Performance, error)

	// Criteria returns all medal criteria ordered by discipline.
	Criteria(ctx context.Context) ([]model.MedalCriteria, error)
	// UpsertCriteria creates or replaces the criteria of c.Discipline.
	UpsertCriteria(ctx context.Context, c model.MedalCriteria) error

	Counts(ctx context.Context) (Counts, error)
	// Ping returns ErrUnavailable when the backing store cannot be reached.
	Ping(ctx context.Context) error
	Close()
}
