// Package eligibility gates performances on the age band configured for
// their discipline.
package eligibility

import (
	"fmt"

	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/rowerr"
)

// Gate checks athlete ages against MedalCriteria.
type Gate struct {
	criteria map[model.Discipline]model.MedalCriteria
}

// New indexes criteria by discipline.
func New(criteria []model.MedalCriteria) *Gate {
	g := &Gate{criteria: make(map[model.Discipline]model.MedalCriteria, len(criteria))}
	for _, c := range criteria {
		g.criteria[c.Discipline] = c
	}
	return g
}

// Criteria returns the criteria of d and whether any are configured.
func (g *Gate) Criteria(d model.Discipline) (model.MedalCriteria, bool) {
	c, ok := g.criteria[d]
	return c, ok
}

// Check rejects a new performance with AgeRestriction when the athlete's
// age on the performance date lies outside the discipline's band.
// Disciplines without criteria always pass.
func (g *Gate) Check(birth, on model.Date, d model.Discipline) error {
	c, ok := g.criteria[d]
	if !ok {
		return nil
	}
	age := model.YearsBetween(birth, on)
	if c.AllowsAge(age) {
		return nil
	}
	return rowerr.New(rowerr.AgeRestriction,
		"athlete is %d years old on %s, %s requires %d-%d", age, on, d, c.MinAge, c.MaxAge).
		With("age", age).
		With("minAge", c.MinAge).
		With("maxAge", c.MaxAge)
}

// Warning is the advisory form of Check for rows that are already
// persisted. It returns an empty string when the row is within bounds.
func (g *Gate) Warning(birth, on model.Date, d model.Discipline) string {
	c, ok := g.criteria[d]
	if !ok {
		return ""
	}
	age := model.YearsBetween(birth, on)
	if c.AllowsAge(age) {
		return ""
	}
	return fmt.Sprintf("%s: only for %d-%d years, athlete was %d", d, c.MinAge, c.MaxAge, age)
}
