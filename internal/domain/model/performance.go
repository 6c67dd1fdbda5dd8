package model

import (
	"strings"
)

// Discipline is a performance category. The valid set is configured.
type Discipline string

// Default disciplines, one per domain category.
const (
	DisciplineEndurance    Discipline = "ENDURANCE"
	DisciplineStrength     Discipline = "STRENGTH"
	DisciplineSpeed        Discipline = "SPEED"
	DisciplineCoordination Discipline = "COORDINATION"
)

// DefaultDisciplines is used when no discipline list is configured.
var DefaultDisciplines = []Discipline{
	DisciplineEndurance,
	DisciplineStrength,
	DisciplineSpeed,
	DisciplineCoordination,
}

// DisciplineSet is the configured discipline enum.
type DisciplineSet map[Discipline]struct{}

// NewDisciplineSet builds a set from names, upper-casing each.
func NewDisciplineSet(names ...string) DisciplineSet {
	set := make(DisciplineSet, len(names))
	for _, n := range names {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n != "" {
			set[Discipline(n)] = struct{}{}
		}
	}
	return set
}

// Lookup returns the canonical discipline for s and whether it is configured.
func (s DisciplineSet) Lookup(name string) (Discipline, bool) {
	d := Discipline(strings.ToUpper(strings.TrimSpace(name)))
	_, ok := s[d]
	return d, ok
}

// Medal tier awarded for a performance.
type Medal string

// Medal tiers. MedalNone means no medal.
const (
	MedalNone   Medal = ""
	MedalGold   Medal = "GOLD"
	MedalSilver Medal = "SILVER"
	MedalBronze Medal = "BRONZE"
)

// Performance is a stored result. (AthleteID, Discipline, Date) is unique.
type Performance struct {
	ID         int64      `json:"id"`
	AthleteID  int64      `json:"athleteId"`
	Discipline Discipline `json:"discipline"`
	Value      Score      `json:"value"`
	Date       Date       `json:"date"`
	Medal      Medal      `json:"medal,omitempty"`
}

// PerformanceKey is the natural key of a performance.
type PerformanceKey struct {
	AthleteID  int64
	Discipline Discipline
	Date       Date
}

// Key returns the natural key of p.
func (p Performance) Key() PerformanceKey {
	return PerformanceKey{AthleteID: p.AthleteID, Discipline: p.Discipline, Date: p.Date}
}

// MedalCriteria configures the age band and medal thresholds of a discipline.
type MedalCriteria struct {
	Discipline Discipline `json:"discipline"`
	MinAge     int        `json:"minAge"`
	MaxAge     int        `json:"maxAge"`
	Bronze     Score      `json:"bronzeValue"`
	Silver     Score      `json:"silverValue"`
	Gold       Score      `json:"goldValue"`
}

// AllowsAge reports whether age lies within [MinAge, MaxAge].
func (c MedalCriteria) AllowsAge(age int) bool {
	return age >= c.MinAge && age <= c.MaxAge
}
