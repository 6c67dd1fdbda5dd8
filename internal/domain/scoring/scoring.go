// Package scoring maps performance values onto medal tiers.
package scoring

import (
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/rowerr"
)

// Fixed thresholds used for ad hoc score submissions.
const (
	DefaultBronze model.Score = 60_00
	DefaultSilver model.Score = 75_00
	DefaultGold   model.Score = 90_00

	minScore model.Score = 0
	maxScore model.Score = 100_00
)

// Input is what a Grader looks at.
type Input struct {
	Discipline model.Discipline
	Value      model.Score
}

// Grader computes the medal for a value.
type Grader interface {
	// Grade returns the medal tier, MedalNone when the grader awards
	// nothing without rejecting, or a classified error.
	Grade(in Input) (model.Medal, error)
}

// Option applies a configuration option to the FixedGrader.
type Option func(*FixedGrader)

// WithThresholds overrides the fixed thresholds. Ignored unless
// 0 <= bronze <= silver <= gold <= 100.
func WithThresholds(bronze, silver, gold model.Score) Option {
	return func(g *FixedGrader) {
		if minScore <= bronze && bronze <= silver && silver <= gold && gold <= maxScore {
			g.bronze, g.silver, g.gold = bronze, silver, gold
		}
	}
}

// FixedGrader grades against constant thresholds and rejects values below
// bronze with BelowThreshold.
type FixedGrader struct {
	bronze model.Score
	silver model.Score
	gold   model.Score
}

// NewFixedGrader creates a FixedGrader with the default 60/75/90 thresholds.
func NewFixedGrader(opts ...Option) *FixedGrader {
	g := &FixedGrader{
		bronze: DefaultBronze,
		silver: DefaultSilver,
		gold:   DefaultGold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Grade implements Grader.
func (g *FixedGrader) Grade(in Input) (model.Medal, error) {
	if err := checkRange(in.Value); err != nil {
		return model.MedalNone, err
	}
	medal := tier(in.Value, g.bronze, g.silver, g.gold)
	if medal == model.MedalNone {
		return model.MedalNone, rowerr.New(rowerr.BelowThreshold,
			"value %s is below the minimum threshold of %s", in.Value, g.bronze).
			With("threshold", g.bronze.String())
	}
	return medal, nil
}

// CriteriaGrader grades against the per-discipline thresholds of
// MedalCriteria. Disciplines without criteria and values below bronze get
// no medal.
type CriteriaGrader struct {
	criteria map[model.Discipline]model.MedalCriteria
}

// NewCriteriaGrader indexes criteria by discipline. Later entries replace
// earlier ones for the same discipline.
func NewCriteriaGrader(criteria []model.MedalCriteria) *CriteriaGrader {
	g := &CriteriaGrader{criteria: make(map[model.Discipline]model.MedalCriteria, len(criteria))}
	for _, c := range criteria {
		g.criteria[c.Discipline] = c
	}
	return g
}

// Covers reports whether criteria exist for d.
func (g *CriteriaGrader) Covers(d model.Discipline) bool {
	_, ok := g.criteria[d]
	return ok
}

// Grade implements Grader.
func (g *CriteriaGrader) Grade(in Input) (model.Medal, error) {
	if err := checkRange(in.Value); err != nil {
		return model.MedalNone, err
	}
	c, ok := g.criteria[in.Discipline]
	if !ok {
		return model.MedalNone, nil
	}
	return tier(in.Value, c.Bronze, c.Silver, c.Gold), nil
}

func tier(v, bronze, silver, gold model.Score) model.Medal {
	switch {
	case v >= gold:
		return model.MedalGold
	case v >= silver:
		return model.MedalSilver
	case v >= bronze:
		return model.MedalBronze
	default:
		return model.MedalNone
	}
}

func checkRange(v model.Score) error {
	if v < minScore || v > maxScore {
		return rowerr.New(rowerr.InvalidScore, "value %s is outside [0, 100]", v)
	}
	return nil
}
