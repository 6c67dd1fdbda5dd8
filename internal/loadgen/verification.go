package loadgen

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/scoring"
	"github.com/okian/medalist/pkg/logger"
)

// verifyResults checks every listed performance of the reference year
// against the criteria the server reports.
func verifyResults(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	var crit []criteria
	if err := client.getJSON(ctx, "/criteria", &crit); err != nil {
		return err
	}
	var perfs []performance
	if err := client.getJSON(ctx, "/performances?year="+strconv.Itoa(config.ReferenceAt.Year()), &perfs); err != nil {
		return err
	}
	if stats.RowsSucceeded > 0 && len(perfs) == 0 {
		return fmt.Errorf("no performances listed after %d successful rows", stats.RowsSucceeded)
	}

	grader := scoring.NewCriteriaGrader(toModel(crit))
	for _, p := range perfs {
		d := model.Discipline(p.Discipline)
		stats.MedalsByTier[medalLabel(p.Medal)]++
		if !grader.Covers(d) {
			continue
		}
		want, err := grader.Grade(scoring.Input{Discipline: d, Value: model.ScoreFromFloat(p.Value)})
		if err != nil {
			return fmt.Errorf("performance %d: %w", p.ID, err)
		}
		if string(want) != p.Medal {
			return fmt.Errorf("performance %d: %s %.2f graded %q, expected %q", p.ID, p.Discipline, p.Value, p.Medal, want)
		}
		stats.PerformancesVerified++
	}

	logger.Get().Info(ctx, "medals verified",
		logger.Int("listed", len(perfs)),
		logger.Int("verified", stats.PerformancesVerified))
	return nil
}

func toModel(in []criteria) []model.MedalCriteria {
	out := make([]model.MedalCriteria, len(in))
	for i, c := range in {
		out[i] = model.MedalCriteria{
			Discipline: model.Discipline(c.Discipline),
			MinAge:     c.MinAge,
			MaxAge:     c.MaxAge,
			Bronze:     model.ScoreFromFloat(c.Bronze),
			Silver:     model.ScoreFromFloat(c.Silver),
			Gold:       model.ScoreFromFloat(c.Gold),
		}
	}
	return out
}

func medalLabel(m string) string {
	if m == "" {
		return "none"
	}
	return m
}
