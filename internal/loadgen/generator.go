package loadgen

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileDivisor     = 6
	birthYearFrom      = 1990
	birthYearSpan      = 23
)

// Value ranges per performer profile, on the 0..100 scale.
const (
	caseAveragePerformer = 0
	caseHighPerformer    = 1
	caseLowPerformer     = 2
	caseElitePerformer   = 3
	caseMidPerformer     = 4
	caseWideRange        = 5
)

var firstNames = []string{"Anna", "Ben", "Clara", "David", "Emma", "Felix", "Greta", "Hannes", "Ida", "Jonas"}

var athleteHeader = []string{"firstName", "lastName", "birthdate", "gender", "email"}

var performanceHeader = []string{"firstName", "lastName", "birthdate", "discipline", "value", "date"}

type athlete struct {
	FirstName string
	LastName  string
	Birthdate model.Date
	Gender    model.Gender
	Email     string
}

type performanceRow struct {
	Athlete    athlete
	Discipline model.Discipline
	Value      float64
	Date       model.Date
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateAthletes creates athletes with unique emails and identities.
func generateAthletes(ctx context.Context, config *Config, stats *Stats) ([]athlete, error) {
	logger.Get().Info(ctx, "generating athletes", logger.Int("athletes", config.Athletes))

	athletes := make([]athlete, config.Athletes)
	for i := range athletes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during athlete generation: %w", err)
		}
		id := uuid.NewString()
		athletes[i] = athlete{
			FirstName: firstNames[i%len(firstNames)],
			LastName:  "Load-" + strings.ReplaceAll(id[:13], "-", ""),
			Birthdate: model.NewDate(birthYearFrom+randomInt(birthYearSpan), time.Month(1+randomInt(12)), 1+randomInt(28)),
			Gender:    model.Genders[i%len(model.Genders)],
			Email:     "load-" + id + "@example.com",
		}
	}
	stats.AthletesGenerated = len(athletes)
	return athletes, nil
}

// generatePerformances creates PerAthlete performances per athlete, one per
// discipline and day.
func generatePerformances(ctx context.Context, config *Config, athletes []athlete, stats *Stats) ([]performanceRow, error) {
	ref := model.DateOf(config.ReferenceAt)
	rows := make([]performanceRow, 0, len(athletes)*config.PerAthlete)
	for _, a := range athletes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during performance generation: %w", err)
		}
		for j := 0; j < config.PerAthlete; j++ {
			day := ref.Time().AddDate(0, 0, -j/len(model.DefaultDisciplines))
			rows = append(rows, performanceRow{
				Athlete:    a,
				Discipline: model.DefaultDisciplines[j%len(model.DefaultDisciplines)],
				Value:      generateVariedValue(),
				Date:       model.DateOf(day),
			})
		}
	}
	stats.PerformancesGenerated = len(rows)
	logger.Get().Info(ctx, "generated performances", logger.Int("count", len(rows)))
	return rows, nil
}

// generateVariedValue draws a value from a mix of performer profiles.
func generateVariedValue() float64 {
	var v float64
	switch randomInt(profileDivisor) {
	case caseAveragePerformer:
		v = 40 + getRandomFloat()*30
	case caseHighPerformer:
		v = 70 + getRandomFloat()*20
	case caseLowPerformer:
		v = getRandomFloat() * 40
	case caseElitePerformer:
		v = 90 + getRandomFloat()*10
	case caseMidPerformer:
		v = 55 + getRandomFloat()*25
	case caseWideRange:
		v = getRandomFloat() * 100
	}
	return float64(int(v*100)) / 100
}

func athletesCSV(athletes []athlete) ([]byte, error) {
	return writeCSV(athleteHeader, len(athletes), func(i int) []string {
		a := athletes[i]
		return []string{a.FirstName, a.LastName, a.Birthdate.String(), string(a.Gender), a.Email}
	})
}

func performancesCSV(rows []performanceRow) ([]byte, error) {
	return writeCSV(performanceHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.Athlete.FirstName,
			r.Athlete.LastName,
			r.Athlete.Birthdate.String(),
			string(r.Discipline),
			strconv.FormatFloat(r.Value, 'f', 2, 64),
			r.Date.String(),
		}
	})
}

func writeCSV(header []string, n int, record func(i int) []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// chunk splits n items into batches of size.
func chunk(n, size int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, minInt(start+size, n)})
	}
	return out
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
