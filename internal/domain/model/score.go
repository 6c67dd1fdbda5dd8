package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidNumber is returned when a value cannot be parsed as a decimal.
var ErrInvalidNumber = errors.New("invalid number")

// Score is a decimal with two fractional digits, stored in hundredths.
type Score int64

// ScoreFromFloat rounds f to two fractional digits.
func ScoreFromFloat(f float64) Score {
	return Score(math.Round(f * 100))
}

// ParseScore parses s, accepting both '.' and ',' as the decimal separator.
func ParseScore(s string) (Score, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	normalized := strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return ScoreFromFloat(f), nil
}

// Float64 returns the score as a float.
func (s Score) Float64() float64 { return float64(s) / 100 }

// String renders the score with exactly two fractional digits.
func (s Score) String() string {
	sign := ""
	v := int64(s)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Comma renders the score with a comma as decimal separator.
func (s Score) Comma() string {
	return strings.Replace(s.String(), ".", ",", 1)
}

// MarshalJSON encodes the score as a JSON number with two fractional digits.
func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalJSON accepts a JSON number or a string using either separator.
func (s *Score) UnmarshalJSON(b []byte) error {
	parsed, err := ParseScore(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
