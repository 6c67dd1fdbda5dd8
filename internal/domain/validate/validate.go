// Package validate enforces per-row constraints on decoded rows.
//
// Validation is pure: no I/O and no state beyond the configured
// discipline set. A row either yields a typed record or a classified
// *rowerr.Error and proceeds no further.
package validate

import (
	"regexp"
	"strings"

	"github.com/okian/medalist/internal/domain/decode"
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/rowerr"
)

// MaxValue and MinValue bound an accepted performance value.
const (
	MinValue model.Score = 0
	MaxValue model.Score = 100_00
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Required fields per record type, in report order.
var (
	AthleteFields     = []string{decode.FieldFirstName, decode.FieldLastName, decode.FieldBirthdate, decode.FieldGender, decode.FieldEmail}
	PerformanceFields = []string{decode.FieldFirstName, decode.FieldLastName, decode.FieldBirthdate, decode.FieldDiscipline, decode.FieldValue, decode.FieldDate}
)

// PerformanceRow is a validated performance row before the athlete is
// resolved.
type PerformanceRow struct {
	Athlete    model.Identity
	Discipline model.Discipline
	Value      model.Score
	Date       model.Date
}

// Validator checks decoded rows.
type Validator struct {
	disciplines model.DisciplineSet
}

// New creates a Validator. Without WithDisciplines the default discipline
// set is used.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if len(v.disciplines) == 0 {
		names := make([]string, len(model.DefaultDisciplines))
		for i, d := range model.DefaultDisciplines {
			names[i] = string(d)
		}
		v.disciplines = model.NewDisciplineSet(names...)
	}
	return v
}

// Disciplines returns the configured discipline set.
func (v *Validator) Disciplines() model.DisciplineSet { return v.disciplines }

// Athlete validates an athlete row. The email is lower-cased.
func (v *Validator) Athlete(row decode.RawRow) (model.Athlete, error) {
	if row.Err != nil {
		return model.Athlete{}, row.Err
	}
	if err := requireFields(row, AthleteFields); err != nil {
		return model.Athlete{}, err
	}
	birth, err := dateField(row, decode.FieldBirthdate)
	if err != nil {
		return model.Athlete{}, err
	}
	email, err := Email(row.Text(decode.FieldEmail))
	if err != nil {
		return model.Athlete{}, err
	}
	gender, err := Gender(row.Text(decode.FieldGender))
	if err != nil {
		return model.Athlete{}, err
	}
	return model.Athlete{
		FirstName: row.Text(decode.FieldFirstName),
		LastName:  row.Text(decode.FieldLastName),
		Birthdate: birth,
		Gender:    gender,
		Email:     email,
	}, nil
}

// Performance validates a performance row.
func (v *Validator) Performance(row decode.RawRow) (PerformanceRow, error) {
	if row.Err != nil {
		return PerformanceRow{}, row.Err
	}
	if err := requireFields(row, PerformanceFields); err != nil {
		return PerformanceRow{}, err
	}
	birth, err := dateField(row, decode.FieldBirthdate)
	if err != nil {
		return PerformanceRow{}, err
	}
	discipline, err := v.Discipline(row.Text(decode.FieldDiscipline))
	if err != nil {
		return PerformanceRow{}, err
	}
	value, err := valueField(row)
	if err != nil {
		return PerformanceRow{}, err
	}
	date, err := dateField(row, decode.FieldDate)
	if err != nil {
		return PerformanceRow{}, err
	}
	return PerformanceRow{
		Athlete: model.Identity{
			FirstName: row.Text(decode.FieldFirstName),
			LastName:  row.Text(decode.FieldLastName),
			Birthdate: birth,
		},
		Discipline: discipline,
		Value:      value,
		Date:       date,
	}, nil
}

// Discipline checks name against the configured set.
func (v *Validator) Discipline(name string) (model.Discipline, error) {
	d, ok := v.disciplines.Lookup(name)
	if !ok {
		return "", rowerr.New(rowerr.InvalidDiscipline, "unknown discipline %q", name)
	}
	return d, nil
}

// Email checks s against the local@domain.tld pattern and lower-cases it.
func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !emailPattern.MatchString(s) {
		return "", rowerr.New(rowerr.InvalidEmail, "invalid email %q", s)
	}
	return strings.ToLower(s), nil
}

// Gender parses s case-insensitively.
func Gender(s string) (model.Gender, error) {
	g, err := model.ParseGender(s)
	if err != nil {
		return "", rowerr.New(rowerr.InvalidGender, "gender must be one of MALE, FEMALE, OTHER, got %q", s)
	}
	return g, nil
}

// Value checks that s lies within [MinValue, MaxValue].
func Value(s model.Score) error {
	if s < MinValue || s > MaxValue {
		return rowerr.New(rowerr.InvalidScore, "value %s is outside [0, 100]", s)
	}
	return nil
}

func requireFields(row decode.RawRow, fields []string) error {
	var missing []string
	for _, f := range fields {
		if _, ok := row.Get(f); !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return rowerr.New(rowerr.MissingFields, "missing required fields: %s", strings.Join(missing, ", ")).
		With("fields", missing)
}

func dateField(row decode.RawRow, field string) (model.Date, error) {
	v, _ := row.Get(field)
	if v.Kind != decode.KindDate {
		return model.Date{}, rowerr.New(rowerr.InvalidDateFormat, "invalid %s %q, use YYYY-MM-DD", field, v.Raw)
	}
	return v.Date, nil
}

func valueField(row decode.RawRow) (model.Score, error) {
	v, _ := row.Get(decode.FieldValue)
	if v.Kind != decode.KindNumber {
		return 0, rowerr.New(rowerr.InvalidScore, "value %q is not a number", v.Raw)
	}
	if err := Value(v.Num); err != nil {
		return 0, err
	}
	return v.Num, nil
}
