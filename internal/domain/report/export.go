package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/medalist/internal/domain/model"
)

// ErrUnknownProfile is returned by ParseProfile.
var ErrUnknownProfile = errors.New("unknown export profile")

// Profile selects the outbound formatting dialect.
type Profile string

// Export profiles.
const (
	// ProfileLocalized uses ';', TT.MM.JJJJ dates and decimal commas.
	ProfileLocalized Profile = "localized"
	// ProfileISO uses ',', ISO-8601 dates and decimal points.
	ProfileISO Profile = "iso"
)

// Export headers.
var (
	AthleteHeader     = []string{"ID", "First Name", "Last Name", "Email", "Birthdate", "Gender"}
	PerformanceHeader = []string{"Name", "Vorname", "Geschlecht", "Geburtsjahr", "Übung", "Kategorie", "Datum", "Ergebnis", "Punkte"}
)

// ParseProfile parses a profile name. The empty string selects
// ProfileLocalized.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProfileLocalized:
		return ProfileLocalized, nil
	case ProfileISO:
		return ProfileISO, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
}

// Comma returns the delimiter of p.
func (p Profile) Comma() rune {
	if p == ProfileISO {
		return ','
	}
	return ';'
}

// Date formats d for p.
func (p Profile) Date(d model.Date) string {
	if p == ProfileISO {
		return d.String()
	}
	return d.German()
}

// Decimal formats s with two fractional digits for p.
func (p Profile) Decimal(s model.Score) string {
	if p == ProfileISO {
		return s.String()
	}
	return s.Comma()
}

// PerformanceLine is one row of a performance export.
type PerformanceLine struct {
	Athlete     model.Athlete
	Performance model.Performance
	// Criteria is nil when none are configured for the discipline.
	Criteria *model.MedalCriteria
}

// Exporter writes outbound CSV in a profile's dialect. Quoting of fields
// that contain the delimiter, quotes or newlines follows RFC 4180.
type Exporter struct {
	profile Profile
}

// NewExporter creates an Exporter for p.
func NewExporter(p Profile) *Exporter {
	if p == "" {
		p = ProfileLocalized
	}
	return &Exporter{profile: p}
}

// Profile returns the export profile.
func (e *Exporter) Profile() Profile { return e.profile }

// Athletes writes athletes with AthleteHeader.
func (e *Exporter) Athletes(w io.Writer, athletes []model.Athlete) error {
	cw := e.writer(w)
	if err := cw.Write(AthleteHeader); err != nil {
		return fmt.Errorf("write athlete header: %w", err)
	}
	for _, a := range athletes {
		rec := []string{
			strconv.FormatInt(a.ID, 10),
			a.FirstName,
			a.LastName,
			a.Email,
			e.profile.Date(a.Birthdate),
			string(a.Gender),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write athlete %d: %w", a.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Performances writes lines with PerformanceHeader.
func (e *Exporter) Performances(w io.Writer, lines []PerformanceLine) error {
	cw := e.writer(w)
	if err := cw.Write(PerformanceHeader); err != nil {
		return fmt.Errorf("write performance header: %w", err)
	}
	for _, l := range lines {
		category := ""
		if l.Criteria != nil {
			category = fmt.Sprintf("%d-%d Jahre", l.Criteria.MinAge, l.Criteria.MaxAge)
		}
		value := e.profile.Decimal(l.Performance.Value)
		rec := []string{
			l.Athlete.LastName,
			l.Athlete.FirstName,
			string(l.Athlete.Gender),
			strconv.Itoa(l.Athlete.Birthdate.Year),
			string(l.Performance.Discipline),
			category,
			e.profile.Date(l.Performance.Date),
			value,
			value,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write performance %d: %w", l.Performance.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *Exporter) writer(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = e.profile.Comma()
	return cw
}
