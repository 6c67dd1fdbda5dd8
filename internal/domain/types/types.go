// Package types contains the response shapes shared by the service and
// its transports.
package types

import (
	"github.com/okian/medalist/internal/domain/model"
	"github.com/okian/medalist/internal/domain/report"
)

// RecordKind names the entity a batch imports.
type RecordKind string

// Record kinds.
const (
	RecordAthlete     RecordKind = "athlete"
	RecordPerformance RecordKind = "performance"
)

// Status tells whether a record was created or overwritten.
type Status string

// Record statuses.
const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
)

// ImportResult is the outcome of one batch. SuccessCount + ErrorCount
// equals Rows.
type ImportResult struct {
	BatchID      string       `json:"batchId"`
	Kind         RecordKind   `json:"kind"`
	Rows         int          `json:"rows"`
	SuccessCount int          `json:"successCount"`
	ErrorCount   int          `json:"errorCount"`
	ErrorReport  string       `json:"errorReport"`
	Errors       []report.Row `json:"errors"`
	Records      []Record     `json:"records"`
}

// Record is one persisted row of a batch.
type Record struct {
	Row         int              `json:"row"`
	Status      Status           `json:"status"`
	Athlete     *model.Athlete   `json:"athlete,omitempty"`
	Performance *PerformanceView `json:"performance,omitempty"`
}

// PerformanceView is a performance annotated for display.
type PerformanceView struct {
	model.Performance
	AthleteName string `json:"athleteName,omitempty"`
	// Warning is set for stored rows outside the current age band.
	Warning string `json:"warning,omitempty"`
}

// ScoreSubmission is an ad hoc score for an existing athlete.
type ScoreSubmission struct {
	AthleteID  int64       `json:"athleteId"`
	Discipline string      `json:"discipline"`
	Value      model.Score `json:"value"`
	// Date defaults to today.
	Date  model.Date `json:"date"`
	Force bool       `json:"force"`
}

// AthleteUpdate carries the editable athlete fields. Empty fields are kept.
type AthleteUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Birthdate string `json:"birthdate"`
	Gender    string `json:"gender"`
}

// Stats summarizes the service state.
type Stats struct {
	Athletes     int `json:"athletes"`
	Performances int `json:"performances"`
	Criteria     int `json:"criteria"`
	Workers      int `json:"workers"`
}

// Export is a rendered CSV download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}
