// Package loadgen drives a running medalist server with synthetic batches
// and verifies the grading it reports.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Athletes    int           // Number of athletes to generate
	PerAthlete  int           // Performances per athlete
	BatchSize   int           // Rows per uploaded file
	Workers     int           // Concurrent uploads
	Timeout     time.Duration // HTTP request timeout
	Force       bool          // Overwrite existing performances
	OutputDir   string        // Directory for the generated CSV files and error reports
	Verbose     bool          // Log every batch
	ReferenceAt time.Time     // Date the performances are generated around
}

// Stats holds run statistics.
type Stats struct {
	AthletesGenerated     int
	PerformancesGenerated int
	BatchesSubmitted      int
	BatchesFailed         int
	RowsSucceeded         int
	RowsFailed            int
	ErrorsByKind          map[string]int
	MedalsByTier          map[string]int
	PerformancesVerified  int
	StartTime             time.Time
	EndTime               time.Time
	Duration              time.Duration
}

// importResult mirrors the import response body.
type importResult struct {
	BatchID      string     `json:"batchId"`
	Rows         int        `json:"rows"`
	SuccessCount int        `json:"successCount"`
	ErrorCount   int        `json:"errorCount"`
	ErrorReport  string     `json:"errorReport"`
	Errors       []errorRow `json:"errors"`
}

type errorRow struct {
	Row   int    `json:"row"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type performance struct {
	ID         int64   `json:"id"`
	AthleteID  int64   `json:"athleteId"`
	Discipline string  `json:"discipline"`
	Value      float64 `json:"value"`
	Date       string  `json:"date"`
	Medal      string  `json:"medal"`
}

type criteria struct {
	Discipline string  `json:"discipline"`
	MinAge     int     `json:"minAge"`
	MaxAge     int     `json:"maxAge"`
	Bronze     float64 `json:"bronzeValue"`
	Silver     float64 `json:"silverValue"`
	Gold       float64 `json:"goldValue"`
}
