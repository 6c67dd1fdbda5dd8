// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and MEDALIST_ env vars.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/medalist/internal/domain/model"
)

// Criteria configures the age band and medal thresholds of one discipline.
type Criteria struct {
	Discipline string  `koanf:"discipline"`
	MinAge     int     `koanf:"min_age"`
	MaxAge     int     `koanf:"max_age"`
	Bronze     float64 `koanf:"bronze"`
	Silver     float64 `koanf:"silver"`
	Gold       float64 `koanf:"gold"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount bounds the number of rows processed concurrently.
	WorkerCount int `koanf:"worker_count"`

	// StoreTimeoutMS bounds a single store call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// RequestTimeoutMS bounds a whole HTTP request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// MaxUploadBytes caps request bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// DatabaseURL selects PostgreSQL. Empty means the in-memory store.
	DatabaseURL string `koanf:"database_url"`
	DBMaxConns  int    `koanf:"db_max_conns"`
	DBMinConns  int    `koanf:"db_min_conns"`
	DBMigrate   bool   `koanf:"db_migrate"`

	// Disciplines is the discipline enum performance rows are checked against.
	Disciplines []string `koanf:"disciplines"`

	// CSVDelimiter fixes the input and error report delimiter. Empty sniffs
	// it from the header line.
	CSVDelimiter string `koanf:"csv_delimiter"`

	// ExportProfile is the default export dialect: localized or iso.
	ExportProfile string `koanf:"export_profile"`

	// Criteria are seeded into the store at start-up.
	Criteria []Criteria `koanf:"criteria"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	disciplines := make([]string, len(model.DefaultDisciplines))
	for i, d := range model.DefaultDisciplines {
		disciplines[i] = string(d)
	}
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		WorkerCount:      runtime.NumCPU() * 4,
		StoreTimeoutMS:   5_000,
		RequestTimeoutMS: 60_000,
		MaxUploadBytes:   10 << 20,
		DBMaxConns:       10,
		DBMinConns:       0,
		DBMigrate:        true,
		Disciplines:      disciplines,
		ExportProfile:    "localized",
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Comma returns the configured CSV delimiter, or 0 to sniff it.
func (c *Config) Comma() rune {
	if c.CSVDelimiter == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// DisciplineSet returns the configured discipline enum.
func (c *Config) DisciplineSet() model.DisciplineSet {
	return model.NewDisciplineSet(c.Disciplines...)
}

// MedalCriteria converts the configured criteria into domain values.
func (c *Config) MedalCriteria() []model.MedalCriteria {
	out := make([]model.MedalCriteria, 0, len(c.Criteria))
	for _, cr := range c.Criteria {
		out = append(out, model.MedalCriteria{
			Discipline: model.Discipline(strings.ToUpper(strings.TrimSpace(cr.Discipline))),
			MinAge:     cr.MinAge,
			MaxAge:     cr.MaxAge,
			Bronze:     model.ScoreFromFloat(cr.Bronze),
			Silver:     model.ScoreFromFloat(cr.Silver),
			Gold:       model.ScoreFromFloat(cr.Gold),
		})
	}
	return out
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Addr == "" {
		errs = append(errs, "addr must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log_format %q is not one of text, json", c.LogFormat))
	}
	if c.WorkerCount < 1 {
		errs = append(errs, "worker_count must be at least 1")
	}
	if c.StoreTimeoutMS < 1 {
		errs = append(errs, "store_timeout_ms must be positive")
	}
	if c.RequestTimeoutMS < 1 {
		errs = append(errs, "request_timeout_ms must be positive")
	}
	if c.MaxUploadBytes < 1 {
		errs = append(errs, "max_upload_bytes must be positive")
	}
	if c.DBMaxConns < 1 {
		errs = append(errs, "db_max_conns must be at least 1")
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		errs = append(errs, "db_min_conns must be between 0 and db_max_conns")
	}
	if len(c.DisciplineSet()) == 0 {
		errs = append(errs, "disciplines must not be empty")
	}
	if utf8.RuneCountInString(c.CSVDelimiter) > 1 {
		errs = append(errs, fmt.Sprintf("csv_delimiter %q must be a single character", c.CSVDelimiter))
	}
	switch c.Comma() {
	case '"', '\r', '\n', utf8.RuneError:
		errs = append(errs, fmt.Sprintf("csv_delimiter %q is not usable", c.CSVDelimiter))
	}
	switch strings.ToLower(c.ExportProfile) {
	case "", "localized", "iso":
	default:
		errs = append(errs, fmt.Sprintf("export_profile %q is not one of localized, iso", c.ExportProfile))
	}

	disciplines := c.DisciplineSet()
	seen := make(map[model.Discipline]struct{}, len(c.Criteria))
	for i, mc := range c.MedalCriteria() {
		prefix := fmt.Sprintf("criteria[%d] (%s)", i, mc.Discipline)
		if _, ok := disciplines[mc.Discipline]; !ok {
			errs = append(errs, prefix+": discipline is not configured")
		}
		if _, dup := seen[mc.Discipline]; dup {
			errs = append(errs, prefix+": duplicate discipline")
		}
		seen[mc.Discipline] = struct{}{}
		if mc.MinAge < 0 || mc.MinAge > mc.MaxAge {
			errs = append(errs, prefix+": min_age must be between 0 and max_age")
		}
		if mc.Bronze < 0 || mc.Bronze > mc.Silver || mc.Silver > mc.Gold || mc.Gold > 100_00 {
			errs = append(errs, prefix+": thresholds must satisfy 0 <= bronze <= silver <= gold <= 100")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}
