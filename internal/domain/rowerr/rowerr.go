// Package rowerr defines the failure taxonomy of the import pipeline.
//
// Input-level failures abort a whole batch. Row-level and persistence-level
// failures isolate a single row into the error report while the batch
// continues. Fatal failures abort the batch and are reported once.
package rowerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a failure.
type Kind string

// Failure kinds.
const (
	MalformedInput      Kind = "MalformedInput"
	MissingFields       Kind = "MissingFields"
	InvalidEmail        Kind = "InvalidEmail"
	InvalidGender       Kind = "InvalidGender"
	InvalidDiscipline   Kind = "InvalidDiscipline"
	InvalidScore        Kind = "InvalidScore"
	InvalidDateFormat   Kind = "InvalidDateFormat"
	DuplicateInBatch    Kind = "DuplicateInBatch"
	AthleteNotFound     Kind = "AthleteNotFound"
	AgeRestriction      Kind = "AgeRestriction"
	BelowThreshold      Kind = "BelowThreshold"
	DuplicateEntry      Kind = "DuplicateEntry"
	HasDependentRecords Kind = "HasDependentRecords"
	StoreTimeout        Kind = "StoreTimeout"
	NotFound            Kind = "NotFound"
	StoreUnavailable    Kind = "StoreUnavailable"
	ConfigMissing       Kind = "ConfigMissing"
	Internal            Kind = "Internal"
)

// Category groups kinds by how far a failure propagates.
type Category int

// Categories.
const (
	CategoryRow Category = iota
	CategoryInput
	CategoryPersistence
	CategoryFatal
)

// Category returns the propagation category of k.
func (k Kind) Category() Category {
	switch k {
	case MalformedInput:
		return CategoryInput
	case DuplicateEntry, HasDependentRecords, StoreTimeout, NotFound, Internal:
		return CategoryPersistence
	case StoreUnavailable, ConfigMissing:
		return CategoryFatal
	default:
		return CategoryRow
	}
}

// HTTPStatus returns the status a transport should use when k rejects a
// whole request.
func (k Kind) HTTPStatus() int {
	switch k {
	case DuplicateEntry, HasDependentRecords:
		return http.StatusConflict
	case NotFound, AthleteNotFound:
		return http.StatusNotFound
	case StoreTimeout:
		return http.StatusGatewayTimeout
	case StoreUnavailable:
		return http.StatusServiceUnavailable
	case ConfigMissing, Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Error is a classified failure. Fields carries structured context such as
// the computed age and bounds of an AgeRestriction.
type Error struct {
	Kind   Kind
	Detail string
	Fields map[string]any
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of kind k with a formatted detail message.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies err as kind k.
func Wrap(k Kind, err error) *Error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &Error{Kind: k, Detail: detail, Err: err}
}

// With attaches a structured field and returns e.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// KindOf returns the kind of err, or Internal if err is not classified.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind k.
func Is(err error, k Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == k
}
