package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("unique constraint violated")
	ErrHasDependents = errors.New("record has dependent records")
	ErrUnavailable   = errors.New("store unavailable")
)
