package service

import "errors"

// Sentinel errors for this package. Fatal failures wrap ErrFatal together
// with a *rowerr.Error naming the kind.
var (
	ErrFatal   = errors.New("batch aborted")
	ErrNoStore = errors.New("no record store configured")
)
