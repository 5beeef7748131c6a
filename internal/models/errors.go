package models

import "errors"

// Sentinel errors for the analytical core. Every error that position
// and scanner return wraps one of these (with context via fmt.Errorf's
// %w), so callers can branch with errors.Is; pricing, pnl, and
// normalization return no errors at all.
var (
	// ErrNotFound indicates a referenced date, symbol, or file is missing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed configuration, an unknown
	// direction, or a non-positive quantity.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPreconditionNotMet indicates a stale price under a required leg,
	// a disconnected broker, or too few bars for analysis.
	ErrPreconditionNotMet = errors.New("precondition not met")
	// ErrInconsistentData indicates a quote row with bid>ask or a trade
	// row with negative volume.
	ErrInconsistentData = errors.New("inconsistent data")
	// ErrDeadlineExceeded indicates a broker call timed out.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	// ErrCancelled indicates a scan was cancelled before completion.
	ErrCancelled = errors.New("cancelled")
)
