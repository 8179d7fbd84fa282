// Package common defines shared constants and sentinel errors used across
// adventkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrWriteFailure    = errors.New("write failure")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrMalformedRecord = errors.New("malformed record")

	// Environment errors (fatal for the whole engine, raised once at init).
	ErrUnsupportedEnvironment = errors.New("unsupported environment")

	// Transport errors.
	ErrTimeout      = errors.New("operation timed out")
	ErrWorkerFailed = errors.New("worker failed")
	ErrWorkerClosed = errors.New("worker closed")
)
