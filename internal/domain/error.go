package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Error taxonomy surfaced to callers
	ErrInput              = errors.New("invalid input")
	ErrBackendUnavailable = errors.New("inference backend unavailable")
	ErrBackendTimeout     = errors.New("inference backend timed out")
	ErrCacheStore         = errors.New("cache store error")
	ErrJobStore           = errors.New("job store error")

	// Job lifecycle
	ErrJobTerminal        = errors.New("job already in a terminal state")
	ErrInvalidTransition  = errors.New("invalid job state transition")
	ErrJobNotClaimable    = errors.New("job is not in submitted state")
	ErrQueueFull          = errors.New("worker queue full")
	ErrComputeInterrupted = errors.New("compute interrupted")
)

// ErrorKind is the stable, caller-visible name of an error class.
type ErrorKind string

const (
	KindInput              ErrorKind = "InputError"
	KindBackendUnavailable ErrorKind = "BackendUnavailable"
	KindBackendTimeout     ErrorKind = "BackendTimeout"
	KindNotFound           ErrorKind = "NotFoundError"
	KindCacheStore         ErrorKind = "CacheStoreError"
	KindJobStore           ErrorKind = "JobStoreError"
	KindInternal           ErrorKind = "InternalError"
)

// KindOf classifies err against the taxonomy. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput), errors.Is(err, ErrInvalidArgument):
		return KindInput
	case errors.Is(err, ErrBackendTimeout):
		return KindBackendTimeout
	case errors.Is(err, ErrBackendUnavailable):
		return KindBackendUnavailable
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrJobStore):
		return KindJobStore
	case errors.Is(err, ErrCacheStore):
		return KindCacheStore
	default:
		return KindInternal
	}
}

// IsTransient reports whether err is worth a single retry against the backend.
func IsTransient(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrBackendTimeout)
}
