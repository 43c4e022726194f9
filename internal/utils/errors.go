package utils

import "errors"

// Common application errors used across services.
var (
	// ErrTransientRemote marks a network failure or 5xx from a remote store; the
	// step that produced it is safe to retry.
	ErrTransientRemote = errors.New("TRANSIENT_REMOTE")
	// ErrConflict marks a create that collided with an existing record.
	ErrConflict = errors.New("CONFLICT")
	// ErrValidation marks malformed catalog data or a rejected payload.
	ErrValidation = errors.New("VALIDATION")
	// ErrFatalConfig aborts a run before any product is processed.
	ErrFatalConfig = errors.New("FATAL_CONFIG")

	ErrImportRunning = errors.New("IMPORT_RUNNING")
	ErrRunNotFound   = errors.New("RUN_NOT_FOUND")
	ErrGroupNotFound = errors.New("GROUP_NOT_FOUND")
)

// ErrorCode returns the API error code for err, or INTERNAL_ERROR when err is
// not one of the sentinels above.
func ErrorCode(err error) string {
	for _, s := range []error{ErrTransientRemote, ErrConflict, ErrValidation, ErrFatalConfig, ErrImportRunning, ErrRunNotFound, ErrGroupNotFound} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "INTERNAL_ERROR"
}
