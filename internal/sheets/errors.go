package sheets

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed remote call. The mediator's recovery policy
// hangs off this: only KindRateLimited has a local fallback path, every other
// kind surfaces to the caller unchanged.
type ErrorKind string

const (
	// KindRateLimited means the remote API signalled capacity exhaustion
	// (HTTP 429 / RESOURCE_EXHAUSTED). Expected to self-resolve shortly.
	KindRateLimited ErrorKind = "rate_limited"

	// KindAuth means a credential or permission failure. Never retried.
	KindAuth ErrorKind = "auth"

	// KindNotFound means the spreadsheet, worksheet or range does not exist.
	KindNotFound ErrorKind = "not_found"

	// KindTransient covers connectivity failures and unclassified server
	// errors.
	KindTransient ErrorKind = "transient"
)

// APIError is a classified failure from the Sheets API.
type APIError struct {
	Kind       ErrorKind
	StatusCode int    // HTTP status, 0 for transport-level failures
	Status     string // remote status string, e.g. "RESOURCE_EXHAUSTED"
	Message    string

	cause error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sheets: %s (http %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sheets: %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

func isKind(err error, kind ErrorKind) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == kind
}

// IsRateLimited reports whether err is a capacity-exhaustion failure.
// Uses errors.As to handle wrapped errors.
func IsRateLimited(err error) bool { return isKind(err, KindRateLimited) }

// IsAuth reports whether err is a credential or permission failure.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsNotFound reports whether err means the requested sheet or range is absent.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsTransient reports whether err is a connectivity or unclassified failure.
func IsTransient(err error) bool { return isKind(err, KindTransient) }
