package shared

import (
	"errors"

	"github.com/weprixetechnologies/cly-admin/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage converts an error into text fit for a form banner. The
// seller API's own message is kept for validation and conflict failures;
// everything else collapses to a generic line so internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, httpx.ErrValidation), errors.Is(err, httpx.ErrDuplicate):
		return err.Error()
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, ErrNotFound):
		return "The requested record no longer exists"
	case errors.Is(err, httpx.ErrUnauthorized):
		return "Your session has expired, please sign in again"
	case errors.Is(err, httpx.ErrForbidden):
		return "You do not have access to perform this action"
	case errors.Is(err, httpx.ErrUnavailable):
		return "The seller backend is unreachable, please try again"
	default:
		return "Something went wrong, please try again"
	}
}
