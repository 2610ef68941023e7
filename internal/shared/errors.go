package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoDashboardAccess indicates a valid account whose role grants no
	// access to the admin panel.
	ErrNoDashboardAccess = errors.New("account has no dashboard access")
	// ErrForbidden indicates the caller lacks the capability for an action.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateEmail indicates the email is already taken by another
	// account.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrCSRFTokenMissing occurs when the CSRF token is absent.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
