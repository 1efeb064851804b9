package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotAuthenticated is returned without touching the network when no
	// token is held (fresh start, after logout, or after expiry).
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired is returned when the backend rejects the bearer
	// token. The session clears itself before this is returned; callers
	// must abort their current operation.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnavailable wraps transport failures: timeouts, refused
	// connections, DNS errors.
	ErrUnavailable = errors.New("server unavailable")
)

// Error is a non-auth failure reported by the backend, carrying the HTTP
// status and the backend's human-readable message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, http.StatusText(e.Status))
}

// IsValidation reports whether err is a 4xx rejection of a request's
// content (excluding 401, which surfaces as ErrSessionExpired instead).
// These are shown inline on the triggering form.
func IsValidation(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// IsServer reports whether err is a 5xx backend failure.
func IsServer(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}
