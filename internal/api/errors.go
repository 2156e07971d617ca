package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated is matched by any 401 response.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrTransport wraps failures that never produced an HTTP response.
	ErrTransport = errors.New("backend unreachable")
)

// Error is a non-2xx response from the backend. Message is the backend's
// own wording and is shown to the partner unchanged.
type Error struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthenticated && e.StatusCode == http.StatusUnauthorized
}

// IsValidation reports whether the backend rejected the input itself.
func (e *Error) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

func (e *Error) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// Message extracts the text to show to the partner for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, ErrTransport) {
		return "Unable to reach the server. Please try again."
	}
	return err.Error()
}
