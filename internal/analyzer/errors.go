package analyzer

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork means the request never got a response.
	ErrNetwork = errors.New("network error")
	// ErrServiceUnavailable is the 503 the service answers with when its
	// upstream credentials are missing or rejected.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrNotIdentified means the service answered but could not identify
	// the equipment.
	ErrNotIdentified = errors.New("equipment not identified")
)

// StatusError is a non-2xx response other than 503.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: status %d, body: %s", e.Code, e.Body)
}

// UserMessage turns an analyzer error into the single alert text shown to
// the user.
func UserMessage(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrServiceUnavailable):
		return "Service Unavailable (Check API Key)"
	case errors.As(err, &se):
		return fmt.Sprintf("Server Error: %d", se.Code)
	case errors.Is(err, ErrNetwork):
		return "Network Error. Is the backend running?"
	case errors.Is(err, ErrNotIdentified):
		return "Could not identify the equipment. Try another photo or enter the details manually."
	case errors.Is(err, ErrMakeRequired):
		return "Please enter a make to search prices."
	default:
		return "Failed to analyze image."
	}
}

func statusError(code int, body []byte) error {
	if code == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, string(body))
	}
	return &StatusError{Code: code, Body: string(body)}
}
