package apiclient

import (
	"fmt"
)

// Kind classifies an API failure for the initiating screen. Validation
// and network failures never touch session state; auth failures are
// handled by the interceptor before the caller sees them.
type Kind string

const (
	KindAuth       Kind = "AUTH_ERROR"
	KindNetwork    Kind = "NETWORK_ERROR"
	KindValidation Kind = "VALIDATION_ERROR"
	KindServer     Kind = "SERVER_ERROR"
	KindUnknown    Kind = "UNKNOWN_ERROR"
)

// APIError is a failed API call with its classification and the
// server-provided message when one exists.
type APIError struct {
	StatusCode int
	Kind       Kind
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
}

// classifyStatus maps an HTTP status to a failure kind.
func classifyStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 400 || status == 422:
		return KindValidation
	case status >= 500:
		return KindServer
	}
	return KindUnknown
}

// UserMessage returns the default user-facing text for a failure kind,
// used when the server supplied no message.
func (k Kind) UserMessage() string {
	switch k {
	case KindAuth:
		return "Session error. Please log in again."
	case KindNetwork:
		return "Check your internet connection."
	case KindValidation:
		return "Please check the information you entered."
	case KindServer:
		return "Server error. Please try again later."
	}
	return "Something went wrong. Please try again."
}
