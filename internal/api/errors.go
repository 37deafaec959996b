package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call.
type Kind int

const (
	// KindTransport means the request never produced an HTTP response.
	KindTransport Kind = iota + 1
	KindUnauthorized
	KindValidation
	KindNotFound
	KindServer
	// KindBusiness covers every other refusal, including a 2xx body with
	// success set to false.
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindServer:
		return "server"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// Error is returned for every failed call. Message is the server's message
// verbatim when it sent one.
type Error struct {
	Kind       Kind
	StatusCode int
	Method     string
	Path       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindTransport {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s (%d)", e.Method, e.Path, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// kindForStatus maps a non-2xx status to an error kind.
func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return KindValidation
	case code == http.StatusNotFound:
		return KindNotFound
	case code >= 500:
		return KindServer
	default:
		return KindBusiness
	}
}

func isKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsTransport reports whether err is a network failure.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// Message returns the text to show a user for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.Kind == KindTransport:
			return "Cannot reach the server"
		case apiErr.Kind == KindUnauthorized:
			return "Your session has expired"
		}
	}
	return err.Error()
}
