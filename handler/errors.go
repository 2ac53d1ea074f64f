package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries a status code and a machine-readable code. Message is
// shown to the client; Err is kept for logging only.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// NewHTTPError builds an HTTPError. An empty message defaults to the status text.
func NewHTTPError(status int, code, message string, cause error) *HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &HTTPError{Status: status, Code: code, Message: message, Err: cause}
}

var ErrInternal = &HTTPError{
	Status:  http.StatusInternalServerError,
	Code:    "internal_error",
	Message: "Internal server error",
}
