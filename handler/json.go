package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorDetail is the body of every error response: {"error":{"code","message"}}.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error ErrorDetail `json:"error"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithStatus overrides the response status code.
func WithStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON renders v as the response body with status 200.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err. An *HTTPError in the chain supplies the status, code
// and message; anything else becomes a generic 500 that hides err's text.
func JSONError(err error, opts ...JSONOption) Response {
	httpErr := ErrInternal
	var he *HTTPError
	if errors.As(err, &he) {
		httpErr = he
	}
	r := &jsonResponse{
		status: httpErr.Status,
		body:   errorBody{Error: ErrorDetail{Code: httpErr.Code, Message: httpErr.Message}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
