package api

import (
	"errors"
	"fmt"
)

// Validation failures caught before any request is made.
var (
	// ErrEmptyContent is returned for posts, comments and replies that are blank.
	ErrEmptyContent = errors.New("content must not be empty")
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
)

// maxErrorBody caps the response body kept on an HTTPError.
const maxErrorBody = 1024

// HTTPError is a response outside 2xx.
type HTTPError struct {
	Method     string
	Endpoint   string
	StatusCode int
	StatusText string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API Error: %d %s - %s", e.StatusCode, e.StatusText, e.Body)
}

// TransportError means no response came back at all.
type TransportError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s %s failed: %v", e.Method, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

// IsTransport reports whether err never reached the server.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
