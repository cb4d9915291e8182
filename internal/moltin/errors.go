package moltin

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound marks a 404 from the backend.
	ErrNotFound = errors.New("moltin: resource not found")
	// ErrUnauthorized marks a rejected or expired access token.
	ErrUnauthorized = errors.New("moltin: unauthorized")
	// ErrUpstream marks any other non-success status.
	ErrUpstream = errors.New("moltin: upstream error")
	// ErrBadResponse marks a success status with an unreadable body.
	ErrBadResponse = errors.New("moltin: malformed response")
)

// APIError describes a failed backend call. It matches its sentinel with errors.Is.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("moltin: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	errs := []error{e.Sentinel}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StatusCode returns the HTTP status of the failed call.
func (e *APIError) StatusCode() int {
	return e.Status
}

// Code is the err_code value used in logs.
func (e *APIError) Code() string {
	switch e.Sentinel {
	case ErrNotFound:
		return "moltin_not_found"
	case ErrUnauthorized:
		return "moltin_unauthorized"
	case ErrBadResponse:
		return "moltin_bad_response"
	}
	return "moltin_upstream"
}

func statusError(op string, status int, body string) *APIError {
	sentinel := ErrUpstream
	switch status {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	}
	return &APIError{Sentinel: sentinel, Operation: op, Status: status, Body: body}
}
