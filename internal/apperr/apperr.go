// Package apperr defines the gateway's error taxonomy and the mapping
// from upstream HTTP statuses to user-facing messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Severity tags an error for presentation purposes.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ErrUnauthenticated is returned when no session token is present or the
// token fails verification.
var ErrUnauthenticated = errors.New("unauthenticated")

// ValidationError reports a missing or invalid field caught before any
// network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UpstreamError reports a non-2xx response from the backend or the asset
// host.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// Severity classifies the upstream status for user feedback.
func (e *UpstreamError) Severity() Severity {
	switch e.Status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict,
		http.StatusUnprocessableEntity, http.StatusTooManyRequests:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// NetworkError reports a request that could not be sent or received at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Message returns the user-facing message for an upstream HTTP status.
// Unknown statuses get the fallback message.
func Message(status int, fallback string) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request. Please check your input."
	case http.StatusUnauthorized:
		return "You are not authenticated. Please log in."
	case http.StatusForbidden:
		return "You don't have permission to perform this action."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "This resource already exists or conflicts with existing data."
	case http.StatusUnprocessableEntity:
		return "The data provided is invalid or incomplete."
	case http.StatusTooManyRequests:
		return "Too many requests. Please try again later."
	case http.StatusInternalServerError:
		return "Server error. Please try again later."
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "Service temporarily unavailable. Please try again later."
	default:
		return fallback
	}
}
