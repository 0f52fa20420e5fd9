package errors

import (
	"errors"
)

// ErrorResponse is the wire shape of an error as seen by clients. Tests
// decode response bodies into it.
type ErrorResponse struct {
	Type      ErrorType              `json:"type"`
	Detail    string                 `json:"detail"`
	RequestID string                 `json:"request_id"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// As is a wrapper around errors.As for better error type assertion
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
