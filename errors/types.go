package errors

import (
	"fmt"
	"net/http"
)

// NewError creates a new RelayError with the given parameters.
// It is a general-purpose constructor that allows full control over
// the error's fields. For most cases, use one of the specialized
// constructors below.
//
// Example:
//
//	err := NewError(ProviderError, "Azure OpenAI API Error: ...", 500, "req_123", nil, providerErr)
func NewError(errType ErrorType, message string, code int, requestID string, details map[string]interface{}, err error) *RelayError {
	return &RelayError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Details:   details,
		err:       err,
	}
}

// NewValidationError creates a validation error with appropriate defaults.
// Use this for request bodies that cannot be decoded.
//
// Example:
//
//	err := NewValidationError("req_123", "Invalid chat request format", map[string]interface{}{
//	    "error": "unexpected EOF",
//	})
func NewValidationError(requestID, message string, validationDetails map[string]interface{}) *RelayError {
	return &RelayError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		Details:   validationDetails,
	}
}

// NewUnprocessableError reports a well-formed body whose fields fail
// schema validation.
func NewUnprocessableError(requestID, message string, validationDetails map[string]interface{}) *RelayError {
	return &RelayError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusUnprocessableEntity,
		RequestID: requestID,
		Details:   validationDetails,
	}
}

// NewInternalError creates an internal server error. When err is non-nil
// its text is surfaced in the detail so callers see what went wrong.
//
// Example:
//
//	err := NewInternalError("req_123", encodeErr)
func NewInternalError(requestID string, err error) *RelayError {
	message := "An internal error occurred"
	if err != nil {
		message = fmt.Sprintf("An unexpected internal error occurred: %v", err)
	}
	return &RelayError{
		Type:      InternalError,
		Message:   message,
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewNotFoundError reports an unknown route.
func NewNotFoundError(requestID, path string) *RelayError {
	return &RelayError{
		Type:      NotFoundError,
		Message:   "Not Found",
		Code:      http.StatusNotFound,
		RequestID: requestID,
		Details: map[string]interface{}{
			"path": path,
		},
	}
}
