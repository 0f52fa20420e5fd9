package validation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/railgpt/relay/errors"
	"github.com/railgpt/relay/server/middleware"
)

type chatRequestKey struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateChat decodes and validates chat request bodies of at most
// maxBodyBytes. A malformed body is answered with 400, a well-formed body
// with invalid fields with 422. The decoded request is stored in the
// request context for ChatRequestFromContext.
func ValidateChat(maxBodyBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetRequestID(r.Context())

			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					errors.WriteError(w, errors.NewValidationError(requestID,
						"Invalid or missing Content-Type header",
						detailsOf(ValidationErrorDetail{
							Field:   "header:Content-Type",
							Message: "Content-Type must be application/json",
							Code:    "invalid_content_type",
						}),
					))
					return
				}
			}

			if maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			req, relayErr := decodeChatRequest(r, requestID)
			if relayErr != nil {
				errors.WriteError(w, relayErr)
				return
			}

			ctx := context.WithValue(r.Context(), chatRequestKey{}, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ChatRequestFromContext returns the request stored by ValidateChat.
func ChatRequestFromContext(ctx context.Context) (*ChatRequest, bool) {
	req, ok := ctx.Value(chatRequestKey{}).(*ChatRequest)
	return req, ok
}

func decodeChatRequest(r *http.Request, requestID string) (*ChatRequest, *errors.RelayError) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &maxErr):
			return nil, errors.NewError(errors.ValidationError,
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit),
				http.StatusRequestEntityTooLarge, requestID, nil, err)
		case stderrors.As(err, &typeErr):
			return nil, errors.NewUnprocessableError(requestID, "Request validation failed",
				detailsOf(ValidationErrorDetail{
					Field:   typeErr.Field,
					Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
					Code:    "type_validation_failed",
				}))
		default:
			return nil, errors.NewValidationError(requestID, "Invalid request format",
				detailsOf(ValidationErrorDetail{
					Field:   "body",
					Message: err.Error(),
					Code:    "invalid_json",
				}))
		}
	}

	if details := ValidateChatRequest(&req); len(details) > 0 {
		return nil, errors.NewUnprocessableError(requestID, "Request validation failed", detailsOf(details...))
	}
	return &req, nil
}

// ValidateChatRequest checks req against its schema and returns one detail
// per invalid field.
func ValidateChatRequest(req *ChatRequest) []ValidationErrorDetail {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []ValidationErrorDetail{{Field: "request", Message: err.Error(), Code: "invalid_request"}}
	}

	details := make([]ValidationErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ValidationErrorDetail{
			Field:   fieldPath(fe.Namespace()),
			Message: messageFor(fe),
			Code:    fmt.Sprintf("%s_validation_failed", fe.Tag()),
		})
	}
	return details
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("field '%s' failed '%s' validation", fe.Field(), fe.Tag())
	}
}

func detailsOf(details ...ValidationErrorDetail) map[string]interface{} {
	return map[string]interface{}{"errors": details}
}
