package provider

import (
	"errors"
	"net/http"

	relayerrors "github.com/railgpt/relay/errors"
	openai "github.com/sashabaranov/go-openai"
)

// FailureKind classifies a failed completion call. The set is closed.
type FailureKind int

const (
	// FailureAPI is any provider failure not covered by a narrower kind,
	// including transport errors.
	FailureAPI FailureKind = iota
	// FailureAuthentication means the provider rejected the API key.
	FailureAuthentication
	// FailureRateLimit means the provider throttled the call.
	FailureRateLimit
	// FailureBadRequest means the provider refused the request as malformed.
	FailureBadRequest
)

// FailureKinds lists every kind.
var FailureKinds = []FailureKind{FailureAuthentication, FailureRateLimit, FailureBadRequest, FailureAPI}

func (k FailureKind) String() string {
	switch k {
	case FailureAuthentication:
		return "authentication"
	case FailureRateLimit:
		return "rate_limit"
	case FailureBadRequest:
		return "bad_request"
	case FailureAPI:
		return "api_error"
	}
	return "unknown"
}

// StatusCode is the HTTP status a caller receives for this kind.
func (k FailureKind) StatusCode() int {
	switch k {
	case FailureAuthentication:
		return http.StatusUnauthorized
	case FailureRateLimit:
		return http.StatusTooManyRequests
	case FailureBadRequest:
		return http.StatusBadRequest
	case FailureAPI:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// ErrorType maps the kind onto the error taxonomy of the JSON error body.
func (k FailureKind) ErrorType() relayerrors.ErrorType {
	switch k {
	case FailureAuthentication:
		return relayerrors.AuthError
	case FailureRateLimit:
		return relayerrors.RateLimitError
	case FailureBadRequest:
		return relayerrors.BadRequestError
	case FailureAPI:
		return relayerrors.ProviderError
	}
	return relayerrors.ProviderError
}

// Prefix heads the detail message shown to callers.
func (k FailureKind) Prefix() string {
	switch k {
	case FailureAuthentication:
		return "Azure OpenAI Authentication Error"
	case FailureRateLimit:
		return "Azure OpenAI Rate Limit Exceeded"
	case FailureBadRequest:
		return "Azure OpenAI Bad Request Error"
	case FailureAPI:
		return "Azure OpenAI API Error"
	}
	return "Azure OpenAI API Error"
}

// Failure is a classified completion error. Its message embeds the
// provider's original error text.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.Prefix()
	}
	return f.Kind.Prefix() + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Classify turns a provider error into a Failure. It returns nil for a
// nil error and passes existing Failures through unchanged.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	return &Failure{Kind: kindForStatus(statusOf(err)), Err: err}
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func kindForStatus(status int) FailureKind {
	switch status {
	case http.StatusUnauthorized:
		return FailureAuthentication
	case http.StatusTooManyRequests:
		return FailureRateLimit
	case http.StatusBadRequest:
		return FailureBadRequest
	default:
		return FailureAPI
	}
}
