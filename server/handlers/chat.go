// Package handlers provides the HTTP handlers of the RailGPT relay.
//
// Request decoding and schema validation happen in the validation
// middleware. Handlers read the validated request from the context, run it
// through the processor and translate failures into JSON error bodies.
package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/railgpt/relay/errors"
	"github.com/railgpt/relay/server/middleware"
	"github.com/railgpt/relay/server/processing"
	"github.com/railgpt/relay/server/provider"
	"github.com/railgpt/relay/server/validation"
	"go.uber.org/zap"
)

// ChatProcessor runs a chat request end to end.
type ChatProcessor interface {
	ProcessRequest(ctx context.Context, req *processing.Request) (*processing.Response, error)
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	processor ChatProcessor
	logger    *zap.Logger
}

// NewChatHandler creates a chat handler around processor.
func NewChatHandler(processor ChatProcessor, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = errors.DefaultLogger
	}
	return &ChatHandler{
		processor: processor,
		logger:    logger,
	}
}

// ServeHTTP expects to run behind validation.ValidateChat.
//
// Error Handling:
//   - provider failures keep their classified status (401, 429, 400, 500)
//     and the provider's message in the detail
//   - anything else is reported as an internal error carrying its text
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	chatReq, ok := validation.ChatRequestFromContext(ctx)
	if !ok {
		relayErr := errors.NewInternalError(requestID, stderrors.New("chat request missing from context"))
		errors.LogError(h.logger, relayErr, requestID)
		errors.WriteError(w, relayErr)
		return
	}

	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("model", chatReq.Model),
		zap.Int("files", len(chatReq.Files)),
	)
	logger.Info("Processing chat request")

	resp, err := h.processor.ProcessRequest(ctx, toProcessingRequest(chatReq))
	if err != nil {
		relayErr := toRelayError(err, requestID)
		errors.LogError(logger, relayErr, requestID)
		errors.WriteError(w, relayErr)
		return
	}

	skipped := 0
	for _, o := range resp.Attachments {
		if !o.Extracted() {
			skipped++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ChatResponse{Response: resp.Content}); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
		return
	}

	logger.Debug("Request successful",
		zap.Int("response_length", len(resp.Content)),
		zap.Int("skipped_files", skipped),
	)
}

func toProcessingRequest(req *validation.ChatRequest) *processing.Request {
	return &processing.Request{
		Credentials: provider.Credentials{
			Endpoint: req.AzureEndpoint,
			APIKey:   req.AzureAPIKey,
			Model:    req.Model,
		},
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Attachments:  req.Files,
	}
}

// toRelayError maps a processing error onto the JSON error taxonomy.
func toRelayError(err error, requestID string) *errors.RelayError {
	var failure *provider.Failure
	if stderrors.As(err, &failure) {
		return errors.NewError(
			failure.Kind.ErrorType(),
			failure.Error(),
			failure.Kind.StatusCode(),
			requestID,
			nil,
			failure,
		)
	}
	return errors.NewInternalError(requestID, err)
}
