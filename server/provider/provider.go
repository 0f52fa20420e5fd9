// Package provider relays a composed prompt to Azure OpenAI and classifies
// the provider's failures.
package provider

import (
	"context"
	"time"

	"github.com/railgpt/relay/config"
	"github.com/railgpt/relay/server/metrics"
	"github.com/railgpt/relay/server/middleware"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// EmptyContentText is returned when the model answers with no content.
const EmptyContentText = "Model returned empty content."

// Credentials are the caller-supplied connection details for one request.
type Credentials struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Relay forwards chat messages to the completion provider. It holds no
// per-request state and is safe for concurrent use.
type Relay struct {
	cfg     config.RelayConfig
	factory ClientFactory
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Relay.
type Option func(*Relay)

// WithClientFactory replaces the Azure client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(r *Relay) {
		r.factory = f
	}
}

// WithMetrics records call outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// NewRelay creates a Relay.
func NewRelay(cfg config.RelayConfig, logger *zap.Logger, opts ...Option) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Relay{
		cfg:     cfg,
		factory: NewAzureClient,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Deployment returns the deployment a call with creds targets. The
// configured deployment wins unless the relay honors the caller's model.
func (r *Relay) Deployment(creds Credentials) string {
	if r.cfg.HonorRequestModel && creds.Model != "" {
		return creds.Model
	}
	return r.cfg.Deployment
}

// Complete sends messages and returns the reply text. Errors are always
// *Failure values. There are no retries.
func (r *Relay) Complete(ctx context.Context, creds Credentials, messages []openai.ChatCompletionMessage) (string, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	deployment := r.Deployment(creds)
	requestID := middleware.GetRequestID(ctx)
	client := r.factory(r.cfg, creds)

	req := openai.ChatCompletionRequest{
		Model:       deployment,
		Messages:    messages,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	}

	r.logger.Debug("sending chat completion",
		zap.String("request_id", requestID),
		zap.String("deployment", deployment),
		zap.Int("messages", len(messages)),
	)

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		failure := Classify(err)
		r.observe(start, failure)
		r.logger.Warn("chat completion failed",
			zap.String("request_id", requestID),
			zap.String("deployment", deployment),
			zap.String("kind", failure.Kind.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", failure
	}
	r.observe(start, nil)

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	r.logger.Info("chat completion succeeded",
		zap.String("request_id", requestID),
		zap.String("deployment", deployment),
		zap.Int("choices", len(resp.Choices)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)

	if content == "" {
		return EmptyContentText, nil
	}
	return content, nil
}
