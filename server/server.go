// Package server assembles the RailGPT relay: it wires metrics, attachment
// extraction, the Azure OpenAI relay and the chat processor behind the
// configured router, and runs the HTTP server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/railgpt/relay/config"
	"github.com/railgpt/relay/errors"
	"github.com/railgpt/relay/server/extract"
	"github.com/railgpt/relay/server/handlers"
	"github.com/railgpt/relay/server/metrics"
	"github.com/railgpt/relay/server/processing"
	"github.com/railgpt/relay/server/provider"
	"github.com/railgpt/relay/server/routing"
	"github.com/railgpt/relay/server/validation"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	metrics    *metrics.Metrics
	logger     *zap.Logger
	cfg        *config.Config
}

// Option customizes a Server under construction.
type Option func(*options)

type options struct {
	relayOpts []provider.Option
}

// WithClientFactory replaces the Azure OpenAI client constructor. Tests use
// it to run the full stack without network calls.
func WithClientFactory(factory provider.ClientFactory) Option {
	return func(o *options) {
		o.relayOpts = append(o.relayOpts, provider.WithClientFactory(factory))
	}
}

// NewServer builds the request pipeline described by cfg.
func NewServer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = errors.DefaultLogger
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics()
	}

	extractor := extract.NewExtractor(cfg.Extraction, logger, m)
	relay := provider.NewRelay(cfg.Relay, logger, append([]provider.Option{provider.WithMetrics(m)}, o.relayOpts...)...)

	processor, err := processing.NewProcessor(&cfg.Processing, extractor, relay, logger)
	if err != nil {
		return nil, fmt.Errorf("create processor: %w", err)
	}

	chat := validation.ValidateChat(cfg.Server.MaxBodyBytes)(handlers.NewChatHandler(processor, logger))
	handlerMap := map[string]http.Handler{
		"root": http.HandlerFunc(handlers.Root),
		"chat": chat,
	}
	routing.RegisterMetricsRoutes(handlerMap, m)

	router := routing.NewRouter(cfg, handlerMap, m, logger)
	handler := errors.ErrorHandler(logger)(router)

	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:        handler,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
		handler: handler,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// Handler returns the fully wired request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's metrics, or nil when disabled.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Start starts the server and blocks until ctx is cancelled or the
// listener fails. On cancellation in-flight requests get
// ShutdownTimeout to finish.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Server started", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info("Shutting down server", zap.Duration("timeout", timeout))
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
