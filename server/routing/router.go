// Package routing builds the relay's HTTP route table from configuration.
// Every route maps a path and a set of methods onto a named handler and
// runs behind the global middleware stack.
package routing

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/railgpt/relay/config"
	"github.com/railgpt/relay/errors"
	"github.com/railgpt/relay/server/handlers"
	"github.com/railgpt/relay/server/metrics"
	"github.com/railgpt/relay/server/middleware"
	"go.uber.org/zap"
)

// Router handles HTTP routing for the configured routes.
// It provides:
//   - Version-based path prefixes (v1, v2, etc.)
//   - Header validation
//   - Method restrictions
//   - JSON 404 and 405 responses
//   - A global /health endpoint
type Router struct {
	router   chi.Router              // Chi router instance for HTTP routing
	handlers map[string]http.Handler // Map of handler names to implementations
	logger   *zap.Logger             // Logger instance for error and debug logging
	cfg      *config.Config          // Server configuration
}

// NewRouter creates a new router with the given configuration.
// It installs the global middleware stack and configures all routes.
//
// Parameters:
//   - cfg: Server configuration containing route definitions and CORS policy
//   - handlers: Map of handler names to their implementations
//   - m: Metrics recorded per request, may be nil
//   - logger: Logger instance for request and error logging
func NewRouter(cfg *config.Config, handlers map[string]http.Handler, m *metrics.Metrics, logger *zap.Logger) *Router {
	if logger == nil {
		logger = errors.DefaultLogger
	}
	r := &Router{
		router:   chi.NewRouter(),
		handlers: handlers,
		logger:   logger,
		cfg:      cfg,
	}

	// Add global middleware stack
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Logging(logger))
	r.router.Use(middleware.PrometheusMetrics(m))
	r.router.Use(middleware.RequestTimer)
	r.router.Use(middleware.Recovery(logger))
	r.router.Use(middleware.CORS(cfg.CORS))

	r.router.NotFound(notFound)
	r.router.MethodNotAllowed(methodNotAllowed)

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes based on the configuration.
// For each route in the configuration:
//   - Adds version prefix if specified
//   - Sets up header validation
//   - Restricts HTTP methods
func (r *Router) setupRoutes() {
	for _, route := range r.cfg.Routes {
		handler, ok := r.handlers[route.Handler]
		if !ok {
			r.logger.Warn("handler not found, route skipped",
				zap.String("handler", route.Handler),
				zap.String("path", route.Path),
			)
			continue
		}

		path := route.Path
		if route.Version != "" {
			path = fmt.Sprintf("/%s%s", route.Version, path)
		}

		route := route
		r.router.Group(func(router chi.Router) {
			if len(route.Headers) > 0 {
				router.Use(requireHeaders(route.Headers))
			}

			methods := route.Methods
			if len(methods) == 0 {
				methods = []string{http.MethodGet}
			}
			for _, method := range methods {
				router.Method(method, path, handler)
			}
		})

		r.logger.Debug("route registered",
			zap.String("path", path),
			zap.String("handler", route.Handler),
			zap.Strings("methods", route.Methods),
		)
	}

	// Add global health check endpoint
	r.router.Get("/health", handlers.Health)
}

// requireHeaders rejects requests whose headers do not carry the exact
// configured values.
func requireHeaders(headers map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for key, value := range headers {
				if r.Header.Get(key) != value {
					errors.ErrorWithType(w, fmt.Sprintf("missing or invalid header: %s", key),
						errors.ValidationError, http.StatusBadRequest)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	errors.WriteError(w, errors.NewNotFoundError(middleware.GetRequestID(r.Context()), r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	errors.WriteError(w, errors.NewError(
		errors.ValidationError,
		"Method not allowed",
		http.StatusMethodNotAllowed,
		middleware.GetRequestID(r.Context()),
		map[string]interface{}{"method": r.Method},
		nil,
	))
}

// ServeHTTP implements the http.Handler interface.
// Delegates request handling to the underlying Chi router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
