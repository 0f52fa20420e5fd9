package routing

import (
	"net/http"

	"github.com/railgpt/relay/server/metrics"
)

// MetricsHandlerName is the handler name routes use for the Prometheus
// exposition endpoint.
const MetricsHandlerName = "metrics"

// RegisterMetricsRoutes makes the Prometheus handler of m available to
// routes naming MetricsHandlerName. A nil m registers nothing.
func RegisterMetricsRoutes(handlers map[string]http.Handler, m *metrics.Metrics) {
	if m == nil {
		return
	}
	handlers[MetricsHandlerName] = m.Handler()
}
