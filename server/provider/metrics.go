package provider

import "time"

const outcomeSuccess = "success"

// observe records one completion call. A nil failure counts as success.
func (r *Relay) observe(start time.Time, failure *Failure) {
	if r.metrics == nil {
		return
	}
	outcome := outcomeSuccess
	if failure != nil {
		outcome = failure.Kind.String()
	}
	r.metrics.ProviderRequestsTotal.WithLabelValues(outcome).Inc()
	r.metrics.ProviderRequestDuration.Observe(time.Since(start).Seconds())
}
