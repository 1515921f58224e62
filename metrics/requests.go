package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics are the default service metrics for HTTP requests.
type RequestMetrics struct {
	// Counts of requests made to each endpoint, partitioned by status.
	requestCounts *prometheus.CounterVec

	// Latencies of serving incoming requests.
	requestLatencies *prometheus.HistogramVec
}

// NewDefaultRequestMetrics creates Prometheus metric instrumentation for
// basic metrics common to serving requests.
func NewDefaultRequestMetrics(pkg string) RequestMetrics {
	return RequestMetrics{
		requestCounts: registerOnce(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_requests", pkg),
				Help: "How many requests were served, partitioned by endpoint and status.",
			},
			[]string{"endpoint", "status"},
		)),
		requestLatencies: registerOnce(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_request_latencies", pkg),
				Help: "How long requests take to serve, partitioned by endpoint.",
			},
			[]string{"endpoint"},
		)),
	}
}

// RequestCounts returns the counter for the endpoint and status.
func (m RequestMetrics) RequestCounts(endpoint, status string) prometheus.Counter {
	return m.requestCounts.WithLabelValues(endpoint, status)
}

// RequestLatencies returns the latency observer for the endpoint.
func (m RequestMetrics) RequestLatencies(endpoint string) prometheus.Observer {
	return m.requestLatencies.WithLabelValues(endpoint)
}
