package metrics

import "time"

// MetricsService wraps the request-scoped collectors so callers in
// internal/tcpserver don't reach into the package-level vars directly.
type MetricsService struct{}

// NewMetricsService builds a MetricsService.
func NewMetricsService() *MetricsService {
	return &MetricsService{}
}

// RecordRequest tallies one TCP protocol request and its handling time,
// by request type and outcome.
func (ms *MetricsService) RecordRequest(requestType string, outcome string, duration time.Duration) {
	RequestsServed.WithLabelValues(requestType, outcome).Inc()
	RequestDuration.WithLabelValues(requestType).Observe(duration.Seconds())
}
