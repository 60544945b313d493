package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// counterValue returns the current value of a Prometheus CounterVec metric
// for the given labels.
func counterValue(metric *prometheus.CounterVec, labels ...string) (float64, error) {
	c := make(chan prometheus.Metric, 1)
	metric.WithLabelValues(labels...).Collect(c)
	m := <-c

	pb := &dto.Metric{}
	if err := m.Write(pb); err != nil {
		return 0, err
	}
	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}
	return 0, nil
}
