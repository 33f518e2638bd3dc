package portalhttp

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utilibill/portal-sdk/pkg/serrors"
)

var (
	clientRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Total number of portal API calls broken down by operation and result.",
	}, []string{"operation", "result"})

	clientLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Subsystem: "client",
		Name:      "latency_seconds",
		Help:      "Latency distribution for portal API calls.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"operation", "result"})
)

func observeRequest(operation, result string, elapsed time.Duration) {
	clientRequests.WithLabelValues(operation, result).Inc()
	clientLatency.WithLabelValues(operation, result).Observe(elapsed.Seconds())
}

func resultLabel(env *Envelope, err error) string {
	if err != nil {
		var coded *serrors.Error
		if errors.As(err, &coded) {
			switch coded.Code {
			case CodeNetwork:
				return "network_error"
			case CodeBadEnvelope:
				return "bad_envelope"
			}
		}
		return "error"
	}
	if env != nil && !env.Succeeded() {
		return "api_error"
	}
	return "ok"
}
