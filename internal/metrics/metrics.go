// Package metrics provides Prometheus instrumentation for the encrypt and
// decrypt pipelines and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all metrics
	Namespace = "qkdotp"

	// Label names
	LabelOperation  = "operation"
	LabelStatus     = "status"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"

	// Operation names
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"

	// StatusSuccess labels a successful operation; failures use the error code
	StatusSuccess = "success"
)

var (
	// OperationsTotal counts pipeline runs by operation and outcome.
	// The status label is "success" or the error code.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of encrypt/decrypt operations by outcome",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks pipeline latency in seconds
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of encrypt/decrypt operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{LabelOperation},
	)

	// SiftedRatio observes the fraction of raw bits kept by sifting
	SiftedRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "sifted_ratio",
			Help:      "Fraction of raw exchange bits kept after basis sifting",
			Buckets:   prometheus.LinearBuckets(0.40, 0.02, 11),
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)
)

// RecordOperation records the outcome and duration of one pipeline run
func RecordOperation(operation, status string, duration time.Duration) {
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSifting records the kept fraction of one exchange
func RecordSifting(percentKept float64) {
	SiftedRatio.Observe(percentKept)
}
