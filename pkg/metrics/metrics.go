package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodeOperations counts tree mutations by operation
	// (create|upload|rename|move|copy|trash|restore|delete) and result (success|failure).
	NodeOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siimut_drive_node_operations_total",
			Help: "Total number of drive tree operations",
		},
		[]string{"operation", "result"},
	)

	// UploadBytes accumulates the size of successfully stored file uploads.
	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "siimut_drive_upload_bytes_total",
			Help: "Total bytes accepted through file uploads",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siimut_drive_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
