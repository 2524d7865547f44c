// Package telemetry provides observability primitives for the linear CLI.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the query cache and transport.
type Metrics struct {
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	CacheWriteErrors prometheus.Counter
	UpstreamDuration *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linear",
			Name:      "cache_hits_total",
			Help:      "Total query cache hits.",
		}),

		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linear",
			Name:      "cache_misses_total",
			Help:      "Total query cache misses.",
		}),

		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linear",
			Name:      "cache_write_errors_total",
			Help:      "Total failed query cache writes.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "linear",
			Name:                            "upstream_duration_seconds",
			Help:                            "Live GraphQL request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"operation"}),

		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linear",
			Name:      "upstream_errors_total",
			Help:      "Total failed live GraphQL requests by kind (transport, remote).",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.CacheWriteErrors,
		m.UpstreamDuration,
		m.UpstreamErrors,
	)

	return m
}

// WriteTextfile writes all metrics gathered from g to path in the text
// exposition format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("telemetry: create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("telemetry: write metrics: %w", err)
	}
	return nil
}
