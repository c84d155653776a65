// Package otel provides OpenTelemetry integration for jcachex cache metrics.
//
// # Overview
//
// This package implements the jcachex.MetricsCollector interface using
// OpenTelemetry, enabling automatic percentile calculation and
// multi-backend export (Prometheus, Jaeger, DataDog, any OTEL-compatible
// backend). It is a separate module so that applications that don't need
// metrics collection don't pay for the OTEL dependency tree; the core
// jcachex package depends only on the MetricsCollector interface and
// defaults to a no-op implementation.
//
// # Quick start
//
//	import (
//	    "github.com/jcachex/jcachex"
//	    jcachexotel "github.com/jcachex/jcachex/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, err := prometheus.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := jcachexotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := jcachex.DefaultConfig[string, User]()
//	cfg.MaximumSize = 10_000
//	cfg.MetricsCollector = collector
//	cache, err := jcachex.NewCache(cfg)
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":2112", nil))
//
// jcachex.Cache keeps the configured collector but none of its
// operations call the collector's Record methods; the instruments below
// record only what is passed to them directly.
//
// # Metrics exposed
//
// Histograms (nanoseconds, with automatic percentiles):
//   - jcachex_get_latency_ns, jcachex_put_latency_ns,
//     jcachex_remove_latency_ns, jcachex_load_latency_ns
//
// Counters:
//   - jcachex_get_hits_total, jcachex_get_misses_total
//   - jcachex_evictions_total (labeled by "reason": SIZE, WEIGHT,
//     EXPLICIT, EXPIRED, REPLACED)
//   - jcachex_expirations_total
//   - jcachex_load_success_total, jcachex_load_failure_total
//   - jcachex_refresh_success_total, jcachex_refresh_failure_total
//
// All instruments are lock-free OTEL counters/histograms; recording a
// metric never blocks on export.
//
// # Custom meter name
//
// Useful for distinguishing multiple cache instances from one process:
//
//	collector, err := jcachexotel.NewOTelMetricsCollector(
//	    provider,
//	    jcachexotel.WithMeterName("myapp_user_cache"),
//	)
//
// # Prometheus queries
//
//	histogram_quantile(0.95, rate(jcachex_get_latency_ns_bucket[5m]))
//	rate(jcachex_get_hits_total[5m]) /
//	  (rate(jcachex_get_hits_total[5m]) + rate(jcachex_get_misses_total[5m]))
//	sum by (reason) (rate(jcachex_evictions_total[1m]))
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│     jcachex.Cache (core module)     │
//	│  • no OTEL dependency               │
//	│  • MetricsCollector interface       │
//	│  • NoOpMetricsCollector (default)   │
//	└──────────────┬──────────────────────┘
//	               │ implements
//	               ▼
//	┌─────────────────────────────────────┐
//	│   jcachex/otel (this package)       │
//	│  • OTelMetricsCollector             │
//	│  • histograms + counters            │
//	└──────────────┬──────────────────────┘
//	               │ exports to
//	               ▼
//	            Prometheus / Jaeger / DataDog / ...
//
// # Thread safety
//
// Every method is safe to call from multiple goroutines concurrently.
package otel
