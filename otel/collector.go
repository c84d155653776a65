// Package otel provides OpenTelemetry integration for jcachex cache metrics.
//
// Implements jcachex.MetricsCollector with a histogram-plus-counter
// instrumentation scheme, covering gets, puts, removes, loads,
// refreshes, and evictions labeled by EvictReason.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"fmt"

	"github.com/jcachex/jcachex"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Options configures the OTEL meter used by OTelMetricsCollector.
type Options struct {
	MeterName string
}

// Option mutates Options.
type Option func(*Options)

// WithMeterName overrides the default meter name, useful when
// instrumenting multiple cache instances from one process.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// OTelMetricsCollector implements jcachex.MetricsCollector on top of an
// OpenTelemetry MeterProvider. Every method is a single lock-free
// instrument record; nothing here allocates beyond the attribute set
// built for RecordEviction.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	putLatency    metric.Int64Histogram
	removeLatency metric.Int64Histogram
	loadLatency   metric.Int64Histogram

	getHits    metric.Int64Counter
	getMisses  metric.Int64Counter
	evictions  metric.Int64Counter
	expires    metric.Int64Counter
	loadOK     metric.Int64Counter
	loadFail   metric.Int64Counter
	refreshOK  metric.Int64Counter
	refreshErr metric.Int64Counter
}

// NewOTelMetricsCollector creates the instruments on provider's default
// meter (or the meter named by WithMeterName).
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("otel: meter provider is required")
	}
	options := Options{MeterName: "jcachex"}
	for _, opt := range opts {
		opt(&options)
	}
	meter := provider.Meter(options.MeterName)

	c := &OTelMetricsCollector{}
	var err error

	if c.getLatency, err = meter.Int64Histogram("jcachex_get_latency_ns",
		metric.WithDescription("Get() operation latency in nanoseconds"),
		metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.putLatency, err = meter.Int64Histogram("jcachex_put_latency_ns",
		metric.WithDescription("Put() operation latency in nanoseconds"),
		metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.removeLatency, err = meter.Int64Histogram("jcachex_remove_latency_ns",
		metric.WithDescription("Remove() operation latency in nanoseconds"),
		metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.loadLatency, err = meter.Int64Histogram("jcachex_load_latency_ns",
		metric.WithDescription("Loader invocation latency in nanoseconds"),
		metric.WithUnit("ns")); err != nil {
		return nil, err
	}

	if c.getHits, err = meter.Int64Counter("jcachex_get_hits_total",
		metric.WithDescription("Total number of cache hits")); err != nil {
		return nil, err
	}
	if c.getMisses, err = meter.Int64Counter("jcachex_get_misses_total",
		metric.WithDescription("Total number of cache misses")); err != nil {
		return nil, err
	}
	if c.evictions, err = meter.Int64Counter("jcachex_evictions_total",
		metric.WithDescription("Total number of evictions, labeled by reason")); err != nil {
		return nil, err
	}
	if c.expires, err = meter.Int64Counter("jcachex_expirations_total",
		metric.WithDescription("Total number of expiration reaps")); err != nil {
		return nil, err
	}
	if c.loadOK, err = meter.Int64Counter("jcachex_load_success_total",
		metric.WithDescription("Total number of successful loader invocations")); err != nil {
		return nil, err
	}
	if c.loadFail, err = meter.Int64Counter("jcachex_load_failure_total",
		metric.WithDescription("Total number of failed loader invocations")); err != nil {
		return nil, err
	}
	if c.refreshOK, err = meter.Int64Counter("jcachex_refresh_success_total",
		metric.WithDescription("Total number of successful refreshAfterWrite reloads")); err != nil {
		return nil, err
	}
	if c.refreshErr, err = meter.Int64Counter("jcachex_refresh_failure_total",
		metric.WithDescription("Total number of failed refreshAfterWrite reloads")); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordGet records a Get() latency and whether it hit.
func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.getHits.Add(ctx, 1)
	} else {
		c.getMisses.Add(ctx, 1)
	}
}

// RecordPut records a Put() latency.
func (c *OTelMetricsCollector) RecordPut(latencyNs int64) {
	c.putLatency.Record(context.Background(), latencyNs)
}

// RecordRemove records a Remove() latency.
func (c *OTelMetricsCollector) RecordRemove(latencyNs int64) {
	c.removeLatency.Record(context.Background(), latencyNs)
}

// RecordEviction increments the eviction counter, labeled by reason.
func (c *OTelMetricsCollector) RecordEviction(reason jcachex.EvictReason) {
	c.evictions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("reason", reason.String()),
	))
}

// RecordExpiration increments the expiration counter.
func (c *OTelMetricsCollector) RecordExpiration() {
	c.expires.Add(context.Background(), 1)
}

// RecordLoad records a loader invocation's latency and outcome.
func (c *OTelMetricsCollector) RecordLoad(latencyNs int64, success bool) {
	ctx := context.Background()
	c.loadLatency.Record(ctx, latencyNs)
	if success {
		c.loadOK.Add(ctx, 1)
	} else {
		c.loadFail.Add(ctx, 1)
	}
}

// RecordRefresh records a refreshAfterWrite reload's outcome.
func (c *OTelMetricsCollector) RecordRefresh(success bool) {
	ctx := context.Background()
	if success {
		c.refreshOK.Add(ctx, 1)
	} else {
		c.refreshErr.Add(ctx, 1)
	}
}

var _ jcachex.MetricsCollector = (*OTelMetricsCollector)(nil)
