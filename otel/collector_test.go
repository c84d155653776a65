package otel

import (
	"context"
	"testing"
	"time"

	"github.com/jcachex/jcachex"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// TestOTelMetricsCollector_Interface verifies OTelMetricsCollector implements jcachex.MetricsCollector.
func TestOTelMetricsCollector_Interface(t *testing.T) {
	var _ jcachex.MetricsCollector = (*OTelMetricsCollector)(nil)
}

// TestNewOTelMetricsCollector tests constructor with valid meter provider.
func TestNewOTelMetricsCollector(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Errorf("Failed to shutdown provider: %v", err)
		}
	}()

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	if collector == nil {
		t.Fatal("NewOTelMetricsCollector() returned nil")
	}
}

// TestNewOTelMetricsCollector_NilProvider tests error handling with a nil provider.
func TestNewOTelMetricsCollector_NilProvider(t *testing.T) {
	collector, err := NewOTelMetricsCollector(nil)
	if err == nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return error")
	}
	if collector != nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return nil collector")
	}
}

func collectMetrics(t *testing.T, reader *metric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	return rm
}

// TestOTelMetricsCollector_RecordGet tests Get operation metrics.
func TestOTelMetricsCollector_RecordGet(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordGet(1000, true)  // 1μs hit
	collector.RecordGet(2000, false) // 2μs miss
	collector.RecordGet(1500, true)  // 1.5μs hit

	rm := collectMetrics(t, reader)
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("No scope metrics recorded")
	}

	var foundLatency, foundHits, foundMisses bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "jcachex_get_latency_ns":
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Errorf("Expected Histogram[int64], got %T", m.Data)
					continue
				}
				totalCount := uint64(0)
				for _, dp := range hist.DataPoints {
					totalCount += dp.Count
				}
				if totalCount != 3 {
					t.Errorf("Expected 3 operations, got %d", totalCount)
				}
			case "jcachex_get_hits_total":
				foundHits = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 {
					t.Errorf("Expected non-empty Sum[int64], got %T", m.Data)
					continue
				}
				if sum.DataPoints[0].Value != 2 {
					t.Errorf("Expected 2 hits, got %d", sum.DataPoints[0].Value)
				}
			case "jcachex_get_misses_total":
				foundMisses = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 {
					t.Errorf("Expected non-empty Sum[int64], got %T", m.Data)
					continue
				}
				if sum.DataPoints[0].Value != 1 {
					t.Errorf("Expected 1 miss, got %d", sum.DataPoints[0].Value)
				}
			}
		}
	}

	if !foundLatency {
		t.Error("jcachex_get_latency_ns metric not found")
	}
	if !foundHits {
		t.Error("jcachex_get_hits_total metric not found")
	}
	if !foundMisses {
		t.Error("jcachex_get_misses_total metric not found")
	}
}

// TestOTelMetricsCollector_RecordPut tests Put operation latency.
func TestOTelMetricsCollector_RecordPut(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordPut(500)
	collector.RecordPut(1000)
	collector.RecordPut(750)

	rm := collectMetrics(t, reader)

	var foundLatency bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "jcachex_put_latency_ns" {
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Errorf("Expected Histogram[int64], got %T", m.Data)
					continue
				}
				totalCount := uint64(0)
				for _, dp := range hist.DataPoints {
					totalCount += dp.Count
				}
				if totalCount != 3 {
					t.Errorf("Expected 3 operations, got %d", totalCount)
				}
			}
		}
	}

	if !foundLatency {
		t.Error("jcachex_put_latency_ns metric not found")
	}
}

// TestOTelMetricsCollector_RecordRemove tests Remove operation latency.
func TestOTelMetricsCollector_RecordRemove(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordRemove(300)
	collector.RecordRemove(600)

	rm := collectMetrics(t, reader)

	var foundLatency bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "jcachex_remove_latency_ns" {
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Errorf("Expected Histogram[int64], got %T", m.Data)
					continue
				}
				totalCount := uint64(0)
				for _, dp := range hist.DataPoints {
					totalCount += dp.Count
				}
				if totalCount != 2 {
					t.Errorf("Expected 2 operations, got %d", totalCount)
				}
			}
		}
	}

	if !foundLatency {
		t.Error("jcachex_remove_latency_ns metric not found")
	}
}

// TestOTelMetricsCollector_RecordEviction tests the eviction counter, labeled by reason.
func TestOTelMetricsCollector_RecordEviction(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordEviction(jcachex.EvictReasonSize)
	collector.RecordEviction(jcachex.EvictReasonSize)
	collector.RecordEviction(jcachex.EvictReasonWeight)

	rm := collectMetrics(t, reader)

	var foundEvictions bool
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "jcachex_evictions_total" {
				foundEvictions = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Errorf("Expected Sum[int64], got %T", m.Data)
					continue
				}
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}

	if !foundEvictions {
		t.Error("jcachex_evictions_total metric not found")
	}
	if total != 3 {
		t.Errorf("Expected 3 evictions across reasons, got %d", total)
	}
}

// TestOTelMetricsCollector_RecordExpiration tests the expiration counter.
func TestOTelMetricsCollector_RecordExpiration(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordExpiration()
	collector.RecordExpiration()

	rm := collectMetrics(t, reader)

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "jcachex_expirations_total" {
				found = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 {
					t.Errorf("Expected non-empty Sum[int64], got %T", m.Data)
					continue
				}
				if sum.DataPoints[0].Value != 2 {
					t.Errorf("Expected 2 expirations, got %d", sum.DataPoints[0].Value)
				}
			}
		}
	}
	if !found {
		t.Error("jcachex_expirations_total metric not found")
	}
}

// TestOTelMetricsCollector_RecordLoad tests loader latency and success/failure counters.
func TestOTelMetricsCollector_RecordLoad(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordLoad(5000, true)
	collector.RecordLoad(8000, false)

	rm := collectMetrics(t, reader)

	var foundOK, foundFail bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "jcachex_load_success_total":
				foundOK = true
				sum := m.Data.(metricdata.Sum[int64])
				if sum.DataPoints[0].Value != 1 {
					t.Errorf("Expected 1 load success, got %d", sum.DataPoints[0].Value)
				}
			case "jcachex_load_failure_total":
				foundFail = true
				sum := m.Data.(metricdata.Sum[int64])
				if sum.DataPoints[0].Value != 1 {
					t.Errorf("Expected 1 load failure, got %d", sum.DataPoints[0].Value)
				}
			}
		}
	}
	if !foundOK {
		t.Error("jcachex_load_success_total metric not found")
	}
	if !foundFail {
		t.Error("jcachex_load_failure_total metric not found")
	}
}

// TestOTelMetricsCollector_RecordRefresh tests refresh-after-write outcome counters.
func TestOTelMetricsCollector_RecordRefresh(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordRefresh(true)
	collector.RecordRefresh(true)
	collector.RecordRefresh(false)

	rm := collectMetrics(t, reader)

	var okCount, failCount int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "jcachex_refresh_success_total":
				okCount = m.Data.(metricdata.Sum[int64]).DataPoints[0].Value
			case "jcachex_refresh_failure_total":
				failCount = m.Data.(metricdata.Sum[int64]).DataPoints[0].Value
			}
		}
	}
	if okCount != 2 {
		t.Errorf("Expected 2 refresh successes, got %d", okCount)
	}
	if failCount != 1 {
		t.Errorf("Expected 1 refresh failure, got %d", failCount)
	}
}

// TestOTelMetricsCollector_Concurrent tests thread safety under concurrent recording.
func TestOTelMetricsCollector_Concurrent(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	const numGoroutines = 10
	const opsPerGoroutine = 100
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < opsPerGoroutine; j++ {
				collector.RecordGet(int64(100+id), j%2 == 0)
				collector.RecordPut(int64(200 + id))
				collector.RecordRemove(int64(50 + id))
				collector.RecordEviction(jcachex.EvictReasonSize)
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Test timeout - deadlock?")
		}
	}

	rm := collectMetrics(t, reader)
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("No metrics collected after concurrent operations")
	}
}

// TestOTelMetricsCollector_WithOptions tests constructor with a custom meter name.
func TestOTelMetricsCollector_WithOptions(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(
		provider,
		WithMeterName("custom_jcachex"),
	)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	if collector == nil {
		t.Fatal("NewOTelMetricsCollector() returned nil")
	}

	collector.RecordGet(1000, true)

	rm := collectMetrics(t, reader)
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("No scope metrics")
	}
	if rm.ScopeMetrics[0].Scope.Name != "custom_jcachex" {
		t.Errorf("Expected scope name 'custom_jcachex', got '%s'", rm.ScopeMetrics[0].Scope.Name)
	}
}
