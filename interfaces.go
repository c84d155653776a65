// interfaces.go: ambient collaborator interfaces shared across the engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

// Logger defines a minimal, allocation-free logging seam. The
// maintenance scheduler and event dispatcher log through it; user code
// never needs to.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards everything. It is the default so callers never
// pay for logging they didn't ask for.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider supplies the current time in nanoseconds since epoch.
// Tests inject a fake implementation; production uses go-timecache.
type TimeProvider interface {
	Now() int64
}

// MetricsCollector accepts raw operation timings without tying the core
// to a specific observability backend. The otel subpackage implements
// this against OpenTelemetry. Cache holds one in its Config but does not
// call its methods.
type MetricsCollector interface {
	RecordGet(latencyNs int64, hit bool)
	RecordPut(latencyNs int64)
	RecordRemove(latencyNs int64)
	RecordEviction(reason EvictReason)
	RecordExpiration()
	RecordLoad(latencyNs int64, success bool)
	RecordRefresh(success bool)
}

// NoOpMetricsCollector discards every recorded metric.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordGet(int64, bool)        {}
func (NoOpMetricsCollector) RecordPut(int64)              {}
func (NoOpMetricsCollector) RecordRemove(int64)           {}
func (NoOpMetricsCollector) RecordEviction(EvictReason)   {}
func (NoOpMetricsCollector) RecordExpiration()            {}
func (NoOpMetricsCollector) RecordLoad(int64, bool)       {}
func (NoOpMetricsCollector) RecordRefresh(bool)           {}

// EvictionPolicyKind enumerates the pluggable eviction strategies of §4.4.
type EvictionPolicyKind int

const (
	// PolicyWTinyLFU is the default: a 3-segment admission/probationary/
	// protected LRU gated by the frequency sketch.
	PolicyWTinyLFU EvictionPolicyKind = iota
	PolicyLRU
	PolicyLFU
	PolicyFIFO
	PolicyFILO
	PolicyWeight
	PolicyIdleTime
	PolicyComposite
	// PolicyCustom selects a user-supplied Policy implementation
	// (Config.CustomPolicy). CustomPolicy is used only under this kind;
	// the zero EvictionPolicy value selects W-TinyLFU even when a
	// CustomPolicy is supplied.
	PolicyCustom
)

func (k EvictionPolicyKind) String() string {
	switch k {
	case PolicyWTinyLFU:
		return "W_TINY_LFU"
	case PolicyLRU:
		return "LRU"
	case PolicyLFU:
		return "LFU"
	case PolicyFIFO:
		return "FIFO"
	case PolicyFILO:
		return "FILO"
	case PolicyWeight:
		return "WEIGHT"
	case PolicyIdleTime:
		return "IDLE_TIME"
	case PolicyComposite:
		return "COMPOSITE"
	case PolicyCustom:
		return "CUSTOM"
	default:
		return "UNKNOWN"
	}
}

// SketchKind selects the frequency-sketch variant (§4.2).
type SketchKind int

const (
	SketchNone SketchKind = iota
	SketchBasic
	SketchWithDoorkeeper
)

func (k SketchKind) String() string {
	switch k {
	case SketchNone:
		return "NONE"
	case SketchBasic:
		return "BASIC"
	case SketchWithDoorkeeper:
		return "WITH_DOORKEEPER"
	default:
		return "UNKNOWN"
	}
}

// EvictReason explains why an entry left the cache (§6 event contract).
type EvictReason int

const (
	EvictReasonSize EvictReason = iota
	EvictReasonWeight
	EvictReasonExplicit
	EvictReasonExpired
	EvictReasonReplaced
)

func (r EvictReason) String() string {
	switch r {
	case EvictReasonSize:
		return "SIZE"
	case EvictReasonWeight:
		return "WEIGHT"
	case EvictReasonExplicit:
		return "EXPLICIT"
	case EvictReasonExpired:
		return "EXPIRED"
	case EvictReasonReplaced:
		return "REPLACED"
	default:
		return "UNKNOWN"
	}
}

// EventKind enumerates the event types delivered to listeners (§6).
type EventKind int

const (
	EventPut EventKind = iota
	EventRemove
	EventEvict
	EventExpire
	EventLoadSuccess
	EventLoadFailure
	EventClear
)

func (k EventKind) String() string {
	switch k {
	case EventPut:
		return "Put"
	case EventRemove:
		return "Remove"
	case EventEvict:
		return "Evict"
	case EventExpire:
		return "Expire"
	case EventLoadSuccess:
		return "LoadSuccess"
	case EventLoadFailure:
		return "LoadFailure"
	case EventClear:
		return "Clear"
	default:
		return "Unknown"
	}
}
