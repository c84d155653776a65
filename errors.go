// errors.go: structured error taxonomy for the JCacheX core engine
//
// Every error carries a stable code and structured context via
// github.com/agilira/go-errors, instead of ad-hoc fmt.Errorf strings.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for the §7 error taxonomy.
const (
	ErrCodeInvalidKey       errors.ErrorCode = "JCACHEX_INVALID_KEY"
	ErrCodeCapacityExceeded errors.ErrorCode = "JCACHEX_CAPACITY_EXCEEDED"
	ErrCodeLoadError        errors.ErrorCode = "JCACHEX_LOAD_ERROR"
	ErrCodeTimeout          errors.ErrorCode = "JCACHEX_TIMEOUT"
	ErrCodeOverloaded       errors.ErrorCode = "JCACHEX_OVERLOADED"
	ErrCodeShuttingDown     errors.ErrorCode = "JCACHEX_SHUTTING_DOWN"
	ErrCodePoisoned         errors.ErrorCode = "JCACHEX_POISONED"

	// ErrCodeInvalidConfig covers builder-time configuration rejects,
	// distinct from the runtime taxonomy above.
	ErrCodeInvalidConfig errors.ErrorCode = "JCACHEX_INVALID_CONFIG"
)

const (
	msgInvalidKey       = "key failed validation"
	msgCapacityExceeded = "write requires eviction but the policy yielded no victim"
	msgLoadError        = "loader failed"
	msgTimeout          = "operation missed its deadline"
	msgOverloaded       = "worker pool rejected the request"
	msgShuttingDown     = "operation attempted after shutdown began"
	msgPoisoned         = "internal invariant violated; cache must be rebuilt"
	msgInvalidConfig    = "invalid cache configuration"
)

// NewErrInvalidKey reports a key that failed validation (nil where
// disallowed, or rejected by a caller-supplied validator).
func NewErrInvalidKey(reason string) error {
	return errors.NewWithField(ErrCodeInvalidKey, msgInvalidKey, "reason", reason)
}

// NewErrCapacityExceeded reports that a write could not make room.
func NewErrCapacityExceeded(capacity, size int) error {
	return errors.NewWithContext(ErrCodeCapacityExceeded, msgCapacityExceeded, map[string]interface{}{
		"capacity":     capacity,
		"current_size": size,
	}).AsRetryable()
}

// NewErrLoadError wraps a loader failure (thrown error, or panic). A
// nil cause covers the "another goroutine's in-flight load failed and
// we only observed its absence" case.
func NewErrLoadError(key string, cause error) error {
	if cause == nil {
		return errors.NewWithField(ErrCodeLoadError, msgLoadError, "key", key)
	}
	return errors.Wrap(cause, ErrCodeLoadError, msgLoadError).
		WithContext("key", key)
}

// NewErrTimeout reports an async operation that missed its deadline.
// The in-flight loader, if any, is not cancelled (§5).
func NewErrTimeout(key string) error {
	return errors.NewWithField(ErrCodeTimeout, msgTimeout, "key", key).AsRetryable()
}

// NewErrOverloaded reports that the shared worker pool rejected a
// submission because its bounded queue was full.
func NewErrOverloaded(key string) error {
	return errors.NewWithField(ErrCodeOverloaded, msgOverloaded, "key", key).AsRetryable()
}

// NewErrShuttingDown reports an operation refused because the cache's
// maintenance scheduler has begun draining.
func NewErrShuttingDown(operation string) error {
	return errors.NewWithField(ErrCodeShuttingDown, msgShuttingDown, "operation", operation)
}

// NewErrPoisoned reports a terminal internal invariant violation. Every
// subsequent operation on the instance must also return Poisoned.
func NewErrPoisoned(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodePoisoned, msgPoisoned).
			WithContext("operation", operation).
			WithSeverity("critical")
	}
	return errors.NewWithField(ErrCodePoisoned, msgPoisoned, "operation", operation).
		WithSeverity("critical")
}

// NewErrInvalidConfig reports a configuration value outside its valid
// range, with the offending field and value attached.
func NewErrInvalidConfig(field string, value interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, msgInvalidConfig, map[string]interface{}{
		"field": field,
		"value": fmt.Sprintf("%v", value),
	})
}

// NewErrPanicRecovered wraps a recovered panic from a loader or an
// event-listener callback as a LoadError.
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodeLoadError, msgLoadError, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// IsInvalidKey reports whether err is an InvalidKey error.
func IsInvalidKey(err error) bool { return errors.HasCode(err, ErrCodeInvalidKey) }

// IsCapacityExceeded reports whether err is a CapacityExceeded error.
func IsCapacityExceeded(err error) bool { return errors.HasCode(err, ErrCodeCapacityExceeded) }

// IsLoadError reports whether err is a LoadError.
func IsLoadError(err error) bool { return errors.HasCode(err, ErrCodeLoadError) }

// IsTimeout reports whether err is a Timeout error.
func IsTimeout(err error) bool { return errors.HasCode(err, ErrCodeTimeout) }

// IsOverloaded reports whether err is an Overloaded error.
func IsOverloaded(err error) bool { return errors.HasCode(err, ErrCodeOverloaded) }

// IsShuttingDown reports whether err is a ShuttingDown error.
func IsShuttingDown(err error) bool { return errors.HasCode(err, ErrCodeShuttingDown) }

// IsPoisoned reports whether err is a Poisoned error.
func IsPoisoned(err error) bool { return errors.HasCode(err, ErrCodePoisoned) }

// IsRetryable reports whether err declares itself retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// ErrorCode extracts the stable error code from err, or "" if err does
// not carry one.
func ErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}
