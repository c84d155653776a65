// hotreload.go: live configuration reload via Argus (§10)
//
// Uses argus.UniversalConfigWatcherWithConfig to watch a config file
// and push changes into the subset of Config[K, V] that is safe to
// change without rebuilding the entry store — expiration/refresh
// durations and the stats toggle. MaximumSize/MaximumWeight/
// EvictionPolicy changes still require constructing a new Cache.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// ReloadableFields is the subset of configuration HotConfig can apply
// to a running Cache without reconstructing it.
type ReloadableFields struct {
	ExpireAfterWrite  time.Duration
	ExpireAfterAccess time.Duration
	RefreshAfterWrite time.Duration
	RecordStats       bool
}

// HotConfig watches a configuration file and live-applies
// ReloadableFields to target as they change.
type HotConfig[K comparable, V any] struct {
	target  *Cache[K, V]
	watcher *argus.Watcher

	mu     sync.RWMutex
	fields ReloadableFields

	// OnReload is called after a successful reload. Must be fast and
	// non-blocking; it runs synchronously on the watcher's goroutine.
	OnReload func(old, new ReloadableFields)

	log Logger
}

// HotConfigOptions configures hot-reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the file to watch. Supports JSON, YAML, TOML, HCL,
	// INI, Properties, per argus.UniversalConfigWatcherWithConfig.
	ConfigPath string
	// PollInterval defaults to 1s, floors at 100ms.
	PollInterval time.Duration
	OnReload     func(old, new ReloadableFields)
	Logger       Logger
}

// NewHotConfig starts watching opts.ConfigPath and live-applying
// changes to target.
func NewHotConfig[K comparable, V any](target *Cache[K, V], opts HotConfigOptions) (*HotConfig[K, V], error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = target.cfg.Logger
	}
	if log == nil {
		log = NoOpLogger{}
	}

	hc := &HotConfig[K, V]{
		target:   target,
		OnReload: opts.OnReload,
		log:      log,
		fields: ReloadableFields{
			ExpireAfterWrite:  target.cfg.ExpireAfterWrite,
			ExpireAfterAccess: target.cfg.ExpireAfterAccess,
			RefreshAfterWrite: target.cfg.RefreshAfterWrite,
			RecordStats:       target.cfg.RecordStats,
		},
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argus.Config{
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher
	return hc, nil
}

// Start begins watching, if not already running.
func (hc *HotConfig[K, V]) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching.
func (hc *HotConfig[K, V]) Stop() error {
	return hc.watcher.Stop()
}

// Current returns the last-applied reloadable fields.
func (hc *HotConfig[K, V]) Current() ReloadableFields {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.fields
}

func (hc *HotConfig[K, V]) handleConfigChange(data map[string]interface{}) {
	hc.mu.Lock()
	old := hc.fields
	next := hc.parseFields(data, old)
	hc.fields = next
	hc.mu.Unlock()

	hc.target.expiration.SetDurations(
		int64(next.ExpireAfterWrite),
		int64(next.ExpireAfterAccess),
		int64(next.RefreshAfterWrite),
	)
	hc.target.stats.SetEnabled(next.RecordStats)

	if hc.OnReload != nil {
		hc.OnReload(old, next)
	}
}

func hotReloadSection(data map[string]interface{}) map[string]interface{} {
	if section, ok := data["cache"].(map[string]interface{}); ok {
		return section
	}
	if _, hasAny := data["expire_after_write"]; hasAny {
		return data
	}
	return nil
}

func parseDurationField(value interface{}) (time.Duration, bool) {
	str, ok := value.(string)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, false
	}
	return d, true
}

func parseBoolField(value interface{}) (bool, bool) {
	b, ok := value.(bool)
	return b, ok
}

func (hc *HotConfig[K, V]) parseFields(data map[string]interface{}, fallback ReloadableFields) ReloadableFields {
	section := hotReloadSection(data)
	if section == nil {
		return fallback
	}
	next := fallback
	if d, ok := parseDurationField(section["expire_after_write"]); ok {
		next.ExpireAfterWrite = d
	}
	if d, ok := parseDurationField(section["expire_after_access"]); ok {
		next.ExpireAfterAccess = d
	}
	if d, ok := parseDurationField(section["refresh_after_write"]); ok {
		next.RefreshAfterWrite = d
	}
	if b, ok := parseBoolField(section["record_stats"]); ok {
		next.RecordStats = b
	}
	return next
}
