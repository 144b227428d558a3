package asyncgui

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Mo-to/go-async-gui/core"
)

// FileConfig is the TOML representation of the loop options that make sense
// in a config file. Handlers, loggers and metrics stay programmatic.
type FileConfig struct {
	Name             string `toml:"name"`
	UpdateIntervalMS int    `toml:"update_interval_ms"`
	PumpYieldMS      int    `toml:"pump_yield_ms"`
	DispatcherIdleMS int    `toml:"dispatcher_idle_ms"`
	QueueCapacity    int    `toml:"queue_capacity"`
	CommandErrorMode string `toml:"command_error_mode"` // "fatal" or "isolate"
	HistorySize      int    `toml:"history_size"`
}

// LoadConfigFile reads a TOML config file into a core.Config. Absent fields
// keep their defaults; invalid values are rejected here rather than at
// NewLoop time so the error names the file.
func LoadConfigFile(path string) (*core.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg, err := fc.ToConfig()
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ToConfig converts the file representation into a core.Config, applying
// defaults for absent fields.
func (fc *FileConfig) ToConfig() (*core.Config, error) {
	cfg := core.DefaultConfig()

	if fc.Name != "" {
		cfg.Name = fc.Name
	}
	if fc.UpdateIntervalMS < 0 {
		return nil, fmt.Errorf("update_interval_ms must be positive, got %d", fc.UpdateIntervalMS)
	}
	if fc.UpdateIntervalMS > 0 {
		cfg.UpdateInterval = time.Duration(fc.UpdateIntervalMS) * time.Millisecond
	}
	if fc.PumpYieldMS < 0 {
		return nil, fmt.Errorf("pump_yield_ms must not be negative, got %d", fc.PumpYieldMS)
	}
	if fc.PumpYieldMS > 0 {
		cfg.PumpYield = time.Duration(fc.PumpYieldMS) * time.Millisecond
	}
	if fc.DispatcherIdleMS < 0 {
		return nil, fmt.Errorf("dispatcher_idle_ms must not be negative, got %d", fc.DispatcherIdleMS)
	}
	if fc.DispatcherIdleMS > 0 {
		cfg.DispatcherIdle = time.Duration(fc.DispatcherIdleMS) * time.Millisecond
	}
	if fc.QueueCapacity < 0 {
		return nil, fmt.Errorf("queue_capacity must not be negative, got %d", fc.QueueCapacity)
	}
	cfg.QueueCapacity = fc.QueueCapacity
	if fc.HistorySize > 0 {
		cfg.HistorySize = fc.HistorySize
	}

	switch fc.CommandErrorMode {
	case "", "fatal":
		cfg.CommandErrorMode = core.CommandErrorFatal
	case "isolate":
		cfg.CommandErrorMode = core.CommandErrorIsolate
	default:
		return nil, fmt.Errorf("unknown command_error_mode %q (want \"fatal\" or \"isolate\")", fc.CommandErrorMode)
	}

	return cfg, nil
}
