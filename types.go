package asyncgui

import "github.com/Mo-to/go-async-gui/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the asyncgui package for most use cases.

// UpdateFunc is a periodic unit of async work
type UpdateFunc = core.UpdateFunc

// CommandFunc is a deferred unit of async work enqueued from a callback site
type CommandFunc = core.CommandFunc

// ToolkitBinding is the capability required from the GUI toolkit
type ToolkitBinding = core.ToolkitBinding

// Config holds loop configuration
type Config = core.Config

// CommandErrorMode selects the dispatcher failure policy
type CommandErrorMode = core.CommandErrorMode

// UpdateHandle identifies one update func registration
type UpdateHandle = core.UpdateHandle

// LoopStats is a snapshot of loop runtime state
type LoopStats = core.LoopStats

// CycleRecord captures one completed scheduling cycle
type CycleRecord = core.CycleRecord

// Logger is the structured logging facade
type Logger = core.Logger

// Field is a structured logging key-value pair
type Field = core.Field

// Metrics is the observability collection interface
type Metrics = core.Metrics

// Command failure policy constants
const (
	CommandErrorFatal   CommandErrorMode = core.CommandErrorFatal
	CommandErrorIsolate CommandErrorMode = core.CommandErrorIsolate
)

// Convenience re-exports
var (
	DefaultConfig = core.DefaultConfig
	F             = core.F
	// GetCurrentLoop retrieves the running Loop from a task context
	GetCurrentLoop = core.GetCurrentLoop
)
