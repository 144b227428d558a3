package core

import (
	"context"
)

// UpdateFunc is a periodic unit of async work. The Update Scheduler invokes
// every registered UpdateFunc once per cycle, all entries of a cycle
// concurrently. The ctx carries the cycle deadline; implementations that may
// outlive an update interval should observe ctx.Done().
type UpdateFunc func(ctx context.Context) error

// CommandFunc is a deferred unit of async work enqueued from a synchronous
// UI-callback site. Commands execute strictly one at a time, in submission
// order, on the Command Dispatcher.
type CommandFunc func(ctx context.Context) error

// =============================================================================
// Context Helper
// =============================================================================

type loopKeyType struct{}

var loopKey loopKeyType

// GetCurrentLoop returns the Loop driving the given context, or nil if the
// context does not originate from Loop.Run. Update funcs and commands can use
// this to submit follow-up commands without holding a Loop reference.
func GetCurrentLoop(ctx context.Context) *Loop {
	if v := ctx.Value(loopKey); v != nil {
		return v.(*Loop)
	}
	return nil
}
