package tagsync

import (
	gosync "sync"

	"github.com/ellisd4/tagsync/pkg/reconciler"
)

// Hook function types for sync events
type (
	// RunCompletedHook is called when a run produced a result, including
	// canceled runs with a partial result
	RunCompletedHook func(result *reconciler.Result)

	// RunFailedHook is called when a run failed before producing a result
	RunFailedHook func(err error)

	// OperationHook is called after every attempted tag operation. It may be
	// called from several goroutines at once.
	OperationHook func(op reconciler.AppliedOperation)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnRunCompleted(fn RunCompletedHook)
	OnRunFailed(fn RunFailedHook)
	OnOperation(fn OperationHook)
}

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// hooks manages event callbacks
type hooks struct {
	mu             gosync.RWMutex
	onRunCompleted []RunCompletedHook
	onRunFailed    []RunFailedHook
	onOperation    []OperationHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnRunCompleted registers a callback for finished runs.
func (c *client) OnRunCompleted(fn RunCompletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRunCompleted = append(c.hooks.onRunCompleted, fn)
}

// OnRunFailed registers a callback for runs that failed before reconciling.
func (c *client) OnRunFailed(fn RunFailedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRunFailed = append(c.hooks.onRunFailed, fn)
}

// OnOperation registers a callback for every attempted tag operation.
func (c *client) OnOperation(fn OperationHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onOperation = append(c.hooks.onOperation, fn)
}

func (h *hooks) triggerRunCompleted(result *reconciler.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onRunCompleted {
		hook(result)
	}
}

func (h *hooks) triggerRunFailed(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onRunFailed {
		hook(err)
	}
}

func (h *hooks) triggerOperation(op reconciler.AppliedOperation) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onOperation {
		hook(op)
	}
}
