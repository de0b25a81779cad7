package models

import (
	"log/slog"
	"sync/atomic"
)

// ExecutionContext is the ephemeral run-scoped state shared with node
// executors. Credentials arrive already resolved to plaintext; the engine
// never touches their cryptographic lifecycle.
type ExecutionContext struct {
	ExecutionID string                    `json:"execution_id"`
	WorkflowID  string                    `json:"workflow_id"`
	UserID      string                    `json:"user_id,omitempty"`
	TriggerData map[string]any            `json:"trigger_data,omitempty"`
	Variables   map[string]any            `json:"variables,omitempty"`
	Credentials map[string]map[string]any `json:"-"`
	Logger      *slog.Logger              `json:"-"`

	// Shared across WithLogger copies so a stop request reaches every task.
	cancelled *atomic.Bool
}

// NewExecutionContext creates a run-scoped context with an armed
// cancellation flag.
func NewExecutionContext(executionID, workflowID, userID string, triggerData map[string]any) *ExecutionContext {
	return &ExecutionContext{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		UserID:      userID,
		TriggerData: triggerData,
		Variables:   make(map[string]any),
		Credentials: make(map[string]map[string]any),
		cancelled:   &atomic.Bool{},
	}
}

// Cancel flags the execution as cancelled. The scheduler refuses to start
// further nodes once set; in-flight executors finish naturally.
func (ec *ExecutionContext) Cancel() {
	if ec.cancelled != nil {
		ec.cancelled.Store(true)
	}
}

// Cancelled reports whether a stop was requested for this execution.
func (ec *ExecutionContext) Cancelled() bool {
	return ec.cancelled != nil && ec.cancelled.Load()
}

// WithLogger returns a shallow copy of the context carrying the given
// logger. The cancellation flag stays shared.
func (ec *ExecutionContext) WithLogger(logger *slog.Logger) *ExecutionContext {
	clone := *ec
	clone.Logger = logger

	return &clone
}
