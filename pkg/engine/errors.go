package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrQueueFull is returned by Enqueue when the execution queue's buffer is
// at capacity. Callers decide whether to retry, shed, or surface the
// overload.
var ErrQueueFull = errors.New("execution queue is full")

// TimeoutError indicates a node executor did not return within the
// workflow's configured per-node timeout. It counts as a node failure and
// goes through the normal retry and error policy.
type TimeoutError struct {
	NodeID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("node %s timed out after %s", e.NodeID, e.Timeout)
}

// IsTimeoutError checks whether err is a node timeout.
func IsTimeoutError(err error) bool {
	var te *TimeoutError

	return errors.As(err, &te)
}

// RoutingError indicates a condition node selected an output handle that no
// outgoing edge carries. It is a node-level failure subject to the normal
// error policy, never silently swallowed.
type RoutingError struct {
	NodeID string
	Handle string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("node %s routed to handle %q but no outgoing edge carries it", e.NodeID, e.Handle)
}

// IsRoutingError checks whether err is a routing failure.
func IsRoutingError(err error) bool {
	var re *RoutingError

	return errors.As(err, &re)
}

// EngineFatalError is a scheduler-internal fault unrelated to any single
// node, such as the execution store becoming unavailable. It aborts the
// whole execution regardless of error policy.
type EngineFatalError struct {
	Op  string
	Err error
}

func (e *EngineFatalError) Error() string {
	return fmt.Sprintf("engine fault during %s: %v", e.Op, e.Err)
}

func (e *EngineFatalError) Unwrap() error {
	return e.Err
}

// NewEngineFatalError wraps err as a scheduler-internal fault.
func NewEngineFatalError(op string, err error) *EngineFatalError {
	return &EngineFatalError{Op: op, Err: err}
}

// IsEngineFatalError checks whether err is a scheduler-internal fault.
func IsEngineFatalError(err error) bool {
	var fe *EngineFatalError

	return errors.As(err, &fe)
}
