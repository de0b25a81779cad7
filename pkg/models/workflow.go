// Package models defines the core domain models for node-based workflow execution.
package models

import "time"

// ErrorHandling controls how an execution reacts to a node failure.
type ErrorHandling string

const (
	// ErrorHandlingStop aborts the execution on the first exhausted node failure.
	ErrorHandlingStop ErrorHandling = "stop"
	// ErrorHandlingContinue lets unaffected branches proceed past node failures.
	ErrorHandlingContinue ErrorHandling = "continue"
)

// WorkflowSettings holds per-workflow execution policy.
type WorkflowSettings struct {
	ErrorHandling ErrorHandling `json:"error_handling"           validate:"omitempty,oneof=stop continue"`
	Timeout       time.Duration `json:"timeout,omitempty"`                          // Per-node executor deadline
	RetryOnFail   int           `json:"retry_on_fail,omitempty"   validate:"min=0"` // Default retry count for nodes
	Concurrency   int           `json:"concurrency,omitempty"     validate:"min=0"` // Node concurrency within one execution
}

// Workflow is an immutable node/edge graph handed to the engine already
// validated at authoring time. The engine only performs the structural
// checks it needs to schedule (referential integrity, acyclicity).
type Workflow struct {
	ID        string           `json:"id"         validate:"required"`
	Name      string           `json:"name"       validate:"required,min=1"`
	Nodes     []*Node          `json:"nodes"      validate:"required,min=1,dive"`
	Edges     []*Edge          `json:"edges"      validate:"dive"`
	Settings  WorkflowSettings `json:"settings"`
	Variables map[string]any   `json:"variables,omitempty"`
	Owner     string           `json:"owner,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NodeByID returns the node with the given ID, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// ErrorHandlingOrDefault returns the configured error policy, defaulting to stop.
func (w *Workflow) ErrorHandlingOrDefault() ErrorHandling {
	if w.Settings.ErrorHandling == ErrorHandlingContinue {
		return ErrorHandlingContinue
	}

	return ErrorHandlingStop
}
