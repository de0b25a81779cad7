// Package persistence provides the storage abstraction for workflow
// definitions and execution records.
package persistence

import (
	"context"

	"github.com/reporunner/reporunner/pkg/models"
)

// Persistence aggregates the repositories a process needs.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions. The engine only reads
// through it; authoring lives elsewhere.
type WorkflowRepository interface {
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	ListWorkflows(ctx context.Context) ([]*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records. All write operations are
// upserts and idempotent under retry: replaying an update after a partial
// failure must converge on the same state.
type ExecutionRepository interface {
	CreateExecution(ctx context.Context, execution *models.Execution) error
	GetExecution(ctx context.Context, id string) (*models.Execution, error)

	// UpdateNodeExecution replaces the per-node record within an execution.
	UpdateNodeExecution(ctx context.Context, executionID, nodeID string, nodeExecution *models.NodeExecution) error

	// SetExecutionStatus transitions the execution and stamps started/ended
	// timestamps as the status requires.
	SetExecutionStatus(ctx context.Context, executionID string, status models.ExecutionStatus, errorMessage string) error

	// ListExecutions returns executions of a workflow, most recent first.
	ListExecutions(ctx context.Context, workflowID string, limit, offset int) ([]*models.Execution, error)
}
