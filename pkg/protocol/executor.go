// Package protocol defines the interfaces and contracts between the engine
// and its pluggable collaborators.
package protocol

import (
	"context"
	"time"

	"github.com/reporunner/reporunner/pkg/models"
)

// Result is the successful outcome of one node execution. Handle selects
// which outgoing edges the scheduler activates; empty means
// models.DefaultHandle. Only routing nodes set it to anything else.
type Result struct {
	Output map[string]any
	Handle string
}

// NodeExecutor is the pluggable unit implementing one node type's work.
// Implementations receive the aggregated input built from predecessor
// outputs (nil for start nodes) and must honor ctx cancellation on
// blocking operations.
type NodeExecutor interface {
	Execute(ctx context.Context, ec *models.ExecutionContext, input map[string]any) (*Result, error)
}

// ExecutorFactory creates configured executor instances and describes the
// node type to the registry.
type ExecutorFactory interface {
	// Create builds an executor for one node from its configuration.
	Create(ctx context.Context, nodeID string, config map[string]any) (NodeExecutor, error)

	// ID returns the node type identifier this factory serves.
	ID() string

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what this node type does.
	Description() string

	// Schema returns the JSON schema for this node type's configuration.
	Schema() map[string]any
}

// Suspender is implemented by executors that wait for a duration before
// running, such as delay nodes. The scheduler performs the wait outside
// the node-concurrency limit so a suspended node never starves other
// ready nodes.
type Suspender interface {
	SuspendFor() time.Duration
}
