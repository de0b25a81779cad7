// Package trigger provides the passthrough executor for trigger nodes.
// Concrete trigger integrations register their own subtypes; the built-in
// node only hands the trigger payload to the rest of the graph.
package trigger

import (
	"context"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Executor passes the execution's trigger data through as its output.
type Executor struct {
	id string
}

func NewExecutor(id string) *Executor {
	return &Executor{id: id}
}

func (e *Executor) Execute(_ context.Context, ec *models.ExecutionContext, _ map[string]any) (*protocol.Result, error) {
	output := ec.TriggerData
	if output == nil {
		output = map[string]any{}
	}

	return &protocol.Result{Output: output}, nil
}
