package trigger

import (
	"context"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Factory creates trigger passthrough executors.
type Factory struct{}

func NewFactory() protocol.ExecutorFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, nodeID string, _ map[string]any) (protocol.NodeExecutor, error) {
	return NewExecutor(nodeID), nil
}

func (f *Factory) ID() string {
	return models.NodeTypeTrigger
}

func (f *Factory) Name() string {
	return "Trigger"
}

func (f *Factory) Description() string {
	return "Entry point of a workflow. Passes the trigger payload to downstream nodes."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
	}
}
