package delay

import (
	"context"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Factory creates delay executors.
type Factory struct{}

func NewFactory() protocol.ExecutorFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, nodeID string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewExecutor(nodeID, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeDelay
}

func (f *Factory) Name() string {
	return "Delay"
}

func (f *Factory) Description() string {
	return "Pauses the branch for a configured duration, then forwards its input unchanged."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "string",
				"description": "Wait duration in Go syntax, e.g. \"30s\" or \"1h15m\".",
			},
			"seconds": map[string]any{
				"type":        "number",
				"description": "Wait duration in seconds. Ignored when 'duration' is set.",
				"minimum":     0,
			},
		},
	}
}
