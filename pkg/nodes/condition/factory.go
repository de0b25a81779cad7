package condition

import (
	"context"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Factory creates condition executors.
type Factory struct{}

func NewFactory() protocol.ExecutorFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, nodeID string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewExecutor(nodeID, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeCondition
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Evaluates an ordered rule list against the input and routes execution along the first matching rule's output handle."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rules": map[string]any{
				"type":        "array",
				"description": "Ordered rules; the first match wins.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field":         map[string]any{"type": "string"},
						"operator":      map[string]any{"type": "string"},
						"value":         map[string]any{},
						"output_handle": map[string]any{"type": "string"},
						"enabled":       map[string]any{"type": "boolean"},
					},
					"required": []any{"operator", "output_handle"},
				},
			},
			"default_output_handle": map[string]any{
				"type":        "string",
				"description": "Handle used when no rule matches.",
			},
		},
		"required": []any{"rules"},
	}
}
