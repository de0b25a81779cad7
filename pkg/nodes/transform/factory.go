package transform

import (
	"context"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Factory creates transform executors.
type Factory struct{}

func NewFactory() protocol.ExecutorFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, nodeID string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewExecutor(nodeID, config)
}

func (f *Factory) ID() string {
	return models.NodeTypeTransform
}

func (f *Factory) Name() string {
	return "Transform"
}

func (f *Factory) Description() string {
	return "Applies an ordered list of operations (set, append, uppercase, lowercase) to a copy of the node input."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operations": map[string]any{
				"type":        "array",
				"description": "Ordered transformation steps.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"operation": map[string]any{
							"type": "string",
							"enum": []any{OpSet, OpAppend, OpUppercase, OpLowercase},
						},
						"field": map[string]any{"type": "string"},
						"value": map[string]any{},
					},
					"required": []any{"operation", "field"},
				},
			},
		},
		"required": []any{"operations"},
	}
}
