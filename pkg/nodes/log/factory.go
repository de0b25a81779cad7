package log

import (
	"context"

	"github.com/reporunner/reporunner/pkg/protocol"
)

// Factory creates log executors.
type Factory struct{}

func NewFactory() protocol.ExecutorFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, nodeID string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewExecutor(nodeID, config)
}

func (f *Factory) ID() string {
	return TypeID
}

func (f *Factory) Name() string {
	return "Log"
}

func (f *Factory) Description() string {
	return "Writes a templated message to the execution log and forwards its input."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message to log. Supports templates.",
			},
			"level": map[string]any{
				"type":    "string",
				"enum":    []any{"debug", "info", "warn", "error"},
				"default": "info",
			},
		},
		"required": []any{"message"},
	}
}
