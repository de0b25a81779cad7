package httprequest

import (
	"context"

	"github.com/reporunner/reporunner/pkg/protocol"
)

// Factory creates HTTP request executors.
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
	return "HTTP Request"
}

func (f *Factory) Description() string {
	return "Performs an HTTP request with templated URL, headers, and body, with optional credential header injection and retries."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Supports templates.",
			},
			"method": map[string]any{
				"type":    "string",
				"enum":    []any{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
				"default": "GET",
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers. Values support templates.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body. Supports templates.",
			},
			"timeout": map[string]any{
				"type":    "number",
				"minimum": 1,
				"maximum": 300,
				"default": 30,
			},
			"credential": map[string]any{
				"type":        "string",
				"description": "Name of a resolved credential to inject as request headers.",
			},
			"retries": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"attempts": map[string]any{"type": "number", "minimum": 1, "maximum": 10},
					"delay":    map[string]any{"type": "number", "minimum": 0, "maximum": 30000},
				},
			},
		},
		"required": []any{"url"},
	}
}
