// Package registry maps node type identifiers to executor factories.
// Dispatch is strictly by declared node type; nothing else influences which
// executor runs.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/reporunner/reporunner/pkg/protocol"
)

// NodeType describes a registered node type for API listings.
type NodeType struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// Registry is the capability map from node type to executor factory.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ExecutorFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.ExecutorFactory),
	}
}

// Register adds a factory under its type identifier. Later registrations
// with the same identifier replace earlier ones.
func (r *Registry) Register(factory protocol.ExecutorFactory) {
	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered node executor", "node_type", factory.ID())
}

// Registered reports whether a node type has a factory.
func (r *Registry) Registered(nodeType string) bool {
	_, ok := r.factories[nodeType]

	return ok
}

// CreateExecutor validates config against the factory's schema and builds a
// configured executor for one node.
func (r *Registry) CreateExecutor(ctx context.Context, nodeType, nodeID string, config map[string]any) (protocol.NodeExecutor, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q not registered", nodeType)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, fmt.Errorf("invalid configuration for node %s (%s): %w", nodeID, nodeType, err)
	}

	return factory.Create(ctx, nodeID, config)
}

// NodeTypes returns metadata for every registered node type.
func (r *Registry) NodeTypes() []NodeType {
	types := make([]NodeType, 0, len(r.factories))

	for _, factory := range r.factories {
		types = append(types, NodeType{
			ID:          factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return types
}

func validateConfig(schema, config map[string]any) error {
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}

			detail += desc.String()
		}

		return fmt.Errorf("configuration rejected: %s", detail)
	}

	return nil
}
