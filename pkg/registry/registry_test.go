package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

type stubFactory struct {
	id     string
	schema map[string]any
}

func (f *stubFactory) Create(_ context.Context, nodeID string, _ map[string]any) (protocol.NodeExecutor, error) {
	return &stubExecutor{id: nodeID}, nil
}

func (f *stubFactory) ID() string { return f.id }

func (f *stubFactory) Name() string { return "Stub" }

func (f *stubFactory) Description() string { return "Stub executor for tests" }

func (f *stubFactory) Schema() map[string]any { return f.schema }

type stubExecutor struct {
	id string
}

func (e *stubExecutor) Execute(_ context.Context, _ *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
	return &protocol.Result{Output: input}, nil
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.DiscardHandler))
}

func TestRegisterAndCreate(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubFactory{id: "stub"})

	assert.True(t, r.Registered("stub"))
	assert.False(t, r.Registered("other"))

	executor, err := r.CreateExecutor(context.Background(), "stub", "n-1", nil)
	require.NoError(t, err)
	assert.NotNil(t, executor)
}

func TestCreateExecutor_UnknownType(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateExecutor(context.Background(), "missing", "n-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestCreateExecutor_SchemaValidation(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubFactory{
		id: "stub",
		schema: map[string]any{
			"type":     "object",
			"required": []any{"url"},
			"properties": map[string]any{
				"url": map[string]any{"type": "string"},
			},
		},
	})

	_, err := r.CreateExecutor(context.Background(), "stub", "n-1", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = r.CreateExecutor(context.Background(), "stub", "n-1", map[string]any{"url": "https://example.com"})
	require.NoError(t, err)
}

func TestNodeTypes(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubFactory{id: "stub"})

	types := r.NodeTypes()
	require.Len(t, types, 1)
	assert.Equal(t, "stub", types[0].ID)
	assert.Equal(t, "Stub", types[0].Name)
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(slog.New(slog.DiscardHandler))

	for _, nodeType := range []string{
		models.NodeTypeTrigger,
		models.NodeTypeCondition,
		models.NodeTypeTransform,
		models.NodeTypeDelay,
		"action:http_request",
		"action:log",
	} {
		assert.True(t, r.Registered(nodeType), nodeType)
	}
}
