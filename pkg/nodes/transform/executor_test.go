package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/reporunner/pkg/models"
)

func newContext() *models.ExecutionContext {
	return models.NewExecutionContext("exec-1", "wf-1", "", nil)
}

func TestNewExecutor_MissingOperations(t *testing.T) {
	_, err := NewExecutor("t-1", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operations")
}

func TestNewExecutor_UnknownOperation(t *testing.T) {
	_, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "reverse", "field": "name"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestNewExecutor_SetRequiresValue(t *testing.T) {
	_, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "set", "field": "name"},
		},
	})
	require.Error(t, err)
}

func TestExecute_Set(t *testing.T) {
	executor, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "set", "field": "status", "value": "done"},
		},
	})
	require.NoError(t, err)

	input := map[string]any{"status": "pending", "count": 2}

	result, err := executor.Execute(context.Background(), newContext(), input)
	require.NoError(t, err)
	assert.Equal(t, "done", result.Output["status"])
	assert.Equal(t, 2, result.Output["count"])

	// The input itself stays untouched.
	assert.Equal(t, "pending", input["status"])
}

func TestExecute_SetTemplatedValue(t *testing.T) {
	executor, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "set", "field": "greeting", "value": "hello {{.input.name}}"},
		},
	})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), newContext(), map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "hello ada", result.Output["greeting"])
}

func TestExecute_Append(t *testing.T) {
	executor, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "append", "field": "tags", "value": "new"},
		},
	})
	require.NoError(t, err)

	t.Run("to list", func(t *testing.T) {
		result, err := executor.Execute(context.Background(), newContext(), map[string]any{
			"tags": []any{"old"},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"old", "new"}, result.Output["tags"])
	})

	t.Run("to missing field", func(t *testing.T) {
		result, err := executor.Execute(context.Background(), newContext(), map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, []any{"new"}, result.Output["tags"])
	})

	t.Run("to string", func(t *testing.T) {
		result, err := executor.Execute(context.Background(), newContext(), map[string]any{
			"tags": "old-",
		})
		require.NoError(t, err)
		assert.Equal(t, "old-new", result.Output["tags"])
	})
}

func TestExecute_CaseOperations(t *testing.T) {
	executor, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "uppercase", "field": "code"},
			map[string]any{"operation": "lowercase", "field": "email"},
		},
	})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), newContext(), map[string]any{
		"code":  "abc",
		"email": "ADA@EXAMPLE.COM",
	})
	require.NoError(t, err)
	assert.Equal(t, "ABC", result.Output["code"])
	assert.Equal(t, "ada@example.com", result.Output["email"])
}

func TestExecute_UppercaseNonString(t *testing.T) {
	executor, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "uppercase", "field": "count"},
		},
	})
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), newContext(), map[string]any{"count": 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a string")
}

func TestExecute_OperationsApplyInOrder(t *testing.T) {
	executor, err := NewExecutor("t-1", map[string]any{
		"operations": []any{
			map[string]any{"operation": "set", "field": "name", "value": "ada"},
			map[string]any{"operation": "uppercase", "field": "name"},
		},
	})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), newContext(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ADA", result.Output["name"])
}

func TestFactory(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, models.NodeTypeTransform, factory.ID())
	assert.NotNil(t, factory.Schema())

	_, err := factory.Create(context.Background(), "t-1", map[string]any{"operations": []any{}})
	require.NoError(t, err)
}
