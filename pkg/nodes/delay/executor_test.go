package delay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

func TestNewExecutor_DurationString(t *testing.T) {
	executor, err := NewExecutor("d-1", map[string]any{"duration": "90s"})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, executor.SuspendFor())
}

func TestNewExecutor_Seconds(t *testing.T) {
	executor, err := NewExecutor("d-1", map[string]any{"seconds": 1.5})
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, executor.SuspendFor())
}

func TestNewExecutor_DurationWinsOverSeconds(t *testing.T) {
	executor, err := NewExecutor("d-1", map[string]any{
		"duration": "2s",
		"seconds":  float64(10),
	})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, executor.SuspendFor())
}

func TestNewExecutor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{"missing", map[string]any{}},
		{"negative", map[string]any{"seconds": -1.0}},
		{"unparseable", map[string]any{"duration": "soon"}},
		{"too long", map[string]any{"duration": "48h"}},
		{"wrong type", map[string]any{"duration": 30.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecutor("d-1", tt.config)
			assert.Error(t, err)
		})
	}
}

func TestExecute_PassesInputThrough(t *testing.T) {
	executor, err := NewExecutor("d-1", map[string]any{"duration": "1s"})
	require.NoError(t, err)

	ec := models.NewExecutionContext("exec-1", "wf-1", "", nil)

	result, err := executor.Execute(context.Background(), ec, map[string]any{"order_id": "o-42"})
	require.NoError(t, err)
	assert.Equal(t, "o-42", result.Output["order_id"])
	assert.Equal(t, "1s", result.Output["delayed_for"])
}

func TestExecutorIsSuspender(t *testing.T) {
	executor, err := NewExecutor("d-1", map[string]any{"duration": "1s"})
	require.NoError(t, err)

	var suspender protocol.Suspender = executor
	assert.Equal(t, time.Second, suspender.SuspendFor())
}

func TestFactory(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, models.NodeTypeDelay, factory.ID())
	assert.NotNil(t, factory.Schema())

	_, err := factory.Create(context.Background(), "d-1", map[string]any{"duration": "5m"})
	require.NoError(t, err)
}
