package httprequest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

func newContext() *models.ExecutionContext {
	return models.NewExecutionContext("exec-1", "wf-1", "", nil)
}

func TestNewExecutor_MissingURL(t *testing.T) {
	_, err := NewExecutor("http-1", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestNewExecutor_InvalidMethod(t *testing.T) {
	_, err := NewExecutor("http-1", map[string]any{
		"url":    "https://example.com",
		"method": "FETCH",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP method")
}

func TestNewExecutor_InvalidRetries(t *testing.T) {
	_, err := NewExecutor("http-1", map[string]any{
		"url":     "https://example.com",
		"retries": map[string]any{"attempts": float64(20)},
	})
	require.Error(t, err)
}

func TestExecute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	executor, err := NewExecutor("http-1", map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), newContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, 200, result.Output["status_code"])
	assert.Equal(t, `{"ok": true}`, result.Output["body"])

	jsonBody, ok := result.Output["json"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, jsonBody["ok"])
}

func TestExecute_TemplatedURLAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/o-42", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	executor, err := NewExecutor("http-1", map[string]any{
		"url":    server.URL + "/orders/{{.input.order_id}}",
		"method": "POST",
		"body":   `{"status": "{{.input.status}}"}`,
	})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), newContext(), map[string]any{
		"order_id": "o-42",
		"status":   "shipped",
	})
	require.NoError(t, err)
	assert.Equal(t, 201, result.Output["status_code"])
}

func TestExecute_CredentialBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
	}))
	defer server.Close()

	executor, err := NewExecutor("http-1", map[string]any{
		"url":        server.URL,
		"credential": "billing_api",
	})
	require.NoError(t, err)

	ec := newContext()
	ec.Credentials["billing_api"] = map[string]any{"token": "secret-token"}

	_, err = executor.Execute(context.Background(), ec, nil)
	require.NoError(t, err)
}

func TestExecute_CredentialAPIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k-123", r.Header.Get("X-Custom-Key"))
	}))
	defer server.Close()

	executor, err := NewExecutor("http-1", map[string]any{
		"url":        server.URL,
		"credential": "partner",
	})
	require.NoError(t, err)

	ec := newContext()
	ec.Credentials["partner"] = map[string]any{
		"api_key": "k-123",
		"header":  "X-Custom-Key",
	}

	_, err = executor.Execute(context.Background(), ec, nil)
	require.NoError(t, err)
}

func TestExecute_MissingCredential(t *testing.T) {
	executor, err := NewExecutor("http-1", map[string]any{
		"url":        "https://example.com",
		"credential": "missing",
	})
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), newContext(), nil)
	require.Error(t, err)
	assert.True(t, protocol.IsCredentialError(err))
}

func TestExecute_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor, err := NewExecutor("http-1", map[string]any{
		"url":     server.URL,
		"retries": map[string]any{"attempts": float64(3), "delay": float64(0)},
	})
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), newContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, 200, result.Output["status_code"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecute_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	executor, err := NewExecutor("http-1", map[string]any{
		"url":     server.URL,
		"retries": map[string]any{"attempts": float64(3), "delay": float64(0)},
	})
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), newContext(), nil)
	require.Error(t, err)
	assert.True(t, protocol.IsNodeExecutionError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFactory(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, TypeID, factory.ID())
	assert.NotNil(t, factory.Schema())

	_, err := factory.Create(context.Background(), "http-1", map[string]any{"url": "https://example.com"})
	require.NoError(t, err)
}
