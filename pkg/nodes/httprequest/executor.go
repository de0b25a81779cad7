// Package httprequest provides the HTTP request integration executor.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
	"github.com/reporunner/reporunner/pkg/template"
)

// TypeID is the registry identifier for this executor.
const TypeID = "action:http_request"

// Config defines the configuration for HTTP request nodes. URL, body, and
// header values may contain templates rendered against the execution
// context.
type Config struct {
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body,omitempty"`
	Timeout    int               `json:"timeout"`
	Credential string            `json:"credential,omitempty"`
	Retries    RetryConfig       `json:"retries"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	Attempts int `json:"attempts"`
	Delay    int `json:"delay"`
}

// Executor performs one HTTP request per invocation.
type Executor struct {
	id     string
	config Config
	client *http.Client
}

// NewExecutor parses the node configuration.
func NewExecutor(nodeID string, config map[string]any) (*Executor, error) {
	cfg := Config{
		Method:  http.MethodGet,
		Headers: make(map[string]string),
		Timeout: 30,
		Retries: RetryConfig{Attempts: 1, Delay: 0},
	}

	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	cfg.URL = url

	if method, ok := config["method"].(string); ok {
		cfg.Method = strings.ToUpper(method)
	}

	if !validMethods[cfg.Method] {
		return nil, fmt.Errorf("invalid HTTP method: %s", cfg.Method)
	}

	if headers, ok := config["headers"].(map[string]any); ok {
		for k, v := range headers {
			if strVal, ok := v.(string); ok {
				cfg.Headers[k] = strVal
			}
		}
	}

	if body, ok := config["body"].(string); ok {
		cfg.Body = body
	}

	if timeout, ok := config["timeout"].(float64); ok {
		if timeout < 1 || timeout > 300 {
			return nil, errors.New("timeout must be between 1 and 300 seconds")
		}

		cfg.Timeout = int(timeout)
	}

	if credential, ok := config["credential"].(string); ok {
		cfg.Credential = credential
	}

	if retries, ok := config["retries"].(map[string]any); ok {
		if attempts, ok := retries["attempts"].(float64); ok {
			if attempts < 1 || attempts > 10 {
				return nil, errors.New("retry attempts must be between 1 and 10")
			}

			cfg.Retries.Attempts = int(attempts)
		}

		if delay, ok := retries["delay"].(float64); ok {
			if delay < 0 || delay > 30000 {
				return nil, errors.New("retry delay must be between 0 and 30000 milliseconds")
			}

			cfg.Retries.Delay = int(delay)
		}
	}

	return &Executor{
		id:     nodeID,
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}, nil
}

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodDelete: true, http.MethodPatch: true, http.MethodHead: true,
	http.MethodOptions: true,
}

// Execute renders the request templates, injects credential headers, and
// performs the request with the configured retry budget.
func (e *Executor) Execute(ctx context.Context, ec *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
	url, err := template.RenderString(e.config.URL, ec, input)
	if err != nil {
		return nil, protocol.NewNodeExecutionError(e.id, fmt.Errorf("failed to render URL template: %w", err))
	}

	var body string

	if e.config.Body != "" {
		body, err = template.RenderString(e.config.Body, ec, input)
		if err != nil {
			return nil, protocol.NewNodeExecutionError(e.id, fmt.Errorf("failed to render body template: %w", err))
		}
	}

	headers := make(map[string]string, len(e.config.Headers))

	for key, value := range e.config.Headers {
		rendered, err := template.RenderString(value, ec, input)
		if err != nil {
			headers[key] = value

			continue
		}

		headers[key] = rendered
	}

	if e.config.Credential != "" {
		if err := injectCredential(headers, e.config.Credential, ec.Credentials); err != nil {
			return nil, err
		}
	}

	var lastErr error

	for attempt := 1; attempt <= e.config.Retries.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(e.config.Retries.Delay) * time.Millisecond):
			}
		}

		output, err := e.performRequest(ctx, url, body, headers)
		if err == nil {
			return &protocol.Result{Output: output}, nil
		}

		lastErr = err

		// Client errors will not heal with a retry.
		httpErr := &HTTPError{}
		if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
			break
		}
	}

	return nil, protocol.NewNodeExecutionError(e.id,
		fmt.Errorf("request failed after %d attempts: %w", e.config.Retries.Attempts, lastErr))
}

// injectCredential maps a resolved credential onto request headers. A
// "headers" sub-map is copied verbatim; otherwise a "token" becomes a
// bearer Authorization header and an "api_key" goes into the header named
// by "header" (default X-API-Key).
func injectCredential(headers map[string]string, name string, credentials map[string]map[string]any) error {
	cred, ok := credentials[name]
	if !ok {
		return protocol.NewCredentialError(name, errors.New("credential not resolved for execution"))
	}

	if extra, ok := cred["headers"].(map[string]any); ok {
		for k, v := range extra {
			if strVal, ok := v.(string); ok {
				headers[k] = strVal
			}
		}

		return nil
	}

	if token, ok := cred["token"].(string); ok {
		headers["Authorization"] = "Bearer " + token

		return nil
	}

	if apiKey, ok := cred["api_key"].(string); ok {
		headerName := "X-API-Key"
		if custom, ok := cred["header"].(string); ok && custom != "" {
			headerName = custom
		}

		headers[headerName] = apiKey

		return nil
	}

	return protocol.NewCredentialError(name, errors.New("credential has no usable token, api_key, or headers"))
}

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *Executor) performRequest(ctx context.Context, url, body string, headers map[string]string) (map[string]any, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, e.config.Method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	output := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		output["json"] = jsonBody
	}

	return output, nil
}
