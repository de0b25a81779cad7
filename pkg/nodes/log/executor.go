// Package log provides the structured logging integration executor.
package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
	"github.com/reporunner/reporunner/pkg/template"
)

// TypeID is the registry identifier for this executor.
const TypeID = "action:log"

// Executor writes a templated message to the execution's structured
// logger and forwards its input unchanged.
type Executor struct {
	id      string
	message string
	level   slog.Level
}

// NewExecutor parses the message template and log level from config.
func NewExecutor(nodeID string, config map[string]any) (*Executor, error) {
	message, ok := config["message"].(string)
	if !ok || message == "" {
		return nil, errors.New("missing required field 'message'")
	}

	level := slog.LevelInfo

	if raw, ok := config["level"].(string); ok {
		parsed, err := parseLevel(raw)
		if err != nil {
			return nil, err
		}

		level = parsed
	}

	return &Executor{id: nodeID, message: message, level: level}, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return 0, fmt.Errorf("invalid log level: %s", raw)
}

// Execute renders the message and emits it at the configured level.
func (e *Executor) Execute(ctx context.Context, ec *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
	message, err := template.RenderString(e.message, ec, input)
	if err != nil {
		return nil, protocol.NewNodeExecutionError(e.id, fmt.Errorf("failed to render message template: %w", err))
	}

	logger := ec.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Log(ctx, e.level, message, "node_id", e.id)

	output := map[string]any{
		"message":   message,
		"level":     e.level.String(),
		"logged_at": time.Now().UTC().Format(time.RFC3339),
	}

	for k, v := range input {
		if _, taken := output[k]; !taken {
			output[k] = v
		}
	}

	return &protocol.Result{Output: output}, nil
}
