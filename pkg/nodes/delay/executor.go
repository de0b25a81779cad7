// Package delay provides the delay node, which pauses execution for a
// configured duration before passing its input through unchanged.
package delay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

const maxDuration = 24 * time.Hour

// Executor waits for a fixed duration, then forwards its input. The wait
// itself is performed by the scheduler through the Suspender interface so
// a sleeping delay node does not hold a concurrency slot.
type Executor struct {
	id       string
	duration time.Duration
}

// NewExecutor parses the delay duration from config. Accepts either a
// numeric "seconds" value or a "duration" string such as "1h30m".
func NewExecutor(nodeID string, config map[string]any) (*Executor, error) {
	duration, err := parseDuration(config)
	if err != nil {
		return nil, err
	}

	if duration < 0 {
		return nil, fmt.Errorf("duration must not be negative, got %s", duration)
	}

	if duration > maxDuration {
		return nil, fmt.Errorf("duration must not exceed %s, got %s", maxDuration, duration)
	}

	return &Executor{id: nodeID, duration: duration}, nil
}

func parseDuration(config map[string]any) (time.Duration, error) {
	if raw, present := config["duration"]; present {
		s, ok := raw.(string)
		if !ok {
			return 0, fmt.Errorf("'duration' must be a string, got %T", raw)
		}

		duration, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}

		return duration, nil
	}

	if raw, present := config["seconds"]; present {
		seconds, ok := toFloat(raw)
		if !ok {
			return 0, fmt.Errorf("'seconds' must be a number, got %T", raw)
		}

		return time.Duration(seconds * float64(time.Second)), nil
	}

	return 0, errors.New("missing required field 'duration' or 'seconds'")
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}

	return 0, false
}

// SuspendFor reports how long the scheduler should hold this node before
// running it.
func (e *Executor) SuspendFor() time.Duration {
	return e.duration
}

// Execute forwards the input unchanged. The suspension has already
// happened by the time the scheduler calls this.
func (e *Executor) Execute(_ context.Context, _ *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
	output := map[string]any{
		"delayed_for": e.duration.String(),
	}

	for k, v := range input {
		output[k] = v
	}

	return &protocol.Result{Output: output}, nil
}
