// Package queue provides a Redis list backed trigger source. External
// systems push trigger requests onto a list; the source pops them and
// starts executions.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

const (
	// DefaultQueueKey is the Redis list trigger requests are pushed onto.
	DefaultQueueKey = "reporunner:triggers"

	popTimeout = 5 * time.Second
)

// Request is the wire format of one queued trigger.
type Request struct {
	WorkflowID  string         `json:"workflow_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// Source pops trigger requests from a Redis list.
type Source struct {
	logger   *slog.Logger
	client   *redis.Client
	queueKey string

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSource connects to Redis at the given URL. An empty queueKey falls
// back to DefaultQueueKey.
func NewSource(logger *slog.Logger, redisURL, queueKey string) (*Source, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	if queueKey == "" {
		queueKey = DefaultQueueKey
	}

	return &Source{
		logger:   logger.With("module", "queue_source"),
		client:   redis.NewClient(opts),
		queueKey: queueKey,
	}, nil
}

// Start begins consuming the list until Stop is called.
func (s *Source) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.consume(loopCtx, callback)

	s.logger.Info("Queue source started", "queue", s.queueKey)

	return nil
}

// Stop halts consumption and closes the client.
func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.cancel()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.started = false
	s.logger.Info("Queue source stopped")

	return s.client.Close()
}

func (s *Source) consume(ctx context.Context, callback protocol.TriggerCallback) {
	defer close(s.done)

	for {
		if ctx.Err() != nil {
			return
		}

		result, err := s.client.BLPop(ctx, popTimeout, s.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			if errors.Is(err, context.Canceled) {
				return
			}

			s.logger.ErrorContext(ctx, "Failed to pop trigger request", "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}

			continue
		}

		// BLPop returns [key, value].
		if len(result) != 2 {
			continue
		}

		s.dispatch(ctx, callback, []byte(result[1]))
	}
}

func (s *Source) dispatch(ctx context.Context, callback protocol.TriggerCallback, payload []byte) {
	request, err := ParseRequest(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Dropping malformed trigger request", "error", err)

		return
	}

	if err := callback(ctx, request.WorkflowID, models.TriggerTypeAPI, request.TriggerData); err != nil {
		s.logger.ErrorContext(ctx, "Failed to trigger workflow from queue",
			"workflow_id", request.WorkflowID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Queued workflow triggered", "workflow_id", request.WorkflowID)
}

// ParseRequest decodes and validates one queued trigger payload.
func ParseRequest(payload []byte) (*Request, error) {
	var request Request

	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, fmt.Errorf("invalid trigger payload: %w", err)
	}

	if request.WorkflowID == "" {
		return nil, errors.New("trigger payload missing workflow_id")
	}

	return &request, nil
}
