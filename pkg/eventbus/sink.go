package eventbus

import (
	"context"
	"log/slog"

	"github.com/reporunner/reporunner/pkg/events"
)

// BusSink adapts the event bus to the scheduler's progress sink contract.
// Publish failures are logged and swallowed so delivery problems never
// stall an execution.
type BusSink struct {
	logger    *slog.Logger
	publisher EventPublisher
}

func NewBusSink(logger *slog.Logger, publisher EventPublisher) *BusSink {
	return &BusSink{
		logger:    logger.With("module", "progress_sink"),
		publisher: publisher,
	}
}

func (s *BusSink) Emit(ctx context.Context, event events.Event) {
	key := eventKey(event)

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish progress event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}

// eventKey partitions progress events by execution so per-execution order
// is preserved on partitioned transports.
func eventKey(event events.Event) string {
	switch e := event.(type) {
	case events.ExecutionStarted:
		return e.ExecutionID
	case events.NodeStarted:
		return e.ExecutionID
	case events.NodeCompleted:
		return e.ExecutionID
	case events.NodeFailed:
		return e.ExecutionID
	case events.ExecutionCompleted:
		return e.ExecutionID
	case events.ExecutionFailed:
		return e.ExecutionID
	case events.WorkflowTriggered:
		return e.WorkflowID
	default:
		return ""
	}
}
