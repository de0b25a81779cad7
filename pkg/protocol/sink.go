package protocol

import (
	"context"

	"github.com/reporunner/reporunner/pkg/events"
)

// ProgressSink receives fire-and-forget progress events from the scheduler.
// Implementations must not block the engine; delivery failures are theirs
// to log and swallow.
type ProgressSink interface {
	Emit(ctx context.Context, event events.Event)
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) Emit(context.Context, events.Event) {}
