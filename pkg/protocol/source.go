package protocol

import (
	"context"

	"github.com/reporunner/reporunner/pkg/models"
)

// TriggerCallback is invoked by a trigger source when a workflow should run.
type TriggerCallback func(ctx context.Context, workflowID string, triggerType models.TriggerType, triggerData map[string]any) error

// TriggerSource produces workflow trigger requests from the outside world
// (cron schedules, queues, webhooks). Start must not block after setup;
// Stop drains in-flight work.
type TriggerSource interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
}
