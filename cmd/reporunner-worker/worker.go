package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reporunner/reporunner/pkg/engine"
	"github.com/reporunner/reporunner/pkg/eventbus"
	"github.com/reporunner/reporunner/pkg/events"
	"github.com/reporunner/reporunner/pkg/graph"
	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Worker consumes workflow trigger events from the bus and runs them
// through the engine. Trigger sources attached to the worker publish
// trigger events onto the same bus, so any worker in the group can pick
// them up.
type Worker struct {
	id       string
	logger   *slog.Logger
	manager  *engine.Manager
	eventBus eventbus.EventBus
	sources  []protocol.TriggerSource
}

func NewWorker(
	id string,
	logger *slog.Logger,
	manager *engine.Manager,
	eventBus eventbus.EventBus,
	sources []protocol.TriggerSource,
) *Worker {
	return &Worker{
		id:       id,
		logger:   logger.With("module", "worker", "worker_id", id),
		manager:  manager,
		eventBus: eventBus,
		sources:  sources,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	if err := w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	for _, source := range w.sources {
		if err := source.Start(ctx, w.publishTrigger); err != nil {
			w.logger.ErrorContext(ctx, "Failed to start trigger source", "error", err)

			return err
		}
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(ctx, "Shutting down worker...")

	for _, source := range w.sources {
		if err := source.Stop(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop trigger source", "error", err)
		}
	}

	return nil
}

// publishTrigger is the callback handed to trigger sources. It routes the
// request through the bus instead of executing locally, so consumption is
// load-balanced across the worker group.
func (w *Worker) publishTrigger(ctx context.Context, workflowID string, triggerType models.TriggerType, triggerData map[string]any) error {
	event := events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, workflowID),
		TriggerType: triggerType,
		TriggerData: triggerData,
	}

	return w.eventBus.Publish(ctx, workflowID, event)
}

func (w *Worker) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggered, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event payload for workflow.triggered")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", triggered.WorkflowID,
		"event_id", triggered.ID,
	)
	logger.InfoContext(ctx, "Processing workflow triggered event")

	executionID, err := w.manager.ExecuteByID(ctx, triggered.WorkflowID, triggered.TriggerType, triggered.TriggerData, triggered.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to start execution", "error", err)

		// Malformed or missing workflows never become startable; redelivering
		// the event would loop forever.
		if graph.IsValidationError(err) || persistence.IsWorkflowNotFound(err) {
			return nil
		}

		return err
	}

	logger.InfoContext(ctx, "Execution started", "execution_id", executionID)

	return nil
}
