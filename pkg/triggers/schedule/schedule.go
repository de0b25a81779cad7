// Package schedule provides the cron-based trigger source. Workflows with a
// trigger node carrying a "cron" expression are fired on that schedule.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Source drives workflow executions from cron expressions declared on
// trigger nodes.
type Source struct {
	logger    *slog.Logger
	workflows persistence.WorkflowRepository
	cron      *cron.Cron

	mu      sync.Mutex
	started bool
}

func NewSource(logger *slog.Logger, workflows persistence.WorkflowRepository) *Source {
	return &Source{
		logger:    logger.With("module", "schedule_source"),
		workflows: workflows,
		cron:      cron.New(),
	}
}

// Start registers a cron entry per scheduled workflow and begins firing.
func (s *Source) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	workflows, err := s.workflows.ListWorkflows(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workflows: %w", err)
	}

	registered := 0

	for _, workflow := range workflows {
		for _, expression := range CronExpressions(workflow) {
			workflowID := workflow.ID
			expr := expression

			_, err := s.cron.AddFunc(expr, func() {
				s.fire(context.WithoutCancel(ctx), callback, workflowID, expr)
			})
			if err != nil {
				s.logger.Error("Skipping invalid cron expression",
					"workflow_id", workflowID, "cron", expr, "error", err)

				continue
			}

			registered++
		}
	}

	s.cron.Start()
	s.started = true

	s.logger.Info("Schedule source started", "entries", registered)

	return nil
}

// Stop halts the cron runner and waits for in-flight jobs.
func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.started = false
	s.logger.Info("Schedule source stopped")

	return nil
}

func (s *Source) fire(ctx context.Context, callback protocol.TriggerCallback, workflowID, expression string) {
	triggerData := map[string]any{
		"cron": expression,
	}

	if err := callback(ctx, workflowID, models.TriggerTypeSchedule, triggerData); err != nil {
		s.logger.ErrorContext(ctx, "Failed to trigger scheduled workflow",
			"workflow_id", workflowID, "cron", expression, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled workflow triggered",
		"workflow_id", workflowID, "cron", expression)
}

// CronExpressions collects the cron expressions declared on a workflow's
// trigger nodes.
func CronExpressions(workflow *models.Workflow) []string {
	var expressions []string

	for _, node := range workflow.Nodes {
		if node.Type != models.NodeTypeTrigger {
			continue
		}

		if expr, ok := node.Config["cron"].(string); ok && expr != "" {
			expressions = append(expressions, expr)
		}
	}

	return expressions
}
