package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/reporunner/reporunner/pkg/graph"
	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Manager is the engine's front door: it validates workflows, creates
// execution records, hands jobs to the queue, and exposes the control
// surface (stop, status, history).
type Manager struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	scheduler   *Scheduler
	queue       *Queue
	credentials protocol.CredentialResolver
	validate    *validator.Validate

	mu     sync.Mutex
	active map[string]*models.ExecutionContext
}

// NewManager wires the engine front door. A nil resolver means executions
// run without credentials.
func NewManager(
	logger *slog.Logger,
	store persistence.Persistence,
	scheduler *Scheduler,
	queue *Queue,
	credentials protocol.CredentialResolver,
) *Manager {
	if credentials == nil {
		credentials = protocol.StaticCredentials{}
	}

	return &Manager{
		logger:      logger.With("module", "engine_manager"),
		persistence: store,
		scheduler:   scheduler,
		queue:       queue,
		credentials: credentials,
		validate:    validator.New(),
		active:      make(map[string]*models.ExecutionContext),
	}
}

// Execute accepts a workflow run request. Structural validation happens
// synchronously; everything after the returned execution ID is
// asynchronous and observed through the store or the progress sink.
func (m *Manager) Execute(
	ctx context.Context,
	workflow *models.Workflow,
	triggerType models.TriggerType,
	triggerData map[string]any,
	userID string,
) (string, error) {
	if err := m.validate.Struct(workflow); err != nil {
		return "", fmt.Errorf("invalid workflow definition: %w", err)
	}

	g, err := graph.Build(workflow)
	if err != nil {
		return "", err
	}

	executionID := "exec-" + uuid.New().String()[:8]

	execution := models.NewExecution(executionID, workflow, triggerType, triggerData)
	if err := m.persistence.ExecutionRepository().CreateExecution(ctx, execution); err != nil {
		return "", NewEngineFatalError("create execution", err)
	}

	ec := models.NewExecutionContext(executionID, workflow.ID, userID, triggerData)
	for k, v := range workflow.Variables {
		ec.Variables[k] = v
	}

	m.register(executionID, ec)

	job := func(jobCtx context.Context) {
		defer m.unregister(executionID)
		m.runExecution(jobCtx, g, workflow, execution, ec, userID)
	}

	if err := m.queue.Enqueue(job); err != nil {
		m.unregister(executionID)

		if serr := m.persistence.ExecutionRepository().SetExecutionStatus(ctx, executionID,
			models.ExecutionStatusError, "execution queue is full"); serr != nil {
			m.logger.ErrorContext(ctx, "Failed to mark rejected execution",
				"execution_id", executionID, "error", serr)
		}

		return "", err
	}

	m.logger.InfoContext(ctx, "Execution accepted",
		"execution_id", executionID,
		"workflow_id", workflow.ID,
		"trigger_type", triggerType)

	return executionID, nil
}

// ExecuteByID loads the workflow from the store and runs it.
func (m *Manager) ExecuteByID(
	ctx context.Context,
	workflowID string,
	triggerType models.TriggerType,
	triggerData map[string]any,
	userID string,
) (string, error) {
	workflow, err := m.persistence.WorkflowRepository().GetWorkflow(ctx, workflowID)
	if err != nil {
		return "", err
	}

	return m.Execute(ctx, workflow, triggerType, triggerData, userID)
}

func (m *Manager) runExecution(
	ctx context.Context,
	g *graph.Graph,
	workflow *models.Workflow,
	execution *models.Execution,
	ec *models.ExecutionContext,
	userID string,
) {
	credentials, err := m.credentials.ResolveCredentials(ctx, userID)
	if err != nil {
		m.logger.ErrorContext(ctx, "Credential resolution failed",
			"execution_id", execution.ID, "error", err)

		message := protocol.NewCredentialError("", err).Error()
		if serr := m.persistence.ExecutionRepository().SetExecutionStatus(ctx, execution.ID,
			models.ExecutionStatusError, message); serr != nil {
			m.logger.ErrorContext(ctx, "Failed to mark execution failed",
				"execution_id", execution.ID, "error", serr)
		}

		return
	}

	ec.Credentials = credentials

	if err := m.scheduler.Run(ctx, g, workflow, execution, ec); err != nil {
		m.logger.ErrorContext(ctx, "Execution ended with engine fault",
			"execution_id", execution.ID, "error", err)
	}
}

// StopExecution requests cancellation. The scheduler refuses to start
// further nodes; in-flight node work completes or times out naturally.
func (m *Manager) StopExecution(ctx context.Context, executionID string) error {
	m.mu.Lock()
	ec, ok := m.active[executionID]
	m.mu.Unlock()

	if ok {
		ec.Cancel()
		m.logger.InfoContext(ctx, "Stop requested", "execution_id", executionID)

		return nil
	}

	execution, err := m.persistence.ExecutionRepository().GetExecution(ctx, executionID)
	if err != nil {
		return err
	}

	if execution.Status.Terminal() {
		return persistence.ErrExecutionTerminal
	}

	// Not in this process; record the cancellation directly.
	return m.persistence.ExecutionRepository().SetExecutionStatus(ctx, executionID,
		models.ExecutionStatusCancelled, "")
}

// GetExecutionStatus returns the current execution record.
func (m *Manager) GetExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error) {
	return m.persistence.ExecutionRepository().GetExecution(ctx, executionID)
}

// GetExecutionHistory returns a workflow's executions, most recent first.
func (m *Manager) GetExecutionHistory(ctx context.Context, workflowID string, limit, offset int) ([]*models.Execution, error) {
	return m.persistence.ExecutionRepository().ListExecutions(ctx, workflowID, limit, offset)
}

func (m *Manager) register(executionID string, ec *models.ExecutionContext) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active[executionID] = ec
}

func (m *Manager) unregister(executionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.active, executionID)
}
