package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
)

// ExecutionRepository stores one JSON document per execution. A single
// mutex serializes read-modify-write cycles so concurrent node updates
// from one scheduler run never clobber each other.
type ExecutionRepository struct {
	dir string
	mu  sync.Mutex
}

func NewExecutionRepository(dir string) *ExecutionRepository {
	return &ExecutionRepository{dir: dir}
}

func (r *ExecutionRepository) CreateExecution(_ context.Context, execution *models.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeDocument(r.dir, execution.ID, execution); err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetExecution(_ context.Context, id string) (*models.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(id)
}

func (r *ExecutionRepository) UpdateNodeExecution(_ context.Context, executionID, nodeID string, nodeExecution *models.NodeExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution, err := r.load(executionID)
	if err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", executionID, nodeID, err)
	}

	if _, ok := execution.NodeExecutions[nodeID]; !ok {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", executionID, nodeID, persistence.ErrNodeExecutionNotFound)
	}

	execution.NodeExecutions[nodeID] = nodeExecution

	if err := writeDocument(r.dir, executionID, execution); err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", executionID, nodeID, err)
	}

	return nil
}

func (r *ExecutionRepository) SetExecutionStatus(_ context.Context, executionID string, status models.ExecutionStatus, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execution, err := r.load(executionID)
	if err != nil {
		return persistence.NewExecutionError("SetExecutionStatus", executionID, err)
	}

	now := time.Now().UTC()

	execution.Status = status
	execution.ErrorMessage = errorMessage

	if status == models.ExecutionStatusRunning && execution.StartedAt == nil {
		execution.StartedAt = &now
	}

	if status.Terminal() && execution.EndedAt == nil {
		execution.EndedAt = &now
	}

	if err := writeDocument(r.dir, executionID, execution); err != nil {
		return persistence.NewExecutionError("SetExecutionStatus", executionID, err)
	}

	return nil
}

func (r *ExecutionRepository) ListExecutions(_ context.Context, workflowID string, limit, offset int) ([]*models.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := listDocumentIDs(r.dir)
	if err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.load(id)
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	if offset >= len(executions) {
		return []*models.Execution{}, nil
	}

	executions = executions[offset:]
	if limit > 0 && limit < len(executions) {
		executions = executions[:limit]
	}

	return executions, nil
}

func (r *ExecutionRepository) load(id string) (*models.Execution, error) {
	var execution models.Execution
	if err := readDocument(r.dir, id, &execution); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	return &execution, nil
}
