package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
)

// ExecutionRepository stores the execution header in the executions table
// and each per-node record as its own row, so concurrent node updates from
// one scheduler run never serialize on a whole-document write.
type ExecutionRepository struct {
	db *sql.DB
}

func (r *ExecutionRepository) CreateExecution(ctx context.Context, execution *models.Execution) error {
	data, err := marshalExecutionHeader(execution)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO executions (id, workflow_id, status, error_message, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, data = EXCLUDED.data`,
		execution.ID, execution.WorkflowID, execution.Status, execution.ErrorMessage, data, execution.CreatedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}

	for nodeID, nodeExecution := range execution.NodeExecutions {
		if err := upsertNodeExecution(ctx, tx, execution.ID, nodeID, nodeExecution); err != nil {
			return persistence.NewNodeExecutionError("CreateExecution", execution.ID, nodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistence.NewExecutionError("CreateExecution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	var (
		data         []byte
		status       string
		errorMessage string
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT data, status, error_message FROM executions WHERE id = $1`, id,
	).Scan(&data, &status, &errorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, persistence.NewExecutionError("GetExecution", id, err)
	}

	execution, err := unmarshalExecutionHeader(data)
	if err != nil {
		return nil, persistence.NewExecutionError("GetExecution", id, err)
	}

	execution.Status = models.ExecutionStatus(status)
	execution.ErrorMessage = errorMessage

	if err := r.loadNodeExecutions(ctx, execution); err != nil {
		return nil, persistence.NewExecutionError("GetExecution", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) UpdateNodeExecution(ctx context.Context, executionID, nodeID string, nodeExecution *models.NodeExecution) error {
	if err := upsertNodeExecution(ctx, r.db, executionID, nodeID, nodeExecution); err != nil {
		return persistence.NewNodeExecutionError("UpdateNodeExecution", executionID, nodeID, err)
	}

	return nil
}

func (r *ExecutionRepository) SetExecutionStatus(ctx context.Context, executionID string, status models.ExecutionStatus, errorMessage string) error {
	now := time.Now().UTC()

	var startedAt, endedAt any
	if status == models.ExecutionStatusRunning {
		startedAt = now
	}

	if status.Terminal() {
		endedAt = now
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE executions SET
			status = $2,
			error_message = $3,
			data = data
				|| CASE WHEN $4::timestamptz IS NOT NULL AND data->>'started_at' IS NULL
					THEN jsonb_build_object('started_at', $4::timestamptz) ELSE '{}'::jsonb END
				|| CASE WHEN $5::timestamptz IS NOT NULL AND data->>'ended_at' IS NULL
					THEN jsonb_build_object('ended_at', $5::timestamptz) ELSE '{}'::jsonb END
		 WHERE id = $1`,
		executionID, status, errorMessage, startedAt, endedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("SetExecutionStatus", executionID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("SetExecutionStatus", executionID, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("SetExecutionStatus", executionID, persistence.ErrExecutionNotFound)
	}

	return nil
}

func (r *ExecutionRepository) ListExecutions(ctx context.Context, workflowID string, limit, offset int) ([]*models.Execution, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM executions WHERE workflow_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		workflowID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions for workflow %s: %w", workflowID, err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.GetExecution(ctx, id)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, nil
}

func (r *ExecutionRepository) loadNodeExecutions(ctx context.Context, execution *models.Execution) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT node_id, data FROM node_executions WHERE execution_id = $1`, execution.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	execution.NodeExecutions = make(map[string]*models.NodeExecution)

	for rows.Next() {
		var (
			nodeID string
			data   []byte
		)

		if err := rows.Scan(&nodeID, &data); err != nil {
			return err
		}

		var nodeExecution models.NodeExecution
		if err := json.Unmarshal(data, &nodeExecution); err != nil {
			return err
		}

		execution.NodeExecutions[nodeID] = &nodeExecution
	}

	return rows.Err()
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertNodeExecution(ctx context.Context, db execer, executionID, nodeID string, nodeExecution *models.NodeExecution) error {
	data, err := json.Marshal(nodeExecution)
	if err != nil {
		return fmt.Errorf("failed to marshal node execution: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO node_executions (execution_id, node_id, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (execution_id, node_id) DO UPDATE SET data = EXCLUDED.data`,
		executionID, nodeID, data,
	)

	return err
}

// The header document is the execution without its node records; those live
// in their own rows.
func marshalExecutionHeader(execution *models.Execution) ([]byte, error) {
	header := *execution
	header.NodeExecutions = nil

	return json.Marshal(&header)
}

func unmarshalExecutionHeader(data []byte) (*models.Execution, error) {
	var execution models.Execution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, err
	}

	return &execution, nil
}
