package models

import "time"

// ExecutionStatus is the lifecycle state of a whole-workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSuccess   ExecutionStatus = "success"
	ExecutionStatusError     ExecutionStatus = "error"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the execution has reached a final state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusError || s == ExecutionStatusCancelled
}

// NodeStatus is the lifecycle state of a single node within an execution.
// Transitions are monotonic: pending -> running -> {success|error|skipped}.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
	NodeStatusSkipped NodeStatus = "skipped"
)

// TriggerType identifies how an execution was started.
type TriggerType string

const (
	TriggerTypeManual   TriggerType = "manual"
	TriggerTypeWebhook  TriggerType = "webhook"
	TriggerTypeSchedule TriggerType = "schedule"
	TriggerTypeAPI      TriggerType = "api"
)

// NodeExecution is the per-node run record within an execution. It is only
// ever written by the task running that node.
type NodeExecution struct {
	NodeID       string         `json:"node_id"`
	Status       NodeStatus     `json:"status"`
	Input        map[string]any `json:"input,omitempty"`
	Output       map[string]any `json:"output,omitempty"`
	Error        string         `json:"error,omitempty"`
	RetryAttempt int            `json:"retry_attempt"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	EndedAt      *time.Time     `json:"ended_at,omitempty"`
}

// Execution is one run of a workflow. It is created at trigger time with a
// pending NodeExecution for every node, mutated by the scheduler over the
// run, and immutable once terminal.
type Execution struct {
	ID             string                    `json:"id"`
	WorkflowID     string                    `json:"workflow_id"`
	Status         ExecutionStatus           `json:"status"`
	TriggerType    TriggerType               `json:"trigger_type"`
	TriggerData    map[string]any            `json:"trigger_data,omitempty"`
	NodeExecutions map[string]*NodeExecution `json:"node_executions"`
	StartedAt      *time.Time                `json:"started_at,omitempty"`
	EndedAt        *time.Time                `json:"ended_at,omitempty"`
	ErrorMessage   string                    `json:"error_message,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// NewExecution builds an execution record for the given workflow with every
// node initialized to pending.
func NewExecution(id string, workflow *Workflow, triggerType TriggerType, triggerData map[string]any) *Execution {
	nodeExecutions := make(map[string]*NodeExecution, len(workflow.Nodes))
	for _, node := range workflow.Nodes {
		nodeExecutions[node.ID] = &NodeExecution{
			NodeID: node.ID,
			Status: NodeStatusPending,
		}
	}

	return &Execution{
		ID:             id,
		WorkflowID:     workflow.ID,
		Status:         ExecutionStatusPending,
		TriggerType:    triggerType,
		TriggerData:    triggerData,
		NodeExecutions: nodeExecutions,
		CreatedAt:      time.Now().UTC(),
	}
}
