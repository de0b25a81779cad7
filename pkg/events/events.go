// Package events defines the structured progress events emitted over the
// lifetime of a workflow execution.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/reporunner/reporunner/pkg/models"
)

type EventType string

// Topic is the bus topic all execution progress events are published on.
const Topic = "reporunner.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution_started"
	NodeStartedEvent        EventType = "node_started"
	NodeCompletedEvent      EventType = "node_completed"
	NodeFailedEvent         EventType = "node_failed"
	ExecutionCompletedEvent EventType = "execution_completed"
	ExecutionFailedEvent    EventType = "execution_failed"

	// WorkflowTriggeredEvent asks a worker to run a workflow. It is the
	// only inbound event type; the rest are progress notifications.
	WorkflowTriggeredEvent EventType = "workflow.triggered"
)

// Event is implemented by every event payload in this package.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type WorkflowTriggered struct {
	BaseEvent

	TriggerType models.TriggerType `json:"trigger_type"`
	TriggerData map[string]any     `json:"trigger_data,omitempty"`
	UserID      string             `json:"user_id,omitempty"`
}

func (e WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string             `json:"execution_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
	TriggerData map[string]any     `json:"trigger_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type NodeStarted struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	NodeID       string `json:"node_id"`
	RetryAttempt int    `json:"retry_attempt"`
}

func (e NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

type NodeCompleted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	Output      map[string]any `json:"output,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (e NodeCompleted) GetType() EventType {
	return NodeCompletedEvent
}

type NodeFailed struct {
	BaseEvent

	ExecutionID  string `json:"execution_id"`
	NodeID       string `json:"node_id"`
	Error        string `json:"error"`
	RetryAttempt int    `json:"retry_attempt"`
	DurationMs   int64  `json:"duration_ms"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string                 `json:"execution_id"`
	Status        models.ExecutionStatus `json:"status"`
	NodesExecuted int                    `json:"nodes_executed"`
	DurationMs    int64                  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID   string                 `json:"execution_id"`
	Status        models.ExecutionStatus `json:"status"`
	Error         string                 `json:"error"`
	FailedNodeID  string                 `json:"failed_node_id,omitempty"`
	NodesExecuted int                    `json:"nodes_executed"`
	DurationMs    int64                  `json:"duration_ms"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
