package notify

import (
	"time"

	"github.com/exeflow/exeflow/pkg/models"
)

// Topic is the channel completion events are published on.
const Topic = "exeflow.node.executions"

// EventType discriminates completion events by terminal status.
type EventType string

const (
	NodeExecutionCompletedEvent EventType = "node.execution.completed"
	NodeExecutionFailedEvent    EventType = "node.execution.failed"
	NodeExecutionCancelledEvent EventType = "node.execution.cancelled"
)

// NodeExecutionFinished is the payload published once per invocation during
// finalization.
type NodeExecutionFinished struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	NodeID      string         `json:"node_id"`
	NodeType    string         `json:"node_type"`
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id"`
	Status      models.Status  `json:"status"`
	OutputData  map[string]any `json:"output_data,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// EventTypeForStatus maps a terminal status to its event type.
func EventTypeForStatus(status models.Status) EventType {
	switch status {
	case models.StatusFailed:
		return NodeExecutionFailedEvent
	case models.StatusCancelled:
		return NodeExecutionCancelledEvent
	default:
		return NodeExecutionCompletedEvent
	}
}
