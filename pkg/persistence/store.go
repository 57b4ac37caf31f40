// Package persistence defines the execution state store the engine hands
// terminal results to during finalization, plus an in-memory implementation
// for tests and single-process use.
package persistence

import (
	"context"
	"errors"

	"github.com/exeflow/exeflow/pkg/models"
)

// ErrNotFound is returned when an execution record does not exist.
var ErrNotFound = errors.New("execution record not found")

// ExecutionRecord is the persisted snapshot of one finished node invocation.
type ExecutionRecord struct {
	NodeID      string         `json:"node_id"`
	NodeType    string         `json:"node_type"`
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id"`
	Status      models.Status  `json:"status"`
	OutputData  map[string]any `json:"output_data,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewExecutionRecord snapshots a context and its terminal result.
func NewExecutionRecord(nc *models.NodeExecutionContext, result *models.NodeExecutionResult) *ExecutionRecord {
	return &ExecutionRecord{
		NodeID:      nc.NodeID,
		NodeType:    nc.NodeType,
		WorkflowID:  nc.WorkflowID,
		ExecutionID: nc.ExecutionID,
		Status:      result.Status,
		OutputData:  result.OutputData,
		Error:       result.ErrorMessage,
	}
}

// ExecutionStore persists terminal execution results. The engine calls
// SaveExecution exactly once per invocation, during finalization; storage
// technology and schema are the implementation's concern.
type ExecutionStore interface {
	SaveExecution(ctx context.Context, record *ExecutionRecord) error
	GetExecution(ctx context.Context, executionID string) (*ExecutionRecord, error)
	Close(ctx context.Context) error
}
