package models

// Status is the tagged outcome of a lifecycle phase or of a whole invocation.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// NodeExecutionResult is the outcome record produced by each lifecycle phase
// and, ultimately, returned to the caller. A result constructed as Failed or
// Cancelled is terminal: the engine does not run further phases on it, apart
// from finalization which always runs.
type NodeExecutionResult struct {
	Status Status `json:"status"`

	// OutputData is present only when Status is StatusCompleted.
	OutputData map[string]any `json:"output_data,omitempty"`

	// ErrorMessage is present only when Status is StatusFailed.
	ErrorMessage string `json:"error_message,omitempty"`

	// Err preserves the causing error for logging and classification. It is
	// not part of the serialized contract.
	Err error `json:"-"`
}

// CompletedResult marks a successful phase or invocation.
func CompletedResult(output map[string]any) *NodeExecutionResult {
	return &NodeExecutionResult{Status: StatusCompleted, OutputData: output}
}

// FailedResult marks a failure with a caller-facing message. err may be nil
// when the failure originates from validation rather than an error value.
func FailedResult(message string, err error) *NodeExecutionResult {
	return &NodeExecutionResult{Status: StatusFailed, ErrorMessage: message, Err: err}
}

// CancelledResult marks cooperative cancellation observed at a phase boundary.
func CancelledResult() *NodeExecutionResult {
	return &NodeExecutionResult{Status: StatusCancelled}
}

// Terminal reports whether the result stops the lifecycle before the next
// phase (anything other than a completed phase).
func (r *NodeExecutionResult) Terminal() bool {
	return r.Status != StatusCompleted
}
