// Package protocol defines the contracts between the execution engine and
// pluggable node strategies.
package protocol

import (
	"context"

	"github.com/exeflow/exeflow/pkg/models"
)

// NodeStrategy supplies the node-type specific behavior for the four-phase
// execution lifecycle. The engine owns phase ordering, cancellation checks,
// panic barriers, metrics and the cleanup guarantee; implementations supply
// only these hooks. A strategy instance serves a single invocation.
type NodeStrategy interface {
	// Type returns the node type discriminator this strategy implements.
	Type() string

	// ValidateInputs checks configuration and input data before any side
	// effect is performed. An invalid result fails the invocation during
	// preprocessing, so no external call is ever attempted on bad config.
	ValidateInputs(ctx context.Context, nc *models.NodeExecutionContext) models.ValidationResult

	// SetupExecutionContext acquires the resources Execute needs, registering
	// them on the context so finalization releases them on every exit path.
	SetupExecutionContext(ctx context.Context, nc *models.NodeExecutionContext) error

	// Execute performs the node's external operation. Implementations apply
	// their own resilience wrapping (retry inside circuit breaker) and must
	// honor ctx cancellation promptly.
	Execute(ctx context.Context, nc *models.NodeExecutionContext) (map[string]any, error)

	// TransformOutput normalizes execute output for downstream consumption.
	TransformOutput(ctx context.Context, nc *models.NodeExecutionContext, output map[string]any) (map[string]any, error)

	// ValidateOutput checks the transformed output. An invalid result
	// converts an otherwise successful execution into a failure.
	ValidateOutput(ctx context.Context, nc *models.NodeExecutionContext, output map[string]any) models.ValidationResult

	// CleanupResources releases anything the strategy holds outside the
	// context's resource list. The engine calls it with a
	// cancellation-agnostic context so cleanup cannot be aborted by the
	// signal that cancelled the execution.
	CleanupResources(ctx context.Context, nc *models.NodeExecutionContext) error
}
