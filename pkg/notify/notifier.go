// Package notify publishes node completion events to downstream listeners.
package notify

import (
	"context"

	"github.com/exeflow/exeflow/pkg/models"
)

// CompletionNotifier is the fire-and-forget notification hook the engine
// calls during finalization. Delivery guarantees are the implementation's
// concern; the engine logs and swallows notification failures.
type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, nc *models.NodeExecutionContext, result *models.NodeExecutionResult) error
	Close() error
}
