package protocol

import "context"

// StrategyFactory creates strategy instances and provides metadata about the
// node type, so callers can introspect supported types and validate
// configuration before creating a strategy.
type StrategyFactory interface {
	// Create builds a strategy bound to the given configuration.
	Create(ctx context.Context, config map[string]any) (NodeStrategy, error)

	// ID returns the unique node type identifier for this factory.
	ID() string

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what this node type does.
	Description() string

	// Schema returns the JSON schema for configuring this node type.
	Schema() map[string]any
}
