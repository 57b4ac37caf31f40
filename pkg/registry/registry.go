// Package registry maps node type strings to strategy factories. The registry
// is populated once at process startup and is read-only afterwards, so
// concurrent lookups by many in-flight executions need no locking.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/exeflow/exeflow/pkg/protocol"
)

// ErrUnknownNodeType is returned by Create for unregistered node types.
var ErrUnknownNodeType = errors.New("node type not registered")

type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.StrategyFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.StrategyFactory),
	}
}

// Register adds a strategy factory. Call during startup only; the registry
// must not be mutated once executions are in flight.
func (r *Registry) Register(factory protocol.StrategyFactory) {
	r.factories[strings.ToLower(factory.ID())] = factory
	r.logger.Debug("registered node strategy", "node_type", factory.ID())
}

// GetFactory looks up a factory by node type, case-insensitively. A missing
// type is reported through the boolean, not an error: "unsupported node type"
// is a recoverable condition for callers, not a fault.
func (r *Registry) GetFactory(nodeType string) (protocol.StrategyFactory, bool) {
	factory, ok := r.factories[strings.ToLower(nodeType)]

	return factory, ok
}

// Supports reports whether a strategy is registered for the node type.
func (r *Registry) Supports(nodeType string) bool {
	_, ok := r.factories[strings.ToLower(nodeType)]

	return ok
}

// SupportedNodeTypes returns the sorted set of registered node types, for
// introspection surfaces such as a node palette.
func (r *Registry) SupportedNodeTypes() []string {
	types := make([]string, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// Create resolves the factory for nodeType and builds a strategy bound to the
// given configuration.
func (r *Registry) Create(ctx context.Context, nodeType string, config map[string]any) (protocol.NodeStrategy, error) {
	factory, ok := r.GetFactory(nodeType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}

	strategy, err := factory.Create(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q strategy: %w", nodeType, err)
	}

	return strategy, nil
}
