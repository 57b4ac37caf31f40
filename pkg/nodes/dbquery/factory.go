package dbquery

import (
	"context"
	"time"

	"github.com/exeflow/exeflow/pkg/protocol"
	"github.com/exeflow/exeflow/pkg/resilience"
)

// NodeType is the registry discriminator for database query nodes.
const NodeType = "dbquery"

// Factory creates database query strategies and owns the per-provider
// breaker group.
type Factory struct {
	breakers *resilience.BreakerGroup
}

func NewFactory() protocol.StrategyFactory {
	return &Factory{
		breakers: resilience.NewBreakerGroup(
			resilience.DefaultFailureThreshold,
			resilience.DefaultFailureWindow,
			resilience.DefaultCooldown,
		),
	}
}

func (f *Factory) Create(_ context.Context, config map[string]any) (protocol.NodeStrategy, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}

	return &Strategy{
		config:   cfg,
		breakers: f.breakers,
		retry: &resilience.RetryPolicy{
			MaxAttempts:     cfg.MaxRetries + 1,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
			Multiplier:      2.0,
		},
	}, nil
}

func (f *Factory) ID() string {
	return NodeType
}

func (f *Factory) Name() string {
	return "Database Query"
}

func (f *Factory) Description() string {
	return "Executes a parameterized query against PostgreSQL, SQL Server, MySQL or SQLite"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"provider": map[string]any{
				"type":        "string",
				"description": "Database provider",
				"enum":        []string{"postgresql", "sqlserver", "mysql", "sqlite"},
			},
			"connection_string": map[string]any{
				"type":        "string",
				"description": "Provider-specific connection string",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Parameterized query text; destructive statements are rejected",
			},
			"parameters": map[string]any{
				"type":        "array",
				"description": "Positional query parameters",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Query timeout in seconds",
				"default":     30,
				"minimum":     1,
				"maximum":     1800,
			},
			"max_retries": map[string]any{
				"type":        "number",
				"description": "Retries after the initial attempt for transient failures",
				"default":     0,
				"minimum":     0,
				"maximum":     10,
			},
		},
		"required": []string{"provider", "connection_string", "query"},
	}
}
