package httprequest

import (
	"context"
	"time"

	"github.com/exeflow/exeflow/pkg/protocol"
	"github.com/exeflow/exeflow/pkg/resilience"
)

// NodeType is the registry discriminator for HTTP request nodes.
const NodeType = "httprequest"

// Factory creates HTTP request strategies. It owns the per-host breaker group
// so breaker state survives across invocations.
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

// Create builds a strategy bound to the given configuration. Configuration
// rule violations are reported by ValidateInputs during preprocessing, not
// here; Create only rejects structurally malformed config.
func (f *Factory) Create(_ context.Context, config map[string]any) (protocol.NodeStrategy, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return nil, err
	}

	return &Strategy{
		config:   cfg,
		breakers: f.breakers,
		retry: &resilience.RetryPolicy{
			MaxAttempts:     cfg.MaxRetries,
			InitialInterval: 250 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2.0,
		},
	}, nil
}

func (f *Factory) ID() string {
	return NodeType
}

func (f *Factory) Name() string {
	return "HTTP Request"
}

func (f *Factory) Description() string {
	return "Performs an HTTP request with retry and circuit breaker protection"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Absolute URL to request",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "HTTP headers sent with the request",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body",
			},
			"content_type": map[string]any{
				"type":        "string",
				"description": "Content type of the request body, required when a body is provided",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds",
				"default":     30,
				"minimum":     1,
				"maximum":     600,
			},
			"max_retries": map[string]any{
				"type":        "number",
				"description": "Maximum attempts for transient failures",
				"default":     3,
				"minimum":     1,
				"maximum":     10,
			},
		},
		"required": []string{"url"},
	}
}
