package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/exeflow/exeflow/pkg/protocol"
	"github.com/exeflow/exeflow/pkg/resilience"
)

// NodeType is the registry discriminator for email notification nodes.
const NodeType = "email"

// Factory creates email strategies and owns the per-server breaker group.
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
	cfg := Config{Timeout: defaultTimeoutSeconds}

	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = resilience.DefaultMaxAttempts
	}

	return &Strategy{
		config:   cfg,
		breakers: f.breakers,
		retry: &resilience.RetryPolicy{
			MaxAttempts:     cfg.MaxRetries,
			InitialInterval: time.Second,
			MaxInterval:     15 * time.Second,
			Multiplier:      2.0,
		},
	}, nil
}

func (f *Factory) ID() string {
	return NodeType
}

func (f *Factory) Name() string {
	return "Email Notification"
}

func (f *Factory) Description() string {
	return "Sends an email notification through an SMTP server"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"smtp_server": map[string]any{
				"type":        "string",
				"description": "SMTP server hostname",
			},
			"port": map[string]any{
				"type":        "number",
				"description": "SMTP server port",
				"minimum":     1,
				"maximum":     65535,
			},
			"username": map[string]any{
				"type":        "string",
				"description": "SMTP username",
			},
			"password": map[string]any{
				"type":        "string",
				"description": "SMTP password",
			},
			"from_address": map[string]any{
				"type":        "string",
				"description": "Sender address",
			},
			"to_addresses": map[string]any{
				"type":        "array",
				"description": "Recipient addresses, at least one",
				"items":       map[string]any{"type": "string"},
			},
			"cc_addresses": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"bcc_addresses": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Message subject",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Message body, required unless template_id is set",
			},
			"template_id": map[string]any{
				"type":        "string",
				"description": "Provider-side template identifier",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Send timeout in seconds",
				"default":     30,
				"minimum":     1,
				"maximum":     300,
			},
			"max_retries": map[string]any{
				"type":        "number",
				"description": "Maximum attempts for transient failures",
				"default":     3,
				"minimum":     1,
				"maximum":     10,
			},
		},
		"required": []string{"smtp_server", "port", "username", "password", "from_address", "to_addresses", "subject"},
	}
}
