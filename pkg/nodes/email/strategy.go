// Package email implements the email notification node strategy.
package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wneessen/go-mail"

	"github.com/exeflow/exeflow/pkg/models"
	"github.com/exeflow/exeflow/pkg/resilience"
)

const (
	defaultTimeoutSeconds = 30
	maxTimeout            = 5 * time.Minute
	maxPort               = 65535
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the email notification node configuration.
type Config struct {
	SMTPServer   string   `json:"smtp_server"`
	Port         int      `json:"port"`
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	FromAddress  string   `json:"from_address"`
	ToAddresses  []string `json:"to_addresses"`
	CcAddresses  []string `json:"cc_addresses,omitempty"`
	BccAddresses []string `json:"bcc_addresses,omitempty"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body,omitempty"`
	TemplateID   string   `json:"template_id,omitempty"`
	Timeout      float64  `json:"timeout"`
	MaxRetries   int      `json:"max_retries"`
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// Strategy sends one message per invocation. Retries run inside a single
// breaker-guarded call; the breaker is keyed by SMTP server.
type Strategy struct {
	config   Config
	breakers *resilience.BreakerGroup
	retry    *resilience.RetryPolicy
	client   *mail.Client
}

func (s *Strategy) Type() string {
	return NodeType
}

// ValidateInputs applies the configuration rules before any SMTP connection
// is attempted.
func (s *Strategy) ValidateInputs(_ context.Context, _ *models.NodeExecutionContext) models.ValidationResult {
	result := models.ValidResult()
	cfg := s.config

	if strings.TrimSpace(cfg.SMTPServer) == "" {
		result.AddError("smtp_server is required")
	}

	if cfg.Port <= 0 || cfg.Port > maxPort {
		result.AddError(fmt.Sprintf("port must be within (0, %d], got %d", maxPort, cfg.Port))
	}

	if strings.TrimSpace(cfg.Username) == "" {
		result.AddError("username is required")
	}

	if strings.TrimSpace(cfg.Password) == "" {
		result.AddError("password is required")
	}

	if err := validate.Var(cfg.FromAddress, "required,email"); err != nil {
		result.AddError(fmt.Sprintf("from_address %q is not a valid email address", cfg.FromAddress))
	}

	if len(cfg.ToAddresses) == 0 {
		result.AddError("At least one recipient is required")
	}

	checkAddresses(&result, "to_addresses", cfg.ToAddresses)
	checkAddresses(&result, "cc_addresses", cfg.CcAddresses)
	checkAddresses(&result, "bcc_addresses", cfg.BccAddresses)

	if strings.TrimSpace(cfg.Subject) == "" {
		result.AddError("subject is required")
	}

	if strings.TrimSpace(cfg.Body) == "" && strings.TrimSpace(cfg.TemplateID) == "" {
		result.AddError("body is required unless a template_id is supplied")
	}

	if cfg.timeout() <= 0 || cfg.timeout() > maxTimeout {
		result.AddError(fmt.Sprintf("timeout must be within (0, %s], got %s", maxTimeout, cfg.timeout()))
	}

	return result
}

func checkAddresses(result *models.ValidationResult, field string, addresses []string) {
	for _, address := range addresses {
		if err := validate.Var(address, "required,email"); err != nil {
			result.AddError(fmt.Sprintf("%s contains an invalid email address: %q", field, address))
		}
	}
}

// SetupExecutionContext builds the SMTP client and registers its teardown on
// the invocation context.
func (s *Strategy) SetupExecutionContext(_ context.Context, nc *models.NodeExecutionContext) error {
	client, err := mail.NewClient(s.config.SMTPServer,
		mail.WithPort(s.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.config.Username),
		mail.WithPassword(s.config.Password),
		mail.WithTimeout(s.config.timeout()),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	s.client = client
	nc.AddResource(models.ResourceFunc(func() error {
		// DialAndSend closes the connection on its own; closing an already
		// closed client is not an error worth surfacing.
		_ = client.Close()

		return nil
	}))

	return nil
}

// Execute builds and sends the message. Connection failures and timeouts are
// transient; authentication failures and server-rejected recipients are not.
func (s *Strategy) Execute(ctx context.Context, nc *models.NodeExecutionContext) (map[string]any, error) {
	if s.client == nil {
		if err := s.SetupExecutionContext(ctx, nc); err != nil {
			return nil, err
		}
	}

	msg, err := s.buildMessage()
	if err != nil {
		return nil, err
	}

	breaker := s.breakers.Get(s.config.SMTPServer)

	err = breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, func(ctx context.Context) error {
			if sendErr := s.client.DialAndSendWithContext(ctx, msg); sendErr != nil {
				return classifyError(ctx, sendErr)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	recipients := len(s.config.ToAddresses) + len(s.config.CcAddresses) + len(s.config.BccAddresses)

	return map[string]any{
		"smtp_server": s.config.SMTPServer,
		"subject":     s.config.Subject,
		"recipients":  recipients,
	}, nil
}

func (s *Strategy) buildMessage() (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(s.config.FromAddress); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if err := msg.To(s.config.ToAddresses...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	if len(s.config.CcAddresses) > 0 {
		if err := msg.Cc(s.config.CcAddresses...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}

	if len(s.config.BccAddresses) > 0 {
		if err := msg.Bcc(s.config.BccAddresses...); err != nil {
			return nil, fmt.Errorf("invalid bcc address: %w", err)
		}
	}

	msg.Subject(s.config.Subject)

	if s.config.TemplateID != "" {
		// Template expansion happens at the provider; pass the id through.
		msg.SetGenHeader("X-Template-ID", s.config.TemplateID)
	}

	msg.SetBodyString(mail.TypeTextPlain, s.config.Body)

	return msg, nil
}

// classifyError separates connection-level failures (retryable) from
// authentication and recipient rejections (not retryable).
func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "auth") ||
		strings.Contains(message, "535") ||
		strings.Contains(message, "550") {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.MarkTransient(fmt.Errorf("smtp send failed: %w", err))
	}

	if strings.Contains(message, "connection") || strings.Contains(message, "dial") {
		return resilience.MarkTransient(fmt.Errorf("smtp send failed: %w", err))
	}

	return fmt.Errorf("smtp send failed: %w", err)
}

// TransformOutput passes the delivery summary through unchanged.
func (s *Strategy) TransformOutput(_ context.Context, _ *models.NodeExecutionContext, output map[string]any) (map[string]any, error) {
	return output, nil
}

func (s *Strategy) ValidateOutput(_ context.Context, _ *models.NodeExecutionContext, output map[string]any) models.ValidationResult {
	result := models.ValidResult()
	if output == nil {
		result.AddError("email delivery produced no output")
	}

	return result
}

func (s *Strategy) CleanupResources(_ context.Context, _ *models.NodeExecutionContext) error {
	return nil
}
