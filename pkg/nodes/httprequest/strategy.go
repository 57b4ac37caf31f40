// Package httprequest implements the HTTP request node strategy.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/exeflow/exeflow/pkg/models"
	"github.com/exeflow/exeflow/pkg/resilience"
)

const (
	defaultTimeoutSeconds = 30
	maxTimeout            = 10 * time.Minute
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodDelete:  {},
	http.MethodPatch:   {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

// Config is the HTTP request node configuration.
type Config struct {
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        string            `json:"body,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	Timeout     float64           `json:"timeout"`
	MaxRetries  int               `json:"max_retries"`
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// HTTPError carries the status code of a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Strategy executes one HTTP request per invocation. Retries run inside a
// single breaker-guarded call, so the breaker for the target host sees one
// logical attempt per retry cycle.
type Strategy struct {
	config   Config
	breakers *resilience.BreakerGroup
	retry    *resilience.RetryPolicy
	client   *http.Client
}

func parseConfig(config map[string]any) (Config, error) {
	cfg := Config{
		Method:  http.MethodGet,
		Timeout: defaultTimeoutSeconds,
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = resilience.DefaultMaxAttempts
	}

	return cfg, nil
}

func (s *Strategy) Type() string {
	return NodeType
}

// ValidateInputs applies the configuration rules before any network call:
// fail fast, zero side effects on invalid configuration.
func (s *Strategy) ValidateInputs(_ context.Context, _ *models.NodeExecutionContext) models.ValidationResult {
	result := models.ValidResult()
	cfg := s.config

	switch {
	case strings.TrimSpace(cfg.URL) == "":
		result.AddError("url is required")
	default:
		parsed, err := url.Parse(cfg.URL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			result.AddError(fmt.Sprintf("url %q must be a well-formed absolute URL", cfg.URL))
		}
	}

	if _, ok := allowedMethods[cfg.Method]; !ok {
		result.AddError(fmt.Sprintf("method %q is not a supported HTTP method", cfg.Method))
	}

	if cfg.timeout() <= 0 || cfg.timeout() > maxTimeout {
		result.AddError(fmt.Sprintf("timeout must be within (0, %s], got %s", maxTimeout, cfg.timeout()))
	}

	if cfg.Body != "" && cfg.ContentType == "" && cfg.Headers["Content-Type"] == "" {
		result.AddError("content_type is required when a request body is provided")
	}

	for key := range cfg.Headers {
		if strings.TrimSpace(key) == "" {
			result.AddError("header keys must not be empty")

			break
		}
	}

	if cfg.Body != "" && (cfg.Method == http.MethodGet || cfg.Method == http.MethodHead) {
		result.AddWarning(fmt.Sprintf("request body is unusual for %s requests", cfg.Method))
	}

	return result
}

// SetupExecutionContext builds the request client and registers its teardown
// on the invocation context.
func (s *Strategy) SetupExecutionContext(_ context.Context, nc *models.NodeExecutionContext) error {
	s.client = &http.Client{Timeout: s.config.timeout()}

	nc.AddResource(models.ResourceFunc(func() error {
		s.client.CloseIdleConnections()

		return nil
	}))

	return nil
}

// Execute issues the request. Timeouts, 5xx responses and connection failures
// are transient and retried; 4xx responses fail immediately.
func (s *Strategy) Execute(ctx context.Context, _ *models.NodeExecutionContext) (map[string]any, error) {
	target, err := url.Parse(s.config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	breaker := s.breakers.Get(target.Host)

	var output map[string]any

	err = breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, func(ctx context.Context) error {
			result, reqErr := s.performRequest(ctx)
			if reqErr != nil {
				return reqErr
			}

			output = result

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

func (s *Strategy) performRequest(ctx context.Context) (map[string]any, error) {
	if s.client == nil {
		s.client = &http.Client{Timeout: s.config.timeout()}
	}

	var body io.Reader
	if s.config.Body != "" {
		body = strings.NewReader(s.config.Body)
	}

	req, err := http.NewRequestWithContext(ctx, s.config.Method, s.config.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range s.config.Headers {
		req.Header.Set(key, value)
	}

	if s.config.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", s.config.ContentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Connection failures and client-side timeouts are retryable.
		return nil, resilience.MarkTransient(fmt.Errorf("http request failed: %w", err))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.MarkTransient(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, resilience.MarkTransient(&HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)})
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"headers":     flattenHeaders(resp.Header),
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	return result, nil
}

// TransformOutput passes the response payload through unchanged.
func (s *Strategy) TransformOutput(_ context.Context, _ *models.NodeExecutionContext, output map[string]any) (map[string]any, error) {
	return output, nil
}

func (s *Strategy) ValidateOutput(_ context.Context, _ *models.NodeExecutionContext, output map[string]any) models.ValidationResult {
	result := models.ValidResult()
	if output == nil {
		result.AddError("http response produced no output")
	}

	return result
}

func (s *Strategy) CleanupResources(_ context.Context, _ *models.NodeExecutionContext) error {
	return nil
}

func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key := range header {
		flat[key] = header.Get(key)
	}

	return flat
}
