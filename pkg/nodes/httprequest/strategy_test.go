package httprequest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/exeflow/exeflow/pkg/models"
)

func newStrategy(t *testing.T, config map[string]any) *Strategy {
	t.Helper()

	strategy, err := NewFactory().Create(context.Background(), config)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	return strategy.(*Strategy)
}

func testNC() *models.NodeExecutionContext {
	return models.NewNodeExecutionContext("node-1", NodeType, "wf-1", "exec-1", nil, nil)
}

func TestValidateInputs(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr string
	}{
		{
			name:   "valid GET",
			config: map[string]any{"url": "https://example.com/api"},
		},
		{
			name:    "missing url",
			config:  map[string]any{},
			wantErr: "url is required",
		},
		{
			name:    "relative url",
			config:  map[string]any{"url": "/api/things"},
			wantErr: "absolute URL",
		},
		{
			name:    "unsupported method",
			config:  map[string]any{"url": "https://example.com", "method": "FETCH"},
			wantErr: "not a supported HTTP method",
		},
		{
			name:    "timeout out of range",
			config:  map[string]any{"url": "https://example.com", "timeout": 3600.0},
			wantErr: "timeout must be within",
		},
		{
			name:    "body without content type",
			config:  map[string]any{"url": "https://example.com", "method": "POST", "body": `{"a":1}`},
			wantErr: "content_type is required",
		},
		{
			name: "body with content type header",
			config: map[string]any{
				"url": "https://example.com", "method": "POST", "body": `{"a":1}`,
				"headers": map[string]any{"Content-Type": "application/json"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := newStrategy(t, tt.config)
			result := strategy.ValidateInputs(context.Background(), testNC())

			if tt.wantErr == "" {
				if !result.Valid {
					t.Fatalf("expected valid, got errors: %v", result.Errors)
				}

				return
			}

			if result.Valid {
				t.Fatalf("expected invalid result")
			}

			if !strings.Contains(result.ErrorMessage(), tt.wantErr) {
				t.Errorf("errors %v do not mention %q", result.Errors, tt.wantErr)
			}
		})
	}
}

func TestValidateInputs_BodyOnGetWarns(t *testing.T) {
	strategy := newStrategy(t, map[string]any{
		"url": "https://example.com", "body": "x", "content_type": "text/plain",
	})

	result := strategy.ValidateInputs(context.Background(), testNC())
	if !result.Valid {
		t.Fatalf("expected valid, got errors: %v", result.Errors)
	}

	if len(result.Warnings) == 0 {
		t.Errorf("expected a warning for a GET request carrying a body")
	}
}

func TestExecute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"success"}`))
	}))
	defer server.Close()

	strategy := newStrategy(t, map[string]any{
		"url":          server.URL,
		"method":       "POST",
		"body":         `{"hello":"world"}`,
		"content_type": "application/json",
	})

	nc := testNC()
	if err := strategy.SetupExecutionContext(context.Background(), nc); err != nil {
		t.Fatalf("SetupExecutionContext() error = %v", err)
	}

	if nc.ResourceCount() != 1 {
		t.Errorf("ResourceCount() = %d, want 1", nc.ResourceCount())
	}

	output, err := strategy.Execute(context.Background(), nc)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if output["status_code"] != http.StatusOK {
		t.Errorf("status_code = %v, want %d", output["status_code"], http.StatusOK)
	}

	body, _ := output["body"].(string)
	if !strings.Contains(body, "success") {
		t.Errorf("body = %q, want it to contain success", body)
	}

	if _, ok := output["json"].(map[string]any); !ok {
		t.Errorf("expected parsed json in output, got %T", output["json"])
	}

	if validation := strategy.ValidateOutput(context.Background(), nc, output); !validation.Valid {
		t.Errorf("ValidateOutput() errors = %v", validation.Errors)
	}
}

func TestExecute_ServerErrorRetriesUntilExhaustion(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	strategy := newStrategy(t, map[string]any{"url": server.URL, "max_retries": 2})
	strategy.retry.InitialInterval = time.Millisecond
	strategy.retry.MaxInterval = time.Millisecond

	_, err := strategy.Execute(context.Background(), testNC())
	if err == nil {
		t.Fatal("Execute() error = nil, want HTTP 500 failure")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Execute() error = %v, want *HTTPError with status 500", err)
	}

	if got := requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestExecute_ClientErrorDoesNotRetry(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		http.Error(w, "no such thing", http.StatusNotFound)
	}))
	defer server.Close()

	strategy := newStrategy(t, map[string]any{"url": server.URL, "max_retries": 5})

	_, err := strategy.Execute(context.Background(), testNC())

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Execute() error = %v, want *HTTPError with status 404", err)
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	strategy := newStrategy(t, map[string]any{"url": server.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := strategy.Execute(ctx, testNC())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(map[string]any{"url": "https://example.com"})
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}

	if cfg.Method != http.MethodGet {
		t.Errorf("Method = %q, want GET", cfg.Method)
	}

	if cfg.Timeout != defaultTimeoutSeconds {
		t.Errorf("Timeout = %v, want %d", cfg.Timeout, defaultTimeoutSeconds)
	}

	if cfg.MaxRetries <= 0 {
		t.Errorf("MaxRetries = %d, want a positive default", cfg.MaxRetries)
	}
}

func TestFactory_Metadata(t *testing.T) {
	factory := NewFactory()

	if factory.ID() != NodeType {
		t.Errorf("ID() = %q, want %q", factory.ID(), NodeType)
	}

	schema := factory.Schema()
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}
}
