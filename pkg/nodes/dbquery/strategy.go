// Package dbquery implements the database query node strategy.
package dbquery

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	// Database drivers for the supported providers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/exeflow/exeflow/pkg/models"
	"github.com/exeflow/exeflow/pkg/resilience"
)

const (
	defaultTimeoutSeconds = 30
	maxTimeout            = 30 * time.Minute
	maxRetryLimit         = 10
)

// driverNames maps the provider discriminator to the registered sql driver.
var driverNames = map[string]string{
	"postgresql": "postgres",
	"sqlserver":  "sqlserver",
	"mysql":      "mysql",
	"sqlite":     "sqlite3",
}

// dangerousOperations are rejected wherever they appear in the query text.
// This is a coarse substring guard over whole keyword phrases, not a SQL
// parser: a quoted literal containing "DROP TABLE" is also rejected, and an
// obfuscated statement may slip through. Known-weak heuristic, kept as-is.
var dangerousOperations = []string{
	"DROP TABLE",
	"DROP DATABASE",
	"TRUNCATE",
	"DELETE FROM",
	"ALTER TABLE",
}

// Config is the database query node configuration.
type Config struct {
	Provider         string  `json:"provider"`
	ConnectionString string  `json:"connection_string"`
	Query            string  `json:"query"`
	Parameters       []any   `json:"parameters,omitempty"`
	Timeout          float64 `json:"timeout"`
	MaxRetries       int     `json:"max_retries"`
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// Strategy executes one parameterized query per invocation. Retries run
// inside a single breaker-guarded call; the breaker is keyed by provider.
type Strategy struct {
	config   Config
	breakers *resilience.BreakerGroup
	retry    *resilience.RetryPolicy
	db       *sql.DB
}

func parseConfig(config map[string]any) (Config, error) {
	cfg := Config{Timeout: defaultTimeoutSeconds}

	raw, err := json.Marshal(config)
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds
	}

	return cfg, nil
}

func (s *Strategy) Type() string {
	return NodeType
}

// ValidateInputs applies the configuration rules before a connection is
// opened, including the dangerous-operation guard.
func (s *Strategy) ValidateInputs(_ context.Context, _ *models.NodeExecutionContext) models.ValidationResult {
	result := models.ValidResult()
	cfg := s.config

	if strings.TrimSpace(cfg.ConnectionString) == "" {
		result.AddError("connection_string is required")
	}

	if strings.TrimSpace(cfg.Query) == "" {
		result.AddError("query is required")
	} else {
		upperQuery := strings.ToUpper(cfg.Query)
		for _, op := range dangerousOperations {
			if strings.Contains(upperQuery, op) {
				result.AddError(fmt.Sprintf("query contains a dangerous operation: %s", op))
			}
		}
	}

	if _, ok := driverNames[cfg.Provider]; !ok {
		result.AddError(fmt.Sprintf("provider %q is not supported (postgresql, sqlserver, mysql, sqlite)", cfg.Provider))
	}

	if cfg.timeout() <= 0 || cfg.timeout() > maxTimeout {
		result.AddError(fmt.Sprintf("timeout must be within (0, %s], got %s", maxTimeout, cfg.timeout()))
	}

	if cfg.MaxRetries < 0 || cfg.MaxRetries > maxRetryLimit {
		result.AddError(fmt.Sprintf("max_retries must be within [0, %d], got %d", maxRetryLimit, cfg.MaxRetries))
	}

	return result
}

// SetupExecutionContext opens the connection pool and registers its closure
// on the invocation context. sql.Open does not dial; connection failures
// surface during Execute, where the retry policy applies.
func (s *Strategy) SetupExecutionContext(_ context.Context, nc *models.NodeExecutionContext) error {
	db, err := sql.Open(driverNames[s.config.Provider], s.config.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db
	nc.AddResource(models.ResourceFunc(db.Close))

	return nil
}

// Execute runs the query and maps rows to the output payload.
func (s *Strategy) Execute(ctx context.Context, _ *models.NodeExecutionContext) (map[string]any, error) {
	breaker := s.breakers.Get(s.config.Provider)

	var output map[string]any

	err := breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retry.Do(ctx, func(ctx context.Context) error {
			result, queryErr := s.runQuery(ctx)
			if queryErr != nil {
				return queryErr
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

func (s *Strategy) runQuery(ctx context.Context) (map[string]any, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.config.timeout())
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, s.config.Query, s.config.Parameters...)
	if err != nil {
		return nil, classifyError(ctx, err)
	}

	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	mapped := make([]map[string]any, 0)

	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))

		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}

		mapped = append(mapped, row)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError(ctx, err)
	}

	return map[string]any{
		"rows":      mapped,
		"row_count": len(mapped),
	}, nil
}

// classifyError separates failures the retry policy may redo (connection
// loss, deadlocks, statement timeouts) from ones it must not (syntax errors,
// constraint violations).
func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return resilience.MarkTransient(fmt.Errorf("query failed: %w", err))
	}

	if strings.Contains(strings.ToLower(err.Error()), "deadlock") {
		return resilience.MarkTransient(fmt.Errorf("query failed: %w", err))
	}

	return fmt.Errorf("query failed: %w", err)
}

func normalizeValue(value any) any {
	if raw, ok := value.([]byte); ok {
		return string(raw)
	}

	return value
}

// TransformOutput passes the row payload through unchanged.
func (s *Strategy) TransformOutput(_ context.Context, _ *models.NodeExecutionContext, output map[string]any) (map[string]any, error) {
	return output, nil
}

func (s *Strategy) ValidateOutput(_ context.Context, _ *models.NodeExecutionContext, output map[string]any) models.ValidationResult {
	result := models.ValidResult()
	if output == nil {
		result.AddError("query produced no output")
	}

	return result
}

func (s *Strategy) CleanupResources(_ context.Context, _ *models.NodeExecutionContext) error {
	return nil
}
