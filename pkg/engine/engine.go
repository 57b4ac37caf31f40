// Package engine drives the four-phase node execution lifecycle:
// Preprocess, Execute, Postprocess, Finalize. Phase ordering, cancellation
// checks, panic barriers, phase timing and the cleanup guarantee live here;
// node-type specific behavior is supplied by a protocol.NodeStrategy.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/exeflow/exeflow/pkg/log"
	"github.com/exeflow/exeflow/pkg/metrics"
	"github.com/exeflow/exeflow/pkg/models"
	"github.com/exeflow/exeflow/pkg/notify"
	"github.com/exeflow/exeflow/pkg/otelhelper"
	"github.com/exeflow/exeflow/pkg/persistence"
	"github.com/exeflow/exeflow/pkg/protocol"
)

// Engine orchestrates single node invocations. It is safe for concurrent use:
// all per-invocation state lives in the NodeExecutionContext, which is owned
// by exactly one caller.
type Engine struct {
	logger    *slog.Logger
	collector metrics.Collector
	store     persistence.ExecutionStore
	notifier  notify.CompletionNotifier
	tracer    trace.Tracer
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithMetrics sets the metrics collector. Defaults to a no-op collector.
func WithMetrics(collector metrics.Collector) Option {
	return func(e *Engine) { e.collector = collector }
}

// WithStore sets the execution state store called during finalization.
func WithStore(store persistence.ExecutionStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithNotifier sets the completion event notifier called during finalization.
func WithNotifier(notifier notify.CompletionNotifier) Option {
	return func(e *Engine) { e.notifier = notifier }
}

// WithTracer enables a span per invocation.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

func New(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:    logger,
		collector: metrics.Noop{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes the full lifecycle for one invocation and returns the terminal
// result. Errors never escape: every phase boundary converts failures,
// cancellation and panics into a typed result, so a single node's fault
// cannot crash a caller running many nodes concurrently.
func (e *Engine) Run(ctx context.Context, strategy protocol.NodeStrategy, nc *models.NodeExecutionContext) *models.NodeExecutionResult {
	logger := e.executionLogger(nc)
	start := time.Now()

	var span trace.Span

	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "node.execute",
			attribute.String(otelhelper.NodeIDKey, nc.NodeID),
			attribute.String(otelhelper.NodeTypeKey, nc.NodeType),
			attribute.String(otelhelper.WorkflowIDKey, nc.WorkflowID),
			attribute.String(otelhelper.ExecutionIDKey, nc.ExecutionID),
		)
		defer span.End()
	}

	logger.Info("starting node execution")

	result := e.Preprocess(ctx, strategy, nc)

	if !result.Terminal() {
		result = e.Execute(ctx, strategy, nc)
	}

	result = e.Postprocess(ctx, strategy, nc, result)

	e.Finalize(ctx, strategy, nc, result)

	if span != nil {
		span.SetAttributes(attribute.String(otelhelper.StatusKey, string(result.Status)))

		if result.Err != nil {
			otelhelper.SetError(span, result.Err)
		}
	}

	e.collector.RecordNodeExecution(nc.NodeType, result.Status, time.Since(start))
	logger.Info("node execution finished", "status", string(result.Status))

	return result
}

// Preprocess validates inputs and acquires execution resources. Cancellation
// observed at entry returns Cancelled without side effects; invalid input
// fails the invocation before any external call can happen.
func (e *Engine) Preprocess(ctx context.Context, strategy protocol.NodeStrategy, nc *models.NodeExecutionContext) (result *models.NodeExecutionResult) {
	logger := e.executionLogger(nc)

	defer e.timePhase(nc.NodeType, metrics.PhasePreprocess)()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during preprocessing", "panic", r)
			e.collector.RecordError(nc.NodeType, metrics.CategoryPreprocessing)
			result = models.FailedResult(fmt.Sprintf("preprocessing panic: %v", r), nil)
		}
	}()

	if ctx.Err() != nil {
		return models.CancelledResult()
	}

	validation := strategy.ValidateInputs(ctx, nc)
	for _, warning := range validation.Warnings {
		logger.Warn("input validation warning", "warning", warning)
	}

	if !validation.Valid {
		logger.Warn("input validation failed", "errors", validation.Errors)

		return models.FailedResult(validation.ErrorMessage(), nil)
	}

	if err := strategy.SetupExecutionContext(ctx, nc); err != nil {
		logger.Error("failed to set up execution context", "error", err)
		e.collector.RecordError(nc.NodeType, metrics.CategoryPreprocessing)

		return models.FailedResult(fmt.Sprintf("preprocessing failed: %v", err), err)
	}

	return models.CompletedResult(nil)
}

// Execute runs the strategy's external operation. The strategy applies its
// own resilience wrapping; the engine classifies the outcome.
func (e *Engine) Execute(ctx context.Context, strategy protocol.NodeStrategy, nc *models.NodeExecutionContext) (result *models.NodeExecutionResult) {
	logger := e.executionLogger(nc)

	defer e.timePhase(nc.NodeType, metrics.PhaseExecute)()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during execution", "panic", r)
			e.collector.RecordError(nc.NodeType, metrics.CategoryExecution)
			result = models.FailedResult(fmt.Sprintf("execution panic: %v", r), nil)
		}
	}()

	if ctx.Err() != nil {
		return models.CancelledResult()
	}

	output, err := strategy.Execute(ctx, nc)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("execution cancelled")

			return models.CancelledResult()
		}

		logger.Error("execution failed", "error", err)
		e.collector.RecordError(nc.NodeType, metrics.CategoryExecution)

		return models.FailedResult(err.Error(), err)
	}

	return models.CompletedResult(output)
}

// Postprocess transforms and validates output. It short-circuits on a
// terminal execute result; output validation failure converts an otherwise
// successful execution into a failure.
func (e *Engine) Postprocess(ctx context.Context, strategy protocol.NodeStrategy, nc *models.NodeExecutionContext, execResult *models.NodeExecutionResult) (result *models.NodeExecutionResult) {
	logger := e.executionLogger(nc)

	defer e.timePhase(nc.NodeType, metrics.PhasePostprocess)()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during postprocessing", "panic", r)
			e.collector.RecordError(nc.NodeType, metrics.CategoryPostprocessing)
			result = models.FailedResult(fmt.Sprintf("postprocessing panic: %v", r), nil)
		}
	}()

	if execResult.Terminal() {
		return execResult
	}

	if ctx.Err() != nil {
		return models.CancelledResult()
	}

	output, err := strategy.TransformOutput(ctx, nc, execResult.OutputData)
	if err != nil {
		logger.Error("output transformation failed", "error", err)
		e.collector.RecordError(nc.NodeType, metrics.CategoryPostprocessing)

		return models.FailedResult(fmt.Sprintf("postprocessing failed: %v", err), err)
	}

	validation := strategy.ValidateOutput(ctx, nc, output)
	for _, warning := range validation.Warnings {
		logger.Warn("output validation warning", "warning", warning)
	}

	if !validation.Valid {
		logger.Warn("output validation failed", "errors", validation.Errors)

		return models.FailedResult(validation.ErrorMessage(), nil)
	}

	return models.CompletedResult(output)
}

// Finalize always runs, whatever the prior phases produced. It releases
// resources, persists the terminal result and publishes completion events.
// Finalization failures are logged and counted but never overwrite the
// already-determined terminal status and never reach the caller. Cleanup uses
// a cancellation-agnostic context: stopping the work must not also block
// releasing what the work already acquired.
func (e *Engine) Finalize(ctx context.Context, strategy protocol.NodeStrategy, nc *models.NodeExecutionContext, result *models.NodeExecutionResult) {
	logger := e.executionLogger(nc)
	cleanupCtx := context.WithoutCancel(ctx)

	defer e.timePhase(nc.NodeType, metrics.PhaseFinalize)()

	cleanupDone := false
	cleanup := func() {
		if err := strategy.CleanupResources(cleanupCtx, nc); err != nil {
			logger.Error("resource cleanup failed", "error", err)
			e.collector.RecordError(nc.NodeType, metrics.CategoryFinalization)
		}

		if err := nc.ReleaseResources(); err != nil {
			logger.Error("resource release failed", "error", err)
			e.collector.RecordError(nc.NodeType, metrics.CategoryFinalization)
		}

		cleanupDone = true
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during finalization", "panic", r)
			e.collector.RecordError(nc.NodeType, metrics.CategoryFinalization)

			if !cleanupDone {
				// Second cleanup attempt; ReleaseResources is idempotent so
				// anything already released stays released exactly once.
				func() {
					defer func() {
						if r2 := recover(); r2 != nil {
							logger.Error("panic during cleanup retry", "panic", r2)
						}
					}()

					cleanup()
				}()
			}
		}
	}()

	cleanup()

	if e.store != nil {
		if err := e.store.SaveExecution(cleanupCtx, persistence.NewExecutionRecord(nc, result)); err != nil {
			logger.Error("failed to persist execution state", "error", err)
			e.collector.RecordError(nc.NodeType, metrics.CategoryFinalization)
		}
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyCompletion(cleanupCtx, nc, result); err != nil {
			logger.Error("failed to publish completion event", "error", err)
			e.collector.RecordError(nc.NodeType, metrics.CategoryFinalization)
		}
	}
}

func (e *Engine) executionLogger(nc *models.NodeExecutionContext) *slog.Logger {
	return log.WithExecution(e.logger, nc.NodeID, nc.NodeType, nc.ExecutionID)
}

func (e *Engine) timePhase(nodeType, phase string) func() {
	start := time.Now()

	return func() {
		e.collector.RecordPhaseDuration(nodeType, phase, time.Since(start))
	}
}
