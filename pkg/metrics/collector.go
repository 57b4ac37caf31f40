// Package metrics defines the collector interface the engine reports to, plus
// ready-made collectors for logs and OpenTelemetry.
package metrics

import (
	"log/slog"
	"time"

	"github.com/exeflow/exeflow/pkg/models"
)

// Error categories recorded by the engine at phase boundaries.
const (
	CategoryPreprocessing  = "PreprocessingError"
	CategoryExecution      = "ExecutionError"
	CategoryPostprocessing = "PostprocessingError"
	CategoryFinalization   = "FinalizationError"
)

// Lifecycle phase names used for duration metrics.
const (
	PhasePreprocess  = "preprocess"
	PhaseExecute     = "execute"
	PhasePostprocess = "postprocess"
	PhaseFinalize    = "finalize"
)

// Collector observes node executions. Implementations must be safe for
// concurrent use: one collector is shared by every in-flight invocation.
type Collector interface {
	// RecordNodeExecution records the terminal outcome and total duration of
	// one invocation.
	RecordNodeExecution(nodeType string, status models.Status, duration time.Duration)

	// RecordPhaseDuration records the duration of a single lifecycle phase.
	// The engine records exactly one sample per phase invocation, even when
	// the phase panics.
	RecordPhaseDuration(nodeType, phase string, duration time.Duration)

	// RecordError counts a categorized error for a node type.
	RecordError(nodeType, category string)
}

// Noop discards every observation.
type Noop struct{}

func (Noop) RecordNodeExecution(string, models.Status, time.Duration) {}
func (Noop) RecordPhaseDuration(string, string, time.Duration)       {}
func (Noop) RecordError(string, string)                              {}

// SlogCollector emits every observation as a debug log line. Useful for
// development and as the default sink when no meter is configured.
type SlogCollector struct {
	logger *slog.Logger
}

func NewSlogCollector(logger *slog.Logger) *SlogCollector {
	return &SlogCollector{logger: logger}
}

func (c *SlogCollector) RecordNodeExecution(nodeType string, status models.Status, duration time.Duration) {
	c.logger.Debug("node execution finished",
		"node_type", nodeType,
		"status", string(status),
		"duration", duration,
	)
}

func (c *SlogCollector) RecordPhaseDuration(nodeType, phase string, duration time.Duration) {
	c.logger.Debug("lifecycle phase finished",
		"node_type", nodeType,
		"phase", phase,
		"duration", duration,
	)
}

func (c *SlogCollector) RecordError(nodeType, category string) {
	c.logger.Debug("node execution error",
		"node_type", nodeType,
		"category", category,
	)
}
