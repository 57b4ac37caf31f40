package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/exeflow/exeflow/pkg/models"
)

// OTelCollector reports node execution metrics through an OpenTelemetry meter.
type OTelCollector struct {
	executions    metric.Int64Counter
	execDuration  metric.Float64Histogram
	phaseDuration metric.Float64Histogram
	errors        metric.Int64Counter
}

// NewOTelCollector creates the instruments on the given meter.
func NewOTelCollector(meter metric.Meter) (*OTelCollector, error) {
	executions, err := meter.Int64Counter("exeflow.node.executions",
		metric.WithDescription("Count of node executions by type and terminal status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create executions counter: %w", err)
	}

	execDuration, err := meter.Float64Histogram("exeflow.node.execution.duration",
		metric.WithDescription("Total duration of node executions"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create execution duration histogram: %w", err)
	}

	phaseDuration, err := meter.Float64Histogram("exeflow.node.phase.duration",
		metric.WithDescription("Duration of individual lifecycle phases"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create phase duration histogram: %w", err)
	}

	errors, err := meter.Int64Counter("exeflow.node.errors",
		metric.WithDescription("Count of categorized node execution errors"))
	if err != nil {
		return nil, fmt.Errorf("failed to create errors counter: %w", err)
	}

	return &OTelCollector{
		executions:    executions,
		execDuration:  execDuration,
		phaseDuration: phaseDuration,
		errors:        errors,
	}, nil
}

func (c *OTelCollector) RecordNodeExecution(nodeType string, status models.Status, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("node_type", nodeType),
		attribute.String("status", string(status)),
	)

	c.executions.Add(context.Background(), 1, attrs)
	c.execDuration.Record(context.Background(), duration.Seconds(), attrs)
}

func (c *OTelCollector) RecordPhaseDuration(nodeType, phase string, duration time.Duration) {
	c.phaseDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(
		attribute.String("node_type", nodeType),
		attribute.String("phase", phase),
	))
}

func (c *OTelCollector) RecordError(nodeType, category string) {
	c.errors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("node_type", nodeType),
		attribute.String("category", category),
	))
}
