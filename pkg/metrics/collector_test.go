package metrics

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/exeflow/exeflow/pkg/models"
)

func TestNewOTelCollector(t *testing.T) {
	collector, err := NewOTelCollector(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	collector.RecordNodeExecution("httprequest", models.StatusCompleted, 120*time.Millisecond)
	collector.RecordPhaseDuration("httprequest", PhaseExecute, 80*time.Millisecond)
	collector.RecordError("httprequest", CategoryExecution)
}

func TestSlogCollector(t *testing.T) {
	collector := NewSlogCollector(slog.Default())

	collector.RecordNodeExecution("dbquery", models.StatusFailed, time.Second)
	collector.RecordPhaseDuration("dbquery", PhaseFinalize, time.Millisecond)
	collector.RecordError("dbquery", CategoryFinalization)
}
