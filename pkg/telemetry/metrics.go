package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce         sync.Once
	metricsInitErr      error
	simulationCounter   metric.Int64Counter
	simulationHistogram metric.Float64Histogram
)

// Outcome labels a simulation run as succeeded or failed.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// SimulationMetrics captures the fields recorded for one simulation run.
type SimulationMetrics struct {
	Reform   string
	Endpoint string
	Outcome  Outcome
	Duration time.Duration
}

// RecordSimulation emits the run counter and latency histogram describing a
// reform calculation.
func RecordSimulation(ctx context.Context, m SimulationMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("reform.id", m.Reform),
		attribute.String("endpoint", m.Endpoint),
		attribute.String("outcome", string(m.Outcome)),
	}

	simulationCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if m.Duration > 0 {
		simulationHistogram.Record(ctx, float64(m.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("scotbudget.simulation")

		simulationCounter, metricsInitErr = meter.Int64Counter(
			"scotbudget.simulation.runs_total",
			metric.WithDescription("Simulation runs partitioned by reform and outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		simulationHistogram, metricsInitErr = meter.Float64Histogram(
			"scotbudget.simulation.duration_ms",
			metric.WithDescription("Observed simulation run latency"),
			metric.WithUnit("ms"),
		)
	})

	return metricsInitErr
}
