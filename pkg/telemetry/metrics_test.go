package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordSimulation(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
	})

	ResetMetricsForTest()

	RecordSimulation(ctx, SimulationMetrics{
		Reform:   "scp_baby_boost",
		Endpoint: "/calculate",
		Outcome:  OutcomeOK,
		Duration: 150 * time.Millisecond,
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	metrics := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			metrics[m.Name] = m
		}
	}

	runs, ok := metrics["scotbudget.simulation.runs_total"]
	if !ok {
		t.Fatalf("missing simulation runs metric")
	}
	runData, ok := runs.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type for runs metric")
	}
	if len(runData.DataPoints) != 1 {
		t.Fatalf("expected 1 datapoint, got %d", len(runData.DataPoints))
	}
	if runData.DataPoints[0].Value != 1 {
		t.Fatalf("expected run count 1, got %d", runData.DataPoints[0].Value)
	}
	if value, ok := runData.DataPoints[0].Attributes.Value(attribute.Key("reform.id")); !ok || value.AsString() != "scp_baby_boost" {
		t.Fatalf("expected reform.id attribute to be scp_baby_boost, got %v", value)
	}
	if value, ok := runData.DataPoints[0].Attributes.Value(attribute.Key("outcome")); !ok || value.AsString() != "ok" {
		t.Fatalf("expected outcome attribute ok, got %v", value)
	}

	hist, ok := metrics["scotbudget.simulation.duration_ms"]
	if !ok {
		t.Fatalf("missing simulation duration metric")
	}
	histData, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type for duration metric")
	}
	if histData.DataPoints[0].Count != 1 {
		t.Fatalf("expected histogram count 1, got %d", histData.DataPoints[0].Count)
	}
	if histData.DataPoints[0].Sum != 150 {
		t.Fatalf("expected histogram sum 150, got %v", histData.DataPoints[0].Sum)
	}
}

func TestRecordSimulationSkipsZeroDuration(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
	})

	ResetMetricsForTest()

	RecordSimulation(ctx, SimulationMetrics{
		Reform:   "combined",
		Endpoint: "/calculate",
		Outcome:  OutcomeError,
	})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "scotbudget.simulation.duration_ms" {
				continue
			}
			histData, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("unexpected data type for duration metric")
			}
			if len(histData.DataPoints) != 0 {
				t.Fatalf("expected no duration datapoints for zero duration, got %d", len(histData.DataPoints))
			}
		}
	}
}

func TestSetupProviderNoEndpoint(t *testing.T) {
	shutdown, err := SetupProvider(context.Background(), Config{ServiceName: "scotbudget-test"})
	if err != nil {
		t.Fatalf("setup provider without endpoint: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("expected no-op shutdown function")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
}
