package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records pipeline stage timings through an OpenTelemetry
// meter whose reader exports into a Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	stageCounter  otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram
}

func New(serviceName string, reg prometheus.Registerer) (*Observability, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	stageCounter, err := meter.Int64Counter(
		"pipeline.stage.runs",
		otelmetric.WithDescription("Number of pipeline stages executed"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline.stage.duration",
		otelmetric.WithDescription("Pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider: provider,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
	}, nil
}

// TrackStage starts timing a stage; call the returned func with the stage error.
func (o *Observability) TrackStage(ctx context.Context, stage string) func(err error) {
	start := time.Now()
	return func(err error) {
		o.RecordStage(ctx, stage, time.Since(start), err)
	}
}

func (o *Observability) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	)
	o.stageCounter.Add(ctx, 1, attrs)
	o.stageDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
