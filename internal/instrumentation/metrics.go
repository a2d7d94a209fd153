package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the export pipeline's instruments. The zero value is a
// valid no-op recorder, so callers never need nil checks.
type Metrics struct {
	messagesTotal metric.Int64Counter
	runDuration   metric.Float64Histogram
	runsTotal     metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	messagesTotal, err := meter.Int64Counter(
		"gmail2md.messages",
		metric.WithDescription("Messages processed, by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating messages counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram(
		"gmail2md.run.duration",
		metric.WithDescription("Export run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run duration histogram: %w", err)
	}

	runsTotal, err := meter.Int64Counter(
		"gmail2md.runs",
		metric.WithDescription("Export runs, by result"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	return &Metrics{
		messagesTotal: messagesTotal,
		runDuration:   runDuration,
		runsTotal:     runsTotal,
	}, nil
}

// RecordMessage counts one processed message with its outcome
// (written, skipped, converted, failed).
func (m *Metrics) RecordMessage(ctx context.Context, outcome string) {
	if m == nil || m.messagesTotal == nil {
		return
	}
	m.messagesTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordRun records a finished export run.
func (m *Metrics) RecordRun(ctx context.Context, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	if m.runDuration != nil {
		m.runDuration.Record(ctx, d.Seconds(), attrs)
	}
	if m.runsTotal != nil {
		m.runsTotal.Add(ctx, 1, attrs)
	}
}
