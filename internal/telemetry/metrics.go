// Package telemetry carries decision events and metrics off the verification path.
package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the verification instruments.
type Metrics struct {
	decisions metric.Int64Counter
	latency   metric.Float64Histogram
}

// NewMetrics creates the verification instruments on meter. meter may be nil;
// then a no-op Metrics is returned.
func NewMetrics(meter metric.Meter) *Metrics {
	if meter == nil {
		return &Metrics{}
	}
	decisions, err := meter.Int64Counter("access.decisions",
		metric.WithDescription("Verification decisions by outcome and reason code"))
	if err != nil {
		log.Printf("telemetry: decisions counter: %v", err)
	}
	latency, err := meter.Float64Histogram("access.decision.duration",
		metric.WithDescription("Verification pipeline duration"),
		metric.WithUnit("ms"))
	if err != nil {
		log.Printf("telemetry: latency histogram: %v", err)
	}
	return &Metrics{decisions: decisions, latency: latency}
}

// RecordDecision counts one decision with its outcome and reason code.
func (m *Metrics) RecordDecision(ctx context.Context, granted, waiting bool, reasonCode string, durationMillis float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Bool("granted", granted),
		attribute.Bool("waiting", waiting),
		attribute.String("reason_code", reasonCode),
	)
	if m.decisions != nil {
		m.decisions.Add(ctx, 1, attrs)
	}
	if m.latency != nil {
		m.latency.Record(ctx, durationMillis, attrs)
	}
}
