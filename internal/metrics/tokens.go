package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TokenMetrics records token lifecycle events. Operation is one of issue,
// refresh, revoke or validate; reason carries the error code on failure.
type TokenMetrics interface {
	RecordOperation(ctx context.Context, operation, grant, status, reason string)
	RecordDuration(ctx context.Context, operation string, d time.Duration, status string)
}

type tokenMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
}

// NewTokenMetrics registers the counters on meterProvider under namespace.
func NewTokenMetrics(meterProvider metric.MeterProvider, namespace string) (TokenMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_token_operations_total", namespace),
		metric.WithDescription("Token issue, refresh, revoke and validate operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_token_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of token operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &tokenMetrics{operations: operations, durations: durations}, nil
}

func (m *tokenMetrics) RecordOperation(ctx context.Context, operation, grant, status, reason string) {
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("grant_type", grant),
		attribute.String("status", status),
		attribute.String("reason", reason),
	))
}

func (m *tokenMetrics) RecordDuration(ctx context.Context, operation string, d time.Duration, status string) {
	m.durations.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

// NoOp discards everything; used when metrics are disabled and in tests.
type NoOp struct{}

func (NoOp) RecordOperation(context.Context, string, string, string, string) {}
func (NoOp) RecordDuration(context.Context, string, time.Duration, string)   {}
