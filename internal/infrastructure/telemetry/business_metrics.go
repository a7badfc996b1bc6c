package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a nil meter is passed to NewBusinessMetrics
var ErrMeterNil = errors.New("meter cannot be nil")

// BusinessMetrics tracks order lifecycle and stock health for dashboards:
// order creation, status transitions, stock side effects and low-stock alerts.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	ordersCreatedTotal     metric.Int64Counter
	transitionsTotal       metric.Int64Counter
	transitionsDenied      metric.Int64Counter
	stockEffectsTotal      metric.Int64Counter
	transitionRetriesTotal metric.Int64Counter
}

// NewBusinessMetrics creates a new BusinessMetrics instance
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error
	bm.ordersCreatedTotal, err = meter.Int64Counter(
		"tradelink_orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{orders}"),
	)
	if err != nil {
		return nil, err
	}

	bm.transitionsTotal, err = meter.Int64Counter(
		"tradelink_order_transitions_total",
		metric.WithDescription("Total number of applied order status transitions"),
		metric.WithUnit("{transitions}"),
	)
	if err != nil {
		return nil, err
	}

	bm.transitionsDenied, err = meter.Int64Counter(
		"tradelink_order_transitions_denied_total",
		metric.WithDescription("Total number of rejected order status transitions"),
		metric.WithUnit("{transitions}"),
	)
	if err != nil {
		return nil, err
	}

	bm.stockEffectsTotal, err = meter.Int64Counter(
		"tradelink_stock_effects_total",
		metric.WithDescription("Total number of stock side effects executed"),
		metric.WithUnit("{effects}"),
	)
	if err != nil {
		return nil, err
	}

	bm.transitionRetriesTotal, err = meter.Int64Counter(
		"tradelink_order_transition_retries_total",
		metric.WithDescription("Total number of optimistic-lock retries on transitions"),
		metric.WithUnit("{retries}"),
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordOrderCreated records a newly created order
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context) {
	bm.ordersCreatedTotal.Add(ctx, 1)
}

// RecordTransition records an applied status transition
func (bm *BusinessMetrics) RecordTransition(ctx context.Context, from, to, role string) {
	bm.transitionsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
			attribute.String("role", role),
		))
}

// RecordTransitionDenied records a transition the state machine rejected
func (bm *BusinessMetrics) RecordTransitionDenied(ctx context.Context, from, to, role string) {
	bm.transitionsDenied.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
			attribute.String("role", role),
		))
}

// RecordStockEffect records an executed stock side effect and its outcome
func (bm *BusinessMetrics) RecordStockEffect(ctx context.Context, kind string, success bool) {
	bm.stockEffectsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Bool("success", success),
		))
}

// RecordTransitionRetry records an optimistic-lock retry
func (bm *BusinessMetrics) RecordTransitionRetry(ctx context.Context) {
	bm.transitionRetriesTotal.Add(ctx, 1)
}
