package handlers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the counters the payment handlers observe.
type Metrics struct {
	paymentsSucceeded metric.Int64Counter
	paymentsFailed    metric.Int64Counter
	paymentsThrottled metric.Int64Counter
	refundsProcessed  metric.Int64Counter
	refundsReconciled metric.Int64Counter
}

func newMetrics() *Metrics {
	meter := otel.Meter("talentbridge-server")

	m := &Metrics{}
	m.paymentsSucceeded, _ = meter.Int64Counter("talentbridge.payments.succeeded",
		metric.WithDescription("Platform-fee charges completed"))
	m.paymentsFailed, _ = meter.Int64Counter("talentbridge.payments.failed",
		metric.WithDescription("Platform-fee charges rejected by the gateway"))
	m.paymentsThrottled, _ = meter.Int64Counter("talentbridge.payments.throttled",
		metric.WithDescription("Payment attempts denied by the attempt ledger"))
	m.refundsProcessed, _ = meter.Int64Counter("talentbridge.refunds.processed",
		metric.WithDescription("Refunds issued through the gateway"))
	m.refundsReconciled, _ = meter.Int64Counter("talentbridge.refunds.reconciled",
		metric.WithDescription("Refunds reconciled from upstream gateway state"))

	return m
}

func (m *Metrics) add(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1)
	}
}
