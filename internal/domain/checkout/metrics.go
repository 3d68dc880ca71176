package checkout

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts checkout outcomes. A nil *Metrics is a no-op, so tests can
// construct a Service without a meter provider.
type Metrics struct {
	sessions metric.Int64Counter
	payments metric.Int64Counter
	rewards  metric.Int64Counter
}

// NewMetrics registers the checkout counters on the given meter provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("checkout-service/checkout")

	sessions, err := meter.Int64Counter("checkout.sessions",
		metric.WithDescription("Checkout sessions created, by result"))
	if err != nil {
		return nil, err
	}
	payments, err := meter.Int64Counter("checkout.payments",
		metric.WithDescription("Payment callback verifications, by result"))
	if err != nil {
		return nil, err
	}
	rewards, err := meter.Int64Counter("checkout.rewards",
		metric.WithDescription("Reward coupons issued"))
	if err != nil {
		return nil, err
	}

	return &Metrics{sessions: sessions, payments: payments, rewards: rewards}, nil
}

func (m *Metrics) addSession(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) addPayment(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) addReward(ctx context.Context) {
	if m == nil {
		return
	}
	m.rewards.Add(ctx, 1)
}
