package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderFlowMetrics counts the order lifecycle events the business cares
// about: creations, expirations, and payout settlements.
type OrderFlowMetrics struct {
	ordersCreated    prometheus.Counter
	ordersExpired    prometheus.Counter
	payoutsSettled   prometheus.Counter
	paymentsVerified *prometheus.CounterVec
}

// NewOrderFlowMetrics registers the order flow counters on the provided registerer.
func NewOrderFlowMetrics(reg prometheus.Registerer) *OrderFlowMetrics {
	if reg == nil {
		return &OrderFlowMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully placed.",
	})
	ordersExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_expired_total",
		Help: "Pending orders cancelled by the expiry sweep.",
	})
	payoutsSettled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payouts_settled_total",
		Help: "Seller payout settlements performed.",
	})
	paymentsVerified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_verified_total",
		Help: "Gateway payments verified, by method.",
	}, []string{"method"})
	reg.MustRegister(ordersCreated, ordersExpired, payoutsSettled, paymentsVerified)
	return &OrderFlowMetrics{
		ordersCreated:    ordersCreated,
		ordersExpired:    ordersExpired,
		payoutsSettled:   payoutsSettled,
		paymentsVerified: paymentsVerified,
	}
}

// IncOrdersCreated bumps the created-orders counter.
func (m *OrderFlowMetrics) IncOrdersCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncOrdersExpired bumps the expired-orders counter.
func (m *OrderFlowMetrics) IncOrdersExpired() {
	if m == nil || m.ordersExpired == nil {
		return
	}
	m.ordersExpired.Inc()
}

// IncPaymentsVerified bumps the verified-payments counter for a method.
func (m *OrderFlowMetrics) IncPaymentsVerified(method string) {
	if m == nil || m.paymentsVerified == nil {
		return
	}
	m.paymentsVerified.WithLabelValues(method).Inc()
}

// IncPayoutsSettled bumps the settled-payouts counter.
func (m *OrderFlowMetrics) IncPayoutsSettled() {
	if m == nil || m.payoutsSettled == nil {
		return
	}
	m.payoutsSettled.Inc()
}
