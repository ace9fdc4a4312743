package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionsTotal,
		sessionsActive,
		promoValidationsTotal,
		paymentInitiationsTotal,
		paymentPollsTotal,
		paymentOutcomesTotal,
		paymentsRevenueTotal,
	)
}

var (
	// event: opened|closed|expired
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions by lifecycle event.",
		},
		[]string{"event"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_sessions_active",
			Help: "Checkout sessions currently open.",
		},
	)

	// result: valid|invalid|error
	promoValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_validations_total",
			Help: "Promo code validations by result.",
		},
		[]string{"result"},
	)

	// result: ok|rejected|transport_error
	paymentInitiationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_initiations_total",
			Help: "Payment initiation requests by result.",
		},
		[]string{"result"},
	)

	// outcome: completed|failed|pending|error
	paymentPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_polls_total",
			Help: "Transaction status polls by outcome.",
		},
		[]string{"outcome"},
	)

	// status: success|declined|timeout|rejected|error
	paymentOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_outcomes_total",
			Help: "Final payment outcomes by status and carrier.",
		},
		[]string{"status", "carrier"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncSession(event string) {
	sessionsTotal.WithLabelValues(norm(event)).Inc()
}

func SetActiveSessions(n int) {
	sessionsActive.Set(float64(n))
}

func IncPromoValidation(result string) {
	promoValidationsTotal.WithLabelValues(norm(result)).Inc()
}

func IncInitiation(result string) {
	paymentInitiationsTotal.WithLabelValues(norm(result)).Inc()
}

func IncPoll(outcome string) {
	paymentPollsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncOutcome(status, carrier string) {
	if carrier == "" {
		carrier = "unknown"
	}
	paymentOutcomesTotal.WithLabelValues(norm(status), norm(carrier)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
