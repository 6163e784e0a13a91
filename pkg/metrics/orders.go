package metrics

import "github.com/prometheus/client_golang/prometheus"

// Verification outcomes.
const (
	OutcomeVerified          = "verified"
	OutcomeRejected          = "rejected"
	OutcomeSignatureMismatch = "signature_mismatch"
	OutcomeError             = "error"
)

// OrderMetrics tracks payment verification and the best-effort work that
// follows a placed order.
type OrderMetrics struct {
	verifications   *prometheus.CounterVec
	totalsMismatch  prometheus.Counter
	sideEffectFails *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_verifications_total",
		Help:      "Payment verification attempts by outcome.",
	}, []string{"outcome"})
	mismatch := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_totals_mismatch_total",
		Help:      "Verified orders whose client-claimed totals differ from the catalog totals.",
	})
	sideEffects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_side_effect_failures_total",
		Help:      "Failed post-commit order side effects (event publish, email).",
	}, []string{"kind"})
	reg.MustRegister(verifications, mismatch, sideEffects)
	return &OrderMetrics{
		verifications:   verifications,
		totalsMismatch:  mismatch,
		sideEffectFails: sideEffects,
	}
}

func (o *OrderMetrics) IncVerification(outcome string) {
	if o == nil || o.verifications == nil {
		return
	}
	o.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (o *OrderMetrics) IncTotalsMismatch() {
	if o == nil || o.totalsMismatch == nil {
		return
	}
	o.totalsMismatch.Inc()
}

func (o *OrderMetrics) IncSideEffectFailure(kind string) {
	if o == nil || o.sideEffectFails == nil {
		return
	}
	o.sideEffectFails.WithLabelValues(normalizeLabel(kind)).Inc()
}
