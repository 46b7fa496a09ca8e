package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the API exposes. A nil *Metrics, or one built
// with a nil registerer, records nothing.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	ordersPlaced  *prometheus.CounterVec
	verifications *prometheus.CounterVec
	emailsSent    *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urbancart_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "urbancart_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urbancart_orders_placed_total",
			Help: "Orders committed, by payment method.",
		}, []string{"payment_method"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urbancart_payment_verifications_total",
			Help: "Gateway signature checks, by result.",
		}, []string{"result"}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "urbancart_emails_sent_total",
			Help: "Transactional email attempts, by template and result.",
		}, []string{"template", "result"}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.ordersPlaced, m.verifications, m.emailsSent)
	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) IncOrderPlaced(paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncPaymentVerification counts a signature check; result is "valid" or "invalid".
func (m *Metrics) IncPaymentVerification(result string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) IncEmail(template string, err error) {
	if m == nil || m.emailsSent == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.emailsSent.WithLabelValues(normalizeLabel(template), result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
