package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gym"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	membersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "members",
			Name:      "created_total",
			Help:      "Total number of registered members.",
		},
	)

	renewals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "renewals_total",
			Help:      "Total number of subscriptions sold, by package duration.",
		},
		[]string{"duration_months"},
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "expired_total",
			Help:      "Total number of subscriptions moved to expired by the sweep.",
		},
	)

	subscriptionsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "cancelled_total",
			Help:      "Total number of cancelled subscriptions.",
		},
	)

	checkIns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "checkins_total",
			Help:      "Total number of member check-ins.",
		},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "recorded_total",
			Help:      "Total number of recorded payments, by method.",
		},
		[]string{"method"},
	)

	paymentAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "amount_total",
			Help:      "Sum of recorded payment amounts, by method.",
		},
		[]string{"method"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "expiry",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of subscription expiry sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		membersCreated,
		renewals,
		subscriptionsExpired,
		subscriptionsCancelled,
		checkIns,
		payments,
		paymentAmount,
		sweepDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records in-flight, count and latency for every routed request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordMemberCreated counts a new registration.
func RecordMemberCreated() { membersCreated.Inc() }

// RecordRenewal counts a sold subscription.
func RecordRenewal(durationMonths int) {
	renewals.WithLabelValues(strconv.Itoa(durationMonths)).Inc()
}

// RecordCancellation counts a cancelled subscription.
func RecordCancellation() { subscriptionsCancelled.Inc() }

// RecordCheckIn counts a check-in.
func RecordCheckIn() { checkIns.Inc() }

// RecordPayment counts a payment and adds its amount.
func RecordPayment(method string, amount float64) {
	if method == "" {
		method = "unknown"
	}
	payments.WithLabelValues(method).Inc()
	if amount > 0 {
		paymentAmount.WithLabelValues(method).Add(amount)
	}
}

// RecordExpirySweep records one sweep run and the subscriptions it expired.
func RecordExpirySweep(expired int64, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	if expired > 0 {
		subscriptionsExpired.Add(float64(expired))
	}
	sweepDuration.Observe(duration.Seconds())
}
