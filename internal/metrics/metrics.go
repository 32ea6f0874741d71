package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "revue"

var (
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	authAttempts      *prometheus.CounterVec
	aiReviews         *prometheus.CounterVec
	directoryUsers    *prometheus.GaugeVec
	registerOnce      sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the API.",
		}, []string{"method", "path", "status"})

		httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"})

		authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login and signup attempts by outcome.",
		}, []string{"kind", "outcome"})

		aiReviews = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_reviews_total",
			Help:      "Code review requests forwarded to the model, by outcome.",
		}, []string{"outcome"})

		directoryUsers = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "directory_users",
			Help:      "Accounts in the user directory, sampled by the stats refresh job.",
		}, []string{"group"})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func ObserveRequest(method, path string, d time.Duration) {
	if httpDuration == nil {
		return
	}
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// IncAuthAttempt counts a login or signup. outcome is "success" or "failure".
func IncAuthAttempt(kind string, success bool) {
	if authAttempts == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	authAttempts.WithLabelValues(kind, outcome).Inc()
}

func IncReview(outcome string) {
	if aiReviews == nil {
		return
	}
	aiReviews.WithLabelValues(outcome).Inc()
}

// SetDirectoryUsers publishes the latest directory counts.
func SetDirectoryUsers(total, active, admins, regular int64) {
	if directoryUsers == nil {
		return
	}
	directoryUsers.WithLabelValues("total").Set(float64(total))
	directoryUsers.WithLabelValues("active").Set(float64(active))
	directoryUsers.WithLabelValues("admin").Set(float64(admins))
	directoryUsers.WithLabelValues("regular").Set(float64(regular))
}
