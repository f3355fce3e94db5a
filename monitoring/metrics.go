package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	ConsultationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consultations_created_total",
			Help: "Total consultation requests stored",
		},
	)

	NotificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Consultation notifications that could not be delivered",
		},
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Emails handed to the mail provider, by kind",
		},
		[]string{"kind"},
	)

	JobApplicationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "job_applications_created_total",
			Help: "Total job applications stored",
		},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ConsultationsCreated)
		prometheus.MustRegister(NotificationFailures)
		prometheus.MustRegister(EmailsSent)
		prometheus.MustRegister(JobApplicationsCreated)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
