package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_portal_http_requests_total",
		Help: "Requests served by the portal.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leave_portal_http_request_duration_seconds",
		Help:    "Latency of requests served by the portal.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_portal_backend_requests_total",
		Help: "Calls made to the leave backend, by operation and outcome.",
	}, []string{"operation", "outcome"})

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leave_portal_backend_request_duration_seconds",
		Help:    "Latency of calls made to the leave backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	SessionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_portal_session_events_total",
		Help: "Session store changes, by kind.",
	}, []string{"kind"})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leave_portal_sessions_swept_total",
		Help: "Expired sessions removed by the sweeper.",
	})
)
