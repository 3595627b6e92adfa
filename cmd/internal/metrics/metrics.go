// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_http_requests_total",
		Help: "HTTP requests by route pattern and status class",
	}, []string{"route", "class"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vault_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	HandshakesInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_handshakes_initiated_total",
		Help: "Handshake sessions created",
	})

	HandshakesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_handshakes_completed_total",
		Help: "Handshake completion attempts by result",
	}, []string{"result"})

	HandshakesSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_handshakes_superseded_total",
		Help: "Active handshake sessions deactivated by a newer initiation",
	})

	KeygenDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vault_rsa_keygen_duration_seconds",
		Help:    "RSA key pair generation latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	HeartbeatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_session_heartbeats_total",
		Help: "Session heartbeats by outcome",
	}, []string{"outcome"})

	SessionsRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_sessions_revoked_total",
		Help: "User sessions revoked by reason",
	}, []string{"reason"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_cleanup_sweeps_total",
		Help: "Cleanup sweeps by sweeper and result",
	}, []string{"sweeper", "result"})

	SweepReclaimed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_cleanup_reclaimed_total",
		Help: "Records reclaimed by the cleanup sweep",
	}, []string{"sweeper"})

	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vault_cleanup_sweep_duration_seconds",
		Help:    "Cleanup sweep latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"sweeper"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"limiter"})
)
