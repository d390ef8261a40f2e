package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "session_transitions_total",
		Help:      "Session state transitions.",
	}, []string{"from", "to"})

	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "rack_commits_total",
		Help:      "Rack ledger commits by activity kind and result.",
	}, []string{"kind", "result"})

	confirmAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "confirm_attempts_total",
		Help:      "Sensor confirmation attempts by outcome.",
	}, []string{"outcome"})

	forcedCancelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "forced_cancels_total",
		Help:      "Cancellations finished without the rack being restored.",
	}, []string{"intent"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "foodstation",
		Name:      "active_sessions",
		Help:      "Sessions currently tracked by the manager.",
	})
)
