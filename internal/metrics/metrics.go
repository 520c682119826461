// Package metrics provides Prometheus metrics for registry registration
// state, heartbeat health, and connection activations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nmosnode",
		Subsystem: "discovery",
		Name:      "registered",
		Help:      "1 when the node is currently registered with an IS-04 registry, 0 otherwise",
	}, []string{"registry"})

	heartbeatFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nmosnode",
		Subsystem: "discovery",
		Name:      "heartbeat_failures_total",
		Help:      "Total heartbeat requests to the registry that failed",
	}, []string{"registry"})

	registrationAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nmosnode",
		Subsystem: "discovery",
		Name:      "registration_attempts_total",
		Help:      "Total registration attempts against a registry",
	}, []string{"registry", "outcome"})

	activationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nmosnode",
		Subsystem: "connection",
		Name:      "activations_total",
		Help:      "Total sender/receiver activations recorded via IncActivation",
	}, []string{"role", "mode"})

	activeResources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nmosnode",
		Subsystem: "connection",
		Name:      "active_resources",
		Help:      "Number of senders/receivers reported as master_enable=true via SetActiveResources",
	}, []string{"role"})
)

// SetRegistered records whether the node currently holds a registration with
// registry.
func SetRegistered(registry string, registered bool) {
	value := 0.0
	if registered {
		value = 1.0
	}
	registrationState.WithLabelValues(registry).Set(value)
}

// IncHeartbeatFailure records a failed heartbeat against registry.
func IncHeartbeatFailure(registry string) {
	heartbeatFailuresTotal.WithLabelValues(registry).Inc()
}

// IncRegistrationAttempt records a registration attempt and its outcome
// ("success" or "failure").
func IncRegistrationAttempt(registry, outcome string) {
	registrationAttemptsTotal.WithLabelValues(registry, outcome).Inc()
}

// IncActivation records an activation for role ("sender" or "receiver") and
// its activation mode (spec §4.5: immediate/scheduled-relative/
// scheduled-absolute). No package in this module calls IncActivation or
// SetActiveResources, so the connection series change only when an
// embedding program records into them.
func IncActivation(role, mode string) {
	activationsTotal.WithLabelValues(role, mode).Inc()
}

// SetActiveResources reports the current count of master_enable=true
// resources for role.
func SetActiveResources(role string, count int) {
	activeResources.WithLabelValues(role).Set(float64(count))
}
