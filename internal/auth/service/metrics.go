package service

import (
	"github.com/AlibekovAA/sessionauth/internal/observability/metrics"
)

const (
	resultSuccess  = "success"
	resultInvalid  = "invalid"
	resultConflict = "conflict"
	resultError    = "error"
)

func recordRegistration(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func recordAuthentication(result string) {
	metrics.AuthenticationsTotal.WithLabelValues(result).Inc()
}

func recordSessionRotation(result string) {
	metrics.SessionRotationsTotal.WithLabelValues(result).Inc()
}

func recordPasswordChange(result string) {
	metrics.PasswordChangesTotal.WithLabelValues(result).Inc()
}

func recordTokenCollision() {
	metrics.SessionTokenCollisionsTotal.Inc()
}
