// Package metrics expone las métricas Prometheus del servicio. Vive aparte
// para que services y middlewares puedan incrementarlas sin ciclos de import.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes de sign-in (label "outcome").
const (
	OutcomeSuccess             = "success"
	OutcomeInvalidCredentials  = "invalid_credentials"
	OutcomeThrottled           = "throttled"
	OutcomeMFARequired         = "mfa_required"
	OutcomeInvalidMFA          = "invalid_mfa"
	OutcomeVerificationPending = "verification_pending"
	OutcomeBootstrapFailed     = "bootstrap_failed"
	OutcomeError               = "error"
)

var (
	SignInTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_signin_total",
		Help: "Intentos de sign-in por método y resultado",
	}, []string{"method", "outcome"})

	MFAVerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_mfa_verifications_total",
		Help: "Verificaciones de segundo factor por etapa (enable|signin) y resultado",
	}, []string{"stage", "valid"})

	BootstrapFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_bootstrap_failures_total",
		Help: "Fallas del bootstrap de primer login por paso",
	}, []string{"step"})

	ThrottleFailOpenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_throttle_fail_open_total",
		Help: "Errores del store de throttle ignorados (fail open)",
	})
)

// ObserveSignIn cuenta un intento. method: password|oauth|challenge.
func ObserveSignIn(method, outcome string) {
	SignInTotal.WithLabelValues(method, outcome).Inc()
}

func ObserveMFAVerification(stage string, valid bool) {
	MFAVerificationsTotal.WithLabelValues(stage, strconv.FormatBool(valid)).Inc()
}

func ObserveBootstrapFailure(step string) {
	BootstrapFailuresTotal.WithLabelValues(step).Inc()
}

// RegisterAuth registra las métricas de auth en reg (o el default si es nil).
func RegisterAuth(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{SignInTotal, MFAVerificationsTotal, BootstrapFailuresTotal, ThrottleFailOpenTotal} {
		if err := registerCollector(reg, c); err != nil {
			return err
		}
	}
	return nil
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}
