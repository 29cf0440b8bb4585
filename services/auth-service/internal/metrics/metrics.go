package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics groups the auth service counters so tests can use a private registry.
type Metrics struct {
	Registrations *prometheus.CounterVec
	Confirmations *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	Reactivations prometheus.Counter
	Terminations  *prometheus.CounterVec
	Revocations   *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Total number of registration attempts.",
			},
			[]string{"result"},
		),
		Confirmations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_email_confirmations_total",
				Help: "Total number of e-mail confirmation attempts.",
			},
			[]string{"kind", "result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Total number of login attempts.",
			},
			[]string{"result"},
		),
		Reactivations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_reactivations_total",
				Help: "Total number of pending terminations cancelled by a login.",
			},
		),
		Terminations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_terminations_total",
				Help: "Total number of account termination requests.",
			},
			[]string{"state", "result"},
		),
		Revocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_sessions_revoked_total",
				Help: "Total number of revoked sessions.",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(
		m.Registrations,
		m.Confirmations,
		m.Logins,
		m.Reactivations,
		m.Terminations,
		m.Revocations,
	)

	return m
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
