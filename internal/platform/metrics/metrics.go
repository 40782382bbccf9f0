package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	RegistrationsTotal    prometheus.Counter
	VerificationDecisions *prometheus.CounterVec
	CredentialsIssued     prometheus.Counter
	BallotsCast           prometheus.Counter
	BallotsRejected       *prometheus.CounterVec
	TallyRecomputes       prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quorum_voter_registrations_total",
			Help: "Total number of voter registrations received",
		}),
		VerificationDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quorum_verification_decisions_total",
			Help: "Verification review decisions by outcome",
		}, []string{"decision"}),
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quorum_credentials_issued_total",
			Help: "Total number of voting credentials issued",
		}),
		BallotsCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quorum_ballots_cast_total",
			Help: "Total number of ballots committed",
		}),
		BallotsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quorum_ballots_rejected_total",
			Help: "Ballot cast attempts rejected, by error code",
		}, []string{"code"}),
		TallyRecomputes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quorum_tally_recomputes_total",
			Help: "Total number of tally recomputations",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quorum_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
