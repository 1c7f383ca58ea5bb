package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the will module.
type Metrics struct {
	WillsCreated  prometheus.Counter
	Deposits      prometheus.Counter
	CheckIns      prometheus.Counter
	WillsExecuted prometheus.Counter
	Claims        prometheus.Counter
	ClaimFailures prometheus.Counter
	ClaimAmount   prometheus.Histogram
}

// New creates a new Metrics instance with all will module metrics registered.
func New() *Metrics {
	return &Metrics{
		WillsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_wills_created_total",
			Help: "Total number of wills created",
		}),
		Deposits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_deposits_total",
			Help: "Total number of successful deposits",
		}),
		CheckIns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_check_ins_total",
			Help: "Total number of owner check-ins",
		}),
		WillsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_wills_executed_total",
			Help: "Total number of wills transitioned to executed",
		}),
		Claims: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_claims_total",
			Help: "Total number of successful inheritance claims",
		}),
		ClaimFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "testament_claim_ledger_failures_total",
			Help: "Total number of claims rolled back because the ledger transfer failed",
		}),
		ClaimAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "testament_claim_amount_units",
			Help:    "Distribution of claimed amounts in smallest value units",
			Buckets: prometheus.ExponentialBuckets(1, 10, 10),
		}),
	}
}

func (m *Metrics) IncrementWillsCreated() {
	m.WillsCreated.Inc()
}

func (m *Metrics) IncrementDeposits() {
	m.Deposits.Inc()
}

func (m *Metrics) IncrementCheckIns() {
	m.CheckIns.Inc()
}

func (m *Metrics) IncrementWillsExecuted() {
	m.WillsExecuted.Inc()
}

// ObserveClaim records a successful claim and its payout size.
func (m *Metrics) ObserveClaim(amount uint64) {
	m.Claims.Inc()
	m.ClaimAmount.Observe(float64(amount))
}

func (m *Metrics) IncrementClaimFailures() {
	m.ClaimFailures.Inc()
}
