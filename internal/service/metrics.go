package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TxTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Ledger transactions appended, by kind",
		},
		[]string{"kind"},
	)
	RedemptionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_transitions_total",
			Help: "Redemption workflow transitions, by target status",
		},
		[]string{"status"},
	)
	CertificatesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates generated or re-issued",
		},
	)
	RankRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_rank_recomputes_total",
			Help: "Full partition rank recomputations, by leaderboard type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(TxTotal)
	prometheus.MustRegister(RedemptionTransitions)
	prometheus.MustRegister(CertificatesIssued)
	prometheus.MustRegister(RankRecomputes)
}
