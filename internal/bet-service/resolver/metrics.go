package resolver

import "github.com/prometheus/client_golang/prometheus"

// Metrics agrupa os coletores da varredura de resolução.
type Metrics struct {
	Sweeps        *prometheus.CounterVec // por trigger
	SweepDuration prometheus.Histogram
	Settled       *prometheus.CounterVec // por status
	FetchErrors   prometheus.Counter
	Pending       prometheus.Gauge
}

// NewMetrics cria e registra os coletores no registerer informado.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resolver_sweeps_total",
			Help: "varreduras executadas por origem",
		}, []string{"trigger"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resolver_sweep_duration_seconds",
			Help:    "duração de cada varredura",
			Buckets: prometheus.DefBuckets,
		}),
		Settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resolver_bets_settled_total",
			Help: "apostas liquidadas por status",
		}, []string{"status"}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resolver_game_fetch_errors_total",
			Help: "falhas ao consultar o placar ao vivo",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "resolver_pending_bets",
			Help: "apostas pendentes encontradas na última varredura",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Sweeps, m.SweepDuration, m.Settled, m.FetchErrors, m.Pending)
	}
	return m
}
