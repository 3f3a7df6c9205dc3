package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_scans_total",
		Help: "Number of scan cycles attempted",
	})

	ScanFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arb_scan_failures_total",
		Help: "Number of failed scan cycles",
	})

	OpportunitiesFound = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_opportunities_total",
		Help: "Opportunities returned by the scanner, by source",
	}, []string{"source"})

	TradesExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_trades_total",
		Help: "Trades reaching a terminal state, by result",
	}, []string{"result"})

	DailyPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arb_daily_pnl",
		Help: "Cumulative realized P&L since the last daily reset",
	})

	ActiveTrades = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arb_active_trades",
		Help: "Trades currently in flight",
	})

	ConsecutiveFailures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arb_consecutive_failures",
		Help: "Back-to-back failed cycles since the last success",
	})

	ScanLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_scan_latency_seconds",
		Help:    "Time to complete one market scan",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		ScansTotal,
		ScanFailures,
		OpportunitiesFound,
		TradesExecuted,
		DailyPnL,
		ActiveTrades,
		ConsecutiveFailures,
		ScanLatency,
	)
}
