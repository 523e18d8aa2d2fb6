// Package metrics exposes the prometheus counters and histograms around
// Submit/Cancel the HTTP layer is expected to record, per SPEC_FULL's
// domain stack.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector this module registers. A single
// instance is constructed at bootstrap and threaded through the HTTP
// handlers that drive the core.
type Metrics struct {
	OrdersProcessed  *prometheus.CounterVec
	TradesExecuted   *prometheus.CounterVec
	MatchingLatency  *prometheus.HistogramVec
	ActiveBookDepth  *prometheus.GaugeVec
	NoLiquidityTotal *prometheus.CounterVec
}

// New registers and returns the metric set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcore_orders_processed_total",
			Help: "Number of orders submitted, labeled by symbol and side.",
		}, []string{"symbol", "side"}),
		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcore_trades_executed_total",
			Help: "Number of trades executed, labeled by symbol.",
		}, []string{"symbol"}),
		MatchingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchcore_matching_latency_seconds",
			Help:    "Time spent inside Engine.Submit, labeled by symbol.",
			Buckets: prometheus.DefBuckets,
		}, []string{"symbol"}),
		ActiveBookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchcore_active_book_depth",
			Help: "Number of distinct price levels currently resting, labeled by symbol and side.",
		}, []string{"symbol", "side"}),
		NoLiquidityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchcore_no_liquidity_total",
			Help: "Number of Market submissions that produced zero trades, labeled by symbol.",
		}, []string{"symbol"}),
	}

	reg.MustRegister(m.OrdersProcessed, m.TradesExecuted, m.MatchingLatency, m.ActiveBookDepth, m.NoLiquidityTotal)
	return m
}
