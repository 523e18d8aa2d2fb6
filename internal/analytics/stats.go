// Package analytics computes the read-only supplemental statistics
// SPEC_FULL adds on top of the core's recent-trades ring: VWAP, price
// standard deviation, and a simple moving average. None of it feeds back
// into matching, clearing, or fee logic.
package analytics

import (
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/nortvale/matchcore/internal/core/matching"
)

// Snapshot is the computed statistics for one symbol's recent trades.
type Snapshot struct {
	Symbol        string  `json:"symbol"`
	TradeCount    int     `json:"trade_count"`
	VWAP          float64 `json:"vwap"`
	PriceStdDev   float64 `json:"price_stddev"`
	SimpleMovAvg  float64 `json:"sma"`
	SMAWindowSize int     `json:"sma_window_size"`
}

// Compute derives a Snapshot from trades (oldest-to-newest order is not
// required; VWAP and stddev are order-independent, and the SMA below
// reads its window from the tail of the slice as given).
func Compute(symbol string, trades []matching.Trade, smaWindow int) Snapshot {
	snap := Snapshot{Symbol: symbol, TradeCount: len(trades), SMAWindowSize: smaWindow}
	if len(trades) == 0 {
		return snap
	}

	prices := make([]float64, len(trades))
	weights := make([]float64, len(trades))
	for i, t := range trades {
		prices[i] = float64(t.Price)
		weights[i] = float64(t.Quantity)
	}

	snap.VWAP = stat.Mean(prices, weights)
	snap.PriceStdDev = stat.StdDev(prices, nil)

	if smaWindow <= 0 || smaWindow > len(prices) {
		smaWindow = len(prices)
		snap.SMAWindowSize = smaWindow
	}
	sma := talib.Sma(prices, smaWindow)
	snap.SimpleMovAvg = sma[len(sma)-1]

	return snap
}
