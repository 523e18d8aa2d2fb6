package positions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/core/matching"
)

func TestApplyLeg_NewPosition(t *testing.T) {
	s := New(zap.NewNop())

	p := s.ApplyLeg("alice", "BTC-USD", matching.Buy, 100, 5)
	require.NotNil(t, p)
	assert.Equal(t, int64(5), p.Quantity)
	assert.Equal(t, matching.Price(100), p.AveragePrice)
}

func TestApplyLeg_SellOpensShort(t *testing.T) {
	s := New(zap.NewNop())

	p := s.ApplyLeg("alice", "BTC-USD", matching.Sell, 100, 5)
	require.NotNil(t, p)
	assert.Equal(t, int64(-5), p.Quantity)
}

func TestApplyLeg_SameDirectionWeightsAverage(t *testing.T) {
	s := New(zap.NewNop())

	s.ApplyLeg("alice", "BTC-USD", matching.Buy, 100, 10)
	p := s.ApplyLeg("alice", "BTC-USD", matching.Buy, 200, 10)

	require.NotNil(t, p)
	assert.Equal(t, int64(20), p.Quantity)
	assert.Equal(t, matching.Price(150), p.AveragePrice)
}

func TestApplyLeg_ReductionPreservesAverage(t *testing.T) {
	s := New(zap.NewNop())

	s.ApplyLeg("alice", "BTC-USD", matching.Buy, 100, 10)
	p := s.ApplyLeg("alice", "BTC-USD", matching.Sell, 500, 4)

	require.NotNil(t, p)
	assert.Equal(t, int64(6), p.Quantity)
	assert.Equal(t, matching.Price(100), p.AveragePrice, "reducing a position must not move its average price")
}

func TestApplyLeg_ClosingToZeroDeletesEntry(t *testing.T) {
	s := New(zap.NewNop())

	s.ApplyLeg("alice", "BTC-USD", matching.Buy, 100, 10)
	p := s.ApplyLeg("alice", "BTC-USD", matching.Sell, 500, 10)

	assert.Nil(t, p)
	assert.Empty(t, s.Positions("alice", ""))

	_, ok := s.Get("alice", "BTC-USD")
	assert.False(t, ok)
}

func TestApplyLeg_FlipRetainsPreFlipAverage(t *testing.T) {
	s := New(zap.NewNop())

	s.ApplyLeg("alice", "BTC-USD", matching.Buy, 100, 5)
	p := s.ApplyLeg("alice", "BTC-USD", matching.Sell, 900, 8)

	require.NotNil(t, p)
	assert.Equal(t, int64(-3), p.Quantity)
	assert.Equal(t, matching.Price(100), p.AveragePrice, "a flip keeps the pre-flip average by deliberate simplification")
}

func TestPositions_FiltersBySymbolWhenGiven(t *testing.T) {
	s := New(zap.NewNop())

	s.ApplyLeg("alice", "BTC-USD", matching.Buy, 100, 5)
	s.ApplyLeg("alice", "ETH-USD", matching.Buy, 10, 50)

	all := s.Positions("alice", "")
	assert.Len(t, all, 2)

	filtered := s.Positions("alice", "ETH-USD")
	require.Len(t, filtered, 1)
	assert.Equal(t, "ETH-USD", filtered[0].Symbol)
}

func TestUnrealizedPnL_LongAndShort(t *testing.T) {
	long := Position{Quantity: 10, AveragePrice: 100}
	assert.Equal(t, int64(50), UnrealizedPnL(long, 105))

	short := Position{Quantity: -10, AveragePrice: 100}
	assert.Equal(t, int64(-50), UnrealizedPnL(short, 105))
}
