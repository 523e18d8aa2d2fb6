package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine("BTC-USD", 16, zap.NewNop())
}

func TestSubmit_RestsWhenNoCross(t *testing.T) {
	e := newTestEngine(t)

	order, trades := e.Submit("alice", 100, 10, Buy, Limit)

	assert.Empty(t, trades)
	assert.Equal(t, Pending, order.Status)
	assert.Equal(t, Qty(10), order.Quantity)

	bids, asks := e.Depth()
	assert.Equal(t, []Level{{Price: 100, Qty: 10}}, bids)
	assert.Empty(t, asks)
}

func TestSubmit_FullFill(t *testing.T) {
	e := newTestEngine(t)

	maker, _ := e.Submit("alice", 100, 10, Sell, Limit)
	require.Equal(t, Pending, maker.Status)

	taker, trades := e.Submit("bob", 100, 10, Buy, Limit)

	require.Len(t, trades, 1)
	assert.Equal(t, Price(100), trades[0].Price)
	assert.Equal(t, Qty(10), trades[0].Quantity)
	assert.Equal(t, maker.ID, trades[0].MakerOrderID)
	assert.Equal(t, taker.ID, trades[0].TakerOrderID)
	assert.Equal(t, Filled, taker.Status)
	assert.Equal(t, Qty(0), taker.Quantity)

	bids, asks := e.Depth()
	assert.Empty(t, bids)
	assert.Empty(t, asks)

	_, err := e.GetOrder(maker.ID, "alice")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSubmit_PartialFillRestsRemainder(t *testing.T) {
	e := newTestEngine(t)

	e.Submit("alice", 100, 5, Sell, Limit)
	taker, trades := e.Submit("bob", 100, 12, Buy, Limit)

	require.Len(t, trades, 1)
	assert.Equal(t, Qty(5), trades[0].Quantity)
	assert.Equal(t, PartiallyFilled, taker.Status)
	assert.Equal(t, Qty(7), taker.Quantity)

	bids, asks := e.Depth()
	assert.Equal(t, []Level{{Price: 100, Qty: 7}}, bids)
	assert.Empty(t, asks)
}

func TestSubmit_FIFOAcrossMakersAtSamePrice(t *testing.T) {
	e := newTestEngine(t)

	m1, _ := e.Submit("alice", 100, 5, Sell, Limit)
	m2, _ := e.Submit("carol", 100, 5, Sell, Limit)

	_, trades := e.Submit("bob", 100, 8, Buy, Limit)

	require.Len(t, trades, 2)
	assert.Equal(t, m1.ID, trades[0].MakerOrderID)
	assert.Equal(t, Qty(5), trades[0].Quantity)
	assert.Equal(t, m2.ID, trades[1].MakerOrderID)
	assert.Equal(t, Qty(3), trades[1].Quantity)

	_, asks := e.Depth()
	require.Len(t, asks, 1)
	assert.Equal(t, Qty(2), asks[0].Qty)
}

func TestSubmit_MarketConsumesBestPricesFirstAndNeverRests(t *testing.T) {
	e := newTestEngine(t)

	e.Submit("alice", 101, 5, Sell, Limit)
	e.Submit("carol", 100, 5, Sell, Limit)

	taker, trades := e.Submit("bob", 0, 6, Buy, Market)

	require.Len(t, trades, 2)
	assert.Equal(t, Price(100), trades[0].Price)
	assert.Equal(t, Qty(5), trades[0].Quantity)
	assert.Equal(t, Price(101), trades[1].Price)
	assert.Equal(t, Qty(1), trades[1].Quantity)
	assert.Equal(t, Filled, taker.Status)

	bids, _ := e.Depth()
	assert.Empty(t, bids, "market orders never rest regardless of remaining quantity")
}

func TestSubmit_MarketWithNoLiquidityDropsEntirely(t *testing.T) {
	e := newTestEngine(t)

	taker, trades := e.Submit("bob", 0, 10, Buy, Market)

	assert.Empty(t, trades)
	assert.Equal(t, Pending, taker.Status)
	assert.Equal(t, Qty(10), taker.Quantity)

	bids, asks := e.Depth()
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestSubmit_LimitBelowBestAskDoesNotCross(t *testing.T) {
	e := newTestEngine(t)

	e.Submit("alice", 100, 5, Sell, Limit)
	taker, trades := e.Submit("bob", 99, 5, Buy, Limit)

	assert.Empty(t, trades)
	assert.Equal(t, Pending, taker.Status)

	bids, asks := e.Depth()
	assert.Equal(t, []Level{{Price: 99, Qty: 5}}, bids)
	assert.Equal(t, []Level{{Price: 100, Qty: 5}}, asks)
}

func TestCancel_OwnerSucceeds(t *testing.T) {
	e := newTestEngine(t)

	order, _ := e.Submit("alice", 100, 5, Buy, Limit)

	cancelled, err := e.Cancel(order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, Cancelled, cancelled.Status)

	bids, _ := e.Depth()
	assert.Empty(t, bids)
}

func TestCancel_NonOwnerForbidden(t *testing.T) {
	e := newTestEngine(t)

	order, _ := e.Submit("alice", 100, 5, Buy, Limit)

	_, err := e.Cancel(order.ID, "mallory")
	assert.ErrorIs(t, err, ErrForbidden)

	bids, _ := e.Depth()
	assert.Equal(t, []Level{{Price: 100, Qty: 5}}, bids)
}

func TestCancel_UnknownOrder(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Cancel(newTradeID(), "alice")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRecentTrades_NewestFirstAndBounded(t *testing.T) {
	e := NewEngine("BTC-USD", 2, zap.NewNop())

	e.Submit("alice", 100, 1, Sell, Limit)
	_, t1 := e.Submit("bob", 100, 1, Buy, Limit)
	e.Submit("alice", 101, 1, Sell, Limit)
	_, t2 := e.Submit("carol", 101, 1, Buy, Limit)
	e.Submit("alice", 102, 1, Sell, Limit)
	_, t3 := e.Submit("dave", 102, 1, Buy, Limit)

	require.Len(t, t1, 1)
	require.Len(t, t2, 1)
	require.Len(t, t3, 1)

	recent := e.RecentTrades(10)
	require.Len(t, recent, 2, "ring capacity caps the result even when limit asks for more")
	assert.Equal(t, t3[0].ID, recent[0].ID)
	assert.Equal(t, t2[0].ID, recent[1].ID)
}

func TestRestore_DoesNotMatch(t *testing.T) {
	e := newTestEngine(t)

	e.Restore(Order{
		ID:       newTradeID(),
		UserID:   "alice",
		Symbol:   "BTC-USD",
		Side:     Sell,
		Type:     Limit,
		Price:    100,
		Quantity: 5,
		Original: 5,
		Status:   Pending,
	})
	e.Restore(Order{
		ID:       newTradeID(),
		UserID:   "bob",
		Symbol:   "BTC-USD",
		Side:     Buy,
		Type:     Limit,
		Price:    100,
		Quantity: 5,
		Original: 5,
		Status:   Pending,
	})

	bids, asks := e.Depth()
	assert.Equal(t, []Level{{Price: 100, Qty: 5}}, bids)
	assert.Equal(t, []Level{{Price: 100, Qty: 5}}, asks)
}
