package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nortvale/matchcore/internal/core/matching"
	"github.com/nortvale/matchcore/internal/eventbus"
)

func TestToOutboundFrame_OrderBookUpdateIsFlatWithPricePairs(t *testing.T) {
	msg := eventbus.Message{
		Type: eventbus.MessageTypeOrderBookUpdate,
		OrderBookUpdate: &eventbus.OrderBookUpdate{
			Symbol: "BTC-USD",
			Bids:   []matching.Level{{Price: 100, Qty: 5}},
			Asks:   []matching.Level{{Price: 101, Qty: 3}},
		},
	}

	frame, ok := toOutboundFrame(msg)
	require.True(t, ok)

	raw, err := json.Marshal(frame)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "OrderBookUpdate", decoded["type"])
	assert.Equal(t, "BTC-USD", decoded["symbol"])
	assert.Equal(t, []any{[]any{float64(100), float64(5)}}, decoded["bids"])
	assert.Equal(t, []any{[]any{float64(101), float64(3)}}, decoded["asks"])
	_, hasNested := decoded["order_book_update"]
	assert.False(t, hasNested)
}

func TestToOutboundFrame_TradeIsFlatWithSymbolAtTopLevel(t *testing.T) {
	trade := matching.Trade{
		ID:           uuid.New(),
		MakerOrderID: uuid.New(),
		TakerOrderID: uuid.New(),
		Price:        100,
		Quantity:     5,
	}
	msg := eventbus.Message{
		Type:  eventbus.MessageTypeTrade,
		Trade: &eventbus.TradeNotice{Symbol: "BTC-USD", Trade: trade},
	}

	frame, ok := toOutboundFrame(msg)
	require.True(t, ok)

	raw, err := json.Marshal(frame)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "Trade", decoded["type"])
	assert.Equal(t, "BTC-USD", decoded["symbol"])
	require.Contains(t, decoded, "trade")
	tradeObj := decoded["trade"].(map[string]any)
	assert.Equal(t, float64(100), tradeObj["price"])
	assert.Equal(t, float64(5), tradeObj["quantity"])
}
