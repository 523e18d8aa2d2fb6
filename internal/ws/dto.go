package websocket

import (
	"time"

	"github.com/nortvale/matchcore/internal/core/matching"
	"github.com/nortvale/matchcore/internal/eventbus"
)

// outboundFrame is the wire shape of a server-initiated message, flat
// and type-tagged per §6.2: {"type":"OrderBookUpdate","symbol":…,
// "bids":[[price,qty],…],"asks":[…]} or {"type":"Trade","symbol":…,
// "trade":{…}}. eventbus.Message's nested, untagged Go shape is an
// internal representation only; this is what actually goes over the
// socket.
type outboundFrame struct {
	Type   eventbus.MessageType `json:"type"`
	Symbol string               `json:"symbol"`
	Bids   [][2]any             `json:"bids,omitempty"`
	Asks   [][2]any             `json:"asks,omitempty"`
	Trade  *outboundTrade       `json:"trade,omitempty"`
}

// outboundTrade is one executed trade rendered for the wire.
type outboundTrade struct {
	ID           string         `json:"id"`
	MakerOrderID string         `json:"maker_order_id"`
	TakerOrderID string         `json:"taker_order_id"`
	Price        matching.Price `json:"price"`
	Quantity     matching.Qty   `json:"quantity"`
	Timestamp    string         `json:"timestamp"`
}

// levelPairs renders a depth side as [price, qty] pairs instead of
// {"Price":…,"Qty":…} objects.
func levelPairs(levels []matching.Level) [][2]any {
	if len(levels) == 0 {
		return nil
	}
	pairs := make([][2]any, len(levels))
	for i, lvl := range levels {
		pairs[i] = [2]any{lvl.Price, lvl.Qty}
	}
	return pairs
}

// toOutboundFrame converts one bus message to its wire shape. ok is
// false for a message type the wire protocol does not know how to
// render, which forwardPump treats as nothing to send.
func toOutboundFrame(msg eventbus.Message) (outboundFrame, bool) {
	switch msg.Type {
	case eventbus.MessageTypeOrderBookUpdate:
		if msg.OrderBookUpdate == nil {
			return outboundFrame{}, false
		}
		return outboundFrame{
			Type:   msg.Type,
			Symbol: msg.OrderBookUpdate.Symbol,
			Bids:   levelPairs(msg.OrderBookUpdate.Bids),
			Asks:   levelPairs(msg.OrderBookUpdate.Asks),
		}, true
	case eventbus.MessageTypeTrade:
		if msg.Trade == nil {
			return outboundFrame{}, false
		}
		t := msg.Trade.Trade
		return outboundFrame{
			Type:   msg.Type,
			Symbol: msg.Trade.Symbol,
			Trade: &outboundTrade{
				ID:           t.ID.String(),
				MakerOrderID: t.MakerOrderID.String(),
				TakerOrderID: t.TakerOrderID.String(),
				Price:        t.Price,
				Quantity:     t.Quantity,
				Timestamp:    t.Timestamp.Format(time.RFC3339Nano),
			},
		}, true
	default:
		return outboundFrame{}, false
	}
}
