// Package eventbus is the in-process, multi-producer multi-consumer
// broadcast used to fan order book and trade updates out to subscriber
// sessions. Grounded on the teacher's ws.Hub broadcast loop, generalized
// from a single unfiltered byte-slice channel to typed messages
// delivered over a bounded per-subscriber channel, so a lagging
// subscriber only ever loses its own oldest messages instead of
// blocking (or being blocked by) anyone else.
package eventbus

import (
	"sync"

	"github.com/nortvale/matchcore/internal/core/matching"
)

// defaultBufferSize is "on the order of 10^3 messages" per the bus's
// buffering requirement.
const defaultBufferSize = 1024

// MessageType discriminates the two message variants the bus carries.
type MessageType string

const (
	MessageTypeOrderBookUpdate MessageType = "OrderBookUpdate"
	MessageTypeTrade           MessageType = "Trade"
)

// OrderBookUpdate reflects one symbol's depth after a mutation.
type OrderBookUpdate struct {
	Symbol string           `json:"symbol"`
	Bids   []matching.Level `json:"bids"`
	Asks   []matching.Level `json:"asks"`
}

// TradeNotice wraps one executed trade with its symbol for subscribers
// that filter by symbol alone.
type TradeNotice struct {
	Symbol string         `json:"symbol"`
	Trade  matching.Trade `json:"trade"`
}

// Message is one bus entry. Exactly one of OrderBookUpdate or Trade is
// set, selected by Type.
type Message struct {
	Type            MessageType      `json:"type"`
	OrderBookUpdate *OrderBookUpdate `json:"order_book_update,omitempty"`
	Trade           *TradeNotice     `json:"trade,omitempty"`
}

// Subscriber is one consumer's bounded mailbox. The event bus performs
// no per-symbol partitioning here; a session filters C() against its
// own subscription set.
type Subscriber struct {
	ch chan Message
}

// C returns the channel to range or select over. It is closed by
// Unsubscribe.
func (s *Subscriber) C() <-chan Message { return s.ch }

// Bus is the broadcast hub. The zero value is not usable; use New.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	bufferSize  int
}

// New builds an empty bus with the given per-subscriber buffer size (0
// selects the default of roughly one thousand messages).
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		subscribers: make(map[*Subscriber]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new mailbox.
func (b *Bus) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Message, b.bufferSize)}
	b.mu.Lock()
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes and closes a mailbox. Safe to call more than once.
func (b *Bus) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[s]; ok {
		delete(b.subscribers, s)
		close(s.ch)
	}
}

// publish fans msg out to every current subscriber. No subscriber may
// block a publisher: a full mailbox has its oldest entry dropped to
// make room for msg, which preserves arrival order for whatever
// survives.
func (b *Bus) publish(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subscribers {
		select {
		case s.ch <- msg:
		default:
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- msg:
			default:
			}
		}
	}
}

// PublishTrade emits one Trade message.
func (b *Bus) PublishTrade(symbol string, trade matching.Trade) {
	b.publish(Message{Type: MessageTypeTrade, Trade: &TradeNotice{Symbol: symbol, Trade: trade}})
}

// PublishDepth emits one OrderBookUpdate message.
func (b *Bus) PublishDepth(symbol string, bids, asks []matching.Level) {
	b.publish(Message{Type: MessageTypeOrderBookUpdate, OrderBookUpdate: &OrderBookUpdate{Symbol: symbol, Bids: bids, Asks: asks}})
}

// PublishMatch implements the publication ordering required for a
// single matching invocation: every trade it produced, in execution
// order, followed by exactly one OrderBookUpdate reflecting the
// terminal depth. The HTTP layer invokes this once per Submit, from
// outside the core matching package; a Cancel publishes only its depth
// update, through PublishDepth.
func (b *Bus) PublishMatch(symbol string, trades []matching.Trade, bids, asks []matching.Level) {
	for _, t := range trades {
		b.PublishTrade(symbol, t)
	}
	b.PublishDepth(symbol, bids, asks)
}
