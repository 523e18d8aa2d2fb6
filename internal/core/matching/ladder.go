package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"
	"go.uber.org/zap"
)

const defaultTradeRingCapacity = 1000

// priceLevel is a FIFO queue of resting order ids at one price. Orders
// carry only their id here; the order map in Ladder is the single source
// of truth for mutable fields.
type priceLevel struct {
	price Price
	queue []uuid.UUID
}

// Ladder is the order book for one symbol: two price-ordered btrees of
// priceLevel, an id-to-record index, and a bounded trade ring. Grounded
// on the btree-backed book in the example pack (tidwall/btree ordered
// maps keyed by price) rather than the teacher's heap, because a btree
// gives §4.A's "ordered maps" traversal (best_bid/best_ask, depth in
// traversal order) directly instead of needing heap-pop-and-reinsert.
type Ladder struct {
	Symbol string

	bids *btree.BTreeG[*priceLevel] // best (highest) first
	asks *btree.BTreeG[*priceLevel] // best (lowest) first

	orders map[uuid.UUID]*Order

	trades    []Trade
	tradeHead int
	tradeLen  int

	logger *zap.Logger
}

// NewLadder builds an empty ladder for symbol with the given trade-ring
// capacity (default 1000 per §4).
func NewLadder(symbol string, tradeRingCapacity int, logger *zap.Logger) *Ladder {
	if tradeRingCapacity <= 0 {
		tradeRingCapacity = defaultTradeRingCapacity
	}
	return &Ladder{
		Symbol: symbol,
		bids: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.price > b.price
		}),
		asks: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.price < b.price
		}),
		orders: make(map[uuid.UUID]*Order),
		trades: make([]Trade, tradeRingCapacity),
		logger: logger,
	}
}

func (l *Ladder) levels(side Side) *btree.BTreeG[*priceLevel] {
	if side == Buy {
		return l.bids
	}
	return l.asks
}

// bestPrice peeks the extreme key of one side's ladder.
func (l *Ladder) bestPrice(side Side) (Price, bool) {
	lvl, ok := l.levels(side).Min()
	if !ok {
		return 0, false
	}
	return lvl.price, true
}

// BestBid peeks the highest resting bid price.
func (l *Ladder) BestBid() (Price, bool) { return l.bestPrice(Buy) }

// BestAsk peeks the lowest resting ask price.
func (l *Ladder) BestAsk() (Price, bool) { return l.bestPrice(Sell) }

// insertResting appends order.ID to the tail of its (side, price) queue,
// creating the level if absent, and stores the order record. Per §4.B's
// tie-break rule a newly inserted order must join the tail even if an
// identical price level already exists from earlier arrivals.
func (l *Ladder) insertResting(order *Order) {
	levels := l.levels(order.Side)
	key := &priceLevel{price: order.Price}
	lvl, ok := levels.Get(key)
	if !ok {
		lvl = &priceLevel{price: order.Price}
		levels.Set(lvl)
	}
	lvl.queue = append(lvl.queue, order.ID)
	l.orders[order.ID] = order
}

// remove deletes an order by id: pops it out of its level's FIFO queue
// (linear scan, acceptable per §4.A), drops the level if emptied, and
// drops the record. Returns the removed record, or nil if not resting.
func (l *Ladder) remove(orderID uuid.UUID) *Order {
	order, ok := l.orders[orderID]
	if !ok {
		return nil
	}

	levels := l.levels(order.Side)
	key := &priceLevel{price: order.Price}
	lvl, ok := levels.Get(key)
	if !ok {
		corruption("order present in index but its price level is missing")
	}

	idx := -1
	for i, id := range lvl.queue {
		if id == orderID {
			idx = i
			break
		}
	}
	if idx == -1 {
		corruption("order present in index but absent from its level queue")
	}
	lvl.queue = append(lvl.queue[:idx], lvl.queue[idx+1:]...)
	if len(lvl.queue) == 0 {
		levels.Delete(key)
	}

	delete(l.orders, orderID)
	return order
}

// headOf returns the resting order at the front of a level's FIFO queue,
// without removing it.
func (l *Ladder) headOf(lvl *priceLevel) *Order {
	if len(lvl.queue) == 0 {
		corruption("empty price level left in tree")
	}
	head, ok := l.orders[lvl.queue[0]]
	if !ok {
		corruption("queue head id has no order record")
	}
	return head
}

// popHead removes and returns the order at the front of a level's FIFO
// queue, dropping the level from the tree if it becomes empty.
func (l *Ladder) popHead(side Side, lvl *priceLevel) *Order {
	id := lvl.queue[0]
	lvl.queue = lvl.queue[1:]
	order := l.orders[id]
	delete(l.orders, id)
	if len(lvl.queue) == 0 {
		l.levels(side).Delete(&priceLevel{price: lvl.price})
	}
	return order
}

// appendTrade writes into the bounded ring, evicting the oldest entry
// once past capacity.
func (l *Ladder) appendTrade(t Trade) {
	cap := len(l.trades)
	writeAt := (l.tradeHead + l.tradeLen) % cap
	l.trades[writeAt] = t
	if l.tradeLen < cap {
		l.tradeLen++
	} else {
		l.tradeHead = (l.tradeHead + 1) % cap
	}
}

// RecentTrades returns the most recent min(limit, ring length) trades,
// newest first.
func (l *Ladder) RecentTrades(limit int) []Trade {
	if limit <= 0 || l.tradeLen == 0 {
		return nil
	}
	if limit > l.tradeLen {
		limit = l.tradeLen
	}
	out := make([]Trade, limit)
	cap := len(l.trades)
	for i := 0; i < limit; i++ {
		idx := (l.tradeHead + l.tradeLen - 1 - i + cap) % cap
		out[i] = l.trades[idx]
	}
	return out
}

// Depth yields (price, total remaining qty) pairs in traversal order,
// excluding price levels whose total is zero.
func (l *Ladder) Depth(side Side) []Level {
	var out []Level
	l.levels(side).Ascend(nil, func(lvl *priceLevel) bool {
		var total Qty
		for _, id := range lvl.queue {
			order, ok := l.orders[id]
			if !ok {
				corruption("queue id has no order record during depth scan")
			}
			total += order.Quantity
		}
		if total > 0 {
			out = append(out, Level{Price: lvl.price, Qty: total})
		}
		return true
	})
	return out
}

// Order looks up a resting order by id without removing it.
func (l *Ladder) Order(orderID uuid.UUID) (*Order, bool) {
	o, ok := l.orders[orderID]
	return o, ok
}

func newTradeID() uuid.UUID { return uuid.New() }

var nowFunc = time.Now
