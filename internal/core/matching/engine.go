package matching

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine owns one symbol's Ladder and runs the price-time matching loop
// against it. Submit and Cancel take the ladder's writer lock so that no
// other goroutine observes the ladder between the first trade and the
// terminal state of one call, per §5's single-writer/multi-reader policy.
type Engine struct {
	ladder *Ladder
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewEngine creates an Engine for one symbol.
func NewEngine(symbol string, tradeRingCapacity int, logger *zap.Logger) *Engine {
	return &Engine{
		ladder: NewLadder(symbol, tradeRingCapacity, logger),
		logger: logger,
	}
}

// Symbol returns the normalized symbol this Engine's ladder was created
// for.
func (e *Engine) Symbol() string {
	return e.ladder.Symbol
}

func opposite(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}

// crosses reports whether the incoming Limit order's price crosses the
// given resting level. Market orders are never evaluated here: the
// caller skips this check for Market and relies solely on liquidity
// availability to end the loop.
func crosses(side Side, price Price, lvlPrice Price) bool {
	if side == Buy {
		return price >= lvlPrice
	}
	return price <= lvlPrice
}

// Submit runs one order through the matching loop and either rests the
// remainder (Limit) or drops it (Market). It is atomic with respect to
// the ladder: callers never observe a partial match.
func (e *Engine) Submit(user string, price Price, qty Qty, side Side, kind OrderType) (Order, []Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()

	incoming := &Order{
		ID:        uuid.New(),
		UserID:    user,
		Symbol:    e.ladder.Symbol,
		Side:      side,
		Type:      kind,
		Price:     price,
		Quantity:  qty,
		Original:  qty,
		Status:    Pending,
		CreatedAt: nowFunc().UTC(),
	}

	oppSide := opposite(side)
	var trades []Trade

	for incoming.Quantity > 0 {
		lvl, ok := e.ladder.levels(oppSide).Min()
		if !ok {
			break
		}
		if kind == Limit && !crosses(side, price, lvl.price) {
			break
		}

		maker := e.ladder.headOf(lvl)
		m := minQty(incoming.Quantity, maker.Quantity)

		trade := Trade{
			ID:        newTradeID(),
			Symbol:    e.ladder.Symbol,
			Price:     lvl.price,
			Quantity:  m,
			Timestamp: nowFunc().UTC(),
		}
		trade.TakerOrderID, trade.TakerUserID = incoming.ID, incoming.UserID
		trade.MakerOrderID, trade.MakerUserID = maker.ID, maker.UserID

		incoming.Quantity -= m
		maker.Quantity -= m
		incoming.deriveStatus()
		maker.deriveStatus()

		e.ladder.appendTrade(trade)
		trades = append(trades, trade)

		if maker.Quantity == 0 {
			e.ladder.popHead(oppSide, lvl)
		}
	}

	if kind == Limit && incoming.Quantity > 0 {
		e.ladder.insertResting(incoming)
	}
	// Market remainders are dropped: never rest, per §4.B.

	e.logger.Debug("order submitted",
		zap.String("symbol", e.ladder.Symbol),
		zap.String("order_id", incoming.ID.String()),
		zap.String("side", side.String()),
		zap.String("type", kind.String()),
		zap.Uint64("remaining", incoming.Quantity),
		zap.String("status", incoming.Status.String()),
		zap.Int("trades", len(trades)))

	return *incoming, trades
}

// Cancel removes a resting order, enforcing ownership.
func (e *Engine) Cancel(orderID uuid.UUID, actor string) (Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.ladder.Order(orderID)
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if order.UserID != actor {
		return Order{}, ErrForbidden
	}

	removed := e.ladder.remove(orderID)
	removed.Status = Cancelled
	e.logger.Debug("order cancelled", zap.String("symbol", e.ladder.Symbol), zap.String("order_id", orderID.String()))
	return *removed, nil
}

// GetOrder returns a resting order if the actor owns it.
func (e *Engine) GetOrder(orderID uuid.UUID, actor string) (Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	order, ok := e.ladder.Order(orderID)
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if order.UserID != actor {
		return Order{}, ErrForbidden
	}
	return *order, nil
}

// Depth returns (bids, asks) in traversal order.
func (e *Engine) Depth() (bids, asks []Level) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ladder.Depth(Buy), e.ladder.Depth(Sell)
}

// RecentTrades returns up to limit trades, newest first.
func (e *Engine) RecentTrades(limit int) []Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ladder.RecentTrades(limit)
}

// Restore inserts an order that survived a restart without attempting to
// match it, per §6.3's hydration contract. Callers must present orders
// for one symbol in created_at order.
func (e *Engine) Restore(order Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o := order
	e.ladder.insertResting(&o)
}

func minQty(a, b Qty) Qty {
	if a < b {
		return a
	}
	return b
}
