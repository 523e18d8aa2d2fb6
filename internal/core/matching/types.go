// Package matching implements the per-symbol limit order book and the
// price-time-priority matching loop. An Engine owns exactly one symbol's
// ladder; the registry package fans requests out across symbols.
package matching

import (
	"time"

	"github.com/google/uuid"
)

// Price is a signed integer in a fixed minor-unit scale (e.g. 1e-8 for the
// default configuration). Quantity is unsigned; a position's signed
// quantity lives in the positions package, not here.
type Price = int64
type Qty = uint64

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// OrderType distinguishes resting Limit orders from immediate-or-drop
// Market orders. No other kinds exist in this engine.
type OrderType int

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Limit {
		return "Limit"
	}
	return "Market"
}

// Status is derived purely from remaining quantity relative to the
// order's original quantity; see Order.deriveStatus.
type Status int

const (
	Pending Status = iota
	PartiallyFilled
	Filled
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	case Cancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Order is a single buy or sell instruction. Quantity is the remaining
// amount; Original is fixed at creation and used only to derive Status.
type Order struct {
	ID        uuid.UUID
	UserID    string
	Symbol    string
	Side      Side
	Type      OrderType
	Price     Price
	Quantity  Qty
	Original  Qty
	Status    Status
	CreatedAt time.Time
}

// deriveStatus recomputes Status from Quantity vs Original, per §8's
// status law: Filled iff remaining is zero, PartiallyFilled iff strictly
// between zero and the original, Pending otherwise.
func (o *Order) deriveStatus() {
	switch {
	case o.Quantity == 0:
		o.Status = Filled
	case o.Quantity < o.Original:
		o.Status = PartiallyFilled
	default:
		o.Status = Pending
	}
}

// Trade is immutable once emitted. Price is always the maker's resting
// price, never the taker's.
type Trade struct {
	ID            uuid.UUID
	Symbol        string
	MakerOrderID  uuid.UUID
	TakerOrderID  uuid.UUID
	MakerUserID   string
	TakerUserID   string
	Price         Price
	Quantity      Qty
	Timestamp     time.Time
}

// Level is one (price, aggregate quantity) pair in a depth snapshot.
type Level struct {
	Price Price
	Qty   Qty
}
