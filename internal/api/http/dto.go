package http

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SubmitOrderRequest is the validated body of POST /symbols/:symbol/orders.
type SubmitOrderRequest struct {
	Side     string `json:"side" validate:"required,oneof=buy sell"`
	Type     string `json:"type" validate:"required,oneof=limit market"`
	Price    int64  `json:"price" validate:"gte=0"`
	Quantity uint64 `json:"quantity" validate:"required,gt=0"`
}

// OrderResponse is the wire shape for one order, used by both the submit
// response and GET /orders/:id.
type OrderResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Symbol           string `json:"symbol"`
	Side             string `json:"side"`
	Type             string `json:"type"`
	Price            int64  `json:"price"`
	Quantity         uint64 `json:"quantity"`
	OriginalQuantity uint64 `json:"original_quantity"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

// TradeResponse is the wire shape for one executed trade.
type TradeResponse struct {
	ID           string `json:"id"`
	Symbol       string `json:"symbol"`
	MakerOrderID string `json:"maker_order_id"`
	TakerOrderID string `json:"taker_order_id"`
	Price        int64  `json:"price"`
	Quantity     uint64 `json:"quantity"`
	Timestamp    string `json:"timestamp"`
}

// SubmitOrderResponse reports the resting/terminal state of a just
// submitted order plus any trades it immediately produced. NoLiquidity
// is set when a Market order matched against zero resting liquidity:
// per §7 this is a signal classified by the HTTP layer, not a hard
// error raised by the core.
type SubmitOrderResponse struct {
	Order       OrderResponse   `json:"order"`
	Trades      []TradeResponse `json:"trades"`
	NoLiquidity bool            `json:"no_liquidity,omitempty"`
}

// DepthLevel is one price level of a depth snapshot.
type DepthLevel struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// DepthResponse is the wire shape for GET /symbols/:symbol/depth.
type DepthResponse struct {
	Symbol string       `json:"symbol"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
}

// PositionResponse is the wire shape for one user/symbol position.
type PositionResponse struct {
	Symbol       string `json:"symbol"`
	Quantity     int64  `json:"quantity"`
	AveragePrice int64  `json:"average_price"`
	UpdatedAt    string `json:"updated_at"`
}
