package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/analytics"
	"github.com/nortvale/matchcore/internal/audit"
	"github.com/nortvale/matchcore/internal/core/matching"
	"github.com/nortvale/matchcore/internal/db"
	"github.com/nortvale/matchcore/internal/db/repositories"
	"github.com/nortvale/matchcore/internal/eventbus"
	"github.com/nortvale/matchcore/internal/metrics"
	"github.com/nortvale/matchcore/internal/positions"
	"github.com/nortvale/matchcore/internal/registry"
)

// Persistence bundles the repositories and circuit-breaker-guarded
// Writer the HTTP layer uses to durably record orders/trades/positions
// after a successful submit/cancel, per §6.3. Nil when no database is
// configured: the core still functions purely in-memory.
type Persistence struct {
	Writer    *db.Writer
	Orders    *repositories.OrderRepository
	Trades    *repositories.TradeRepository
	Positions *repositories.PositionRepository
}

// maxTradesForStats bounds how far back GetStats looks into a symbol's
// trade ring; it is sized above the default ring capacity so "all
// available trades" and "this many" agree.
const maxTradesForStats = 10000

// Handlers holds every dependency the REST endpoints drive: the symbol
// registry, position store, event bus, metrics, and (optionally) the
// audit publisher.
type Handlers struct {
	registry    *registry.Registry
	positions   *positions.Store
	bus         *eventbus.Bus
	metrics     *metrics.Metrics
	audit       *audit.Publisher
	persistence *Persistence
	logger      *zap.Logger
}

// NewHandlers builds a Handlers bundle. auditPub and persistence may be
// nil when no NATS sink or database is configured.
func NewHandlers(reg *registry.Registry, posStore *positions.Store, bus *eventbus.Bus, m *metrics.Metrics, auditPub *audit.Publisher, persistence *Persistence, logger *zap.Logger) *Handlers {
	return &Handlers{registry: reg, positions: posStore, bus: bus, metrics: m, audit: auditPub, persistence: persistence, logger: logger}
}

func toOrderResponse(o matching.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID.String(),
		UserID:           o.UserID,
		Symbol:           o.Symbol,
		Side:             o.Side.String(),
		Type:             o.Type.String(),
		Price:            o.Price,
		Quantity:         o.Quantity,
		OriginalQuantity: o.Original,
		Status:           o.Status.String(),
		CreatedAt:        o.CreatedAt.Format(time.RFC3339Nano),
	}
}

func toTradeResponse(t matching.Trade) TradeResponse {
	return TradeResponse{
		ID:           t.ID.String(),
		Symbol:       t.Symbol,
		MakerOrderID: t.MakerOrderID.String(),
		TakerOrderID: t.TakerOrderID.String(),
		Price:        t.Price,
		Quantity:     t.Quantity,
		Timestamp:    t.Timestamp.Format(time.RFC3339Nano),
	}
}

func parseSide(s string) matching.Side {
	if s == "sell" {
		return matching.Sell
	}
	return matching.Buy
}

func parseOrderType(s string) matching.OrderType {
	if s == "market" {
		return matching.Market
	}
	return matching.Limit
}

func errStatus(err error) int {
	switch err {
	case registry.ErrSymbolNotFound:
		return http.StatusNotFound
	case matching.ErrOrderNotFound:
		return http.StatusNotFound
	case matching.ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// SubmitOrder handles POST /symbols/:symbol/orders.
func (h *Handlers) SubmitOrder(c *gin.Context) {
	engine, err := h.registry.Lookup(c.Param("symbol"))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	var req SubmitOrderRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}
	if valErr := validate.Struct(req); valErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
		return
	}

	userID := c.GetString("user_id")
	symbol := engine.Symbol()
	side := parseSide(req.Side)
	kind := parseOrderType(req.Type)

	start := time.Now()
	order, trades := engine.Submit(userID, req.Price, req.Quantity, side, kind)
	noLiquidity := kind == matching.Market && len(trades) == 0
	if h.metrics != nil {
		h.metrics.OrdersProcessed.WithLabelValues(symbol, req.Side).Inc()
		h.metrics.MatchingLatency.WithLabelValues(symbol).Observe(time.Since(start).Seconds())
		if noLiquidity {
			h.metrics.NoLiquidityTotal.WithLabelValues(symbol).Inc()
		}
	}

	tradeResponses := make([]TradeResponse, 0, len(trades))
	for _, t := range trades {
		tradeResponses = append(tradeResponses, toTradeResponse(t))

		takerPos := h.positions.ApplyLeg(t.TakerUserID, symbol, side, t.Price, t.Quantity)
		makerPos := h.positions.ApplyLeg(t.MakerUserID, symbol, opposite(side), t.Price, t.Quantity)

		if h.metrics != nil {
			h.metrics.TradesExecuted.WithLabelValues(symbol).Inc()
		}
		if h.audit != nil {
			h.audit.PublishTrade(symbol, t)
		}
		h.persistTrade(c, t, t.TakerUserID, symbol, takerPos)
		h.persistPosition(c, t.MakerUserID, symbol, makerPos)
	}

	h.persistOrder(c, order)

	bids, asks := engine.Depth()
	h.bus.PublishMatch(symbol, trades, bids, asks)
	h.recordDepth(symbol, bids, asks)

	c.JSON(http.StatusCreated, SubmitOrderResponse{Order: toOrderResponse(order), Trades: tradeResponses, NoLiquidity: noLiquidity})
}

// persistOrder durably upserts the order's resting/terminal state. A nil
// Persistence bundle (no database configured) is a no-op.
func (h *Handlers) persistOrder(c *gin.Context, order matching.Order) {
	if h.persistence == nil {
		return
	}
	ctx := c.Request.Context()
	h.persistence.Writer.Do("upsert_order", func() error {
		return h.persistence.Orders.Upsert(ctx, order)
	})
}

// persistTrade durably records one executed trade and its taker-side
// position snapshot.
func (h *Handlers) persistTrade(c *gin.Context, trade matching.Trade, userID, symbol string, pos *positions.Position) {
	if h.persistence == nil {
		return
	}
	ctx := c.Request.Context()
	h.persistence.Writer.Do("create_trade", func() error {
		return h.persistence.Trades.Create(ctx, trade)
	})
	h.persistPosition(c, userID, symbol, pos)
}

// persistPosition durably upserts one user's position for symbol. pos is
// nil when the leg closed the position out exactly, which deletes the
// persisted row.
func (h *Handlers) persistPosition(c *gin.Context, userID, symbol string, pos *positions.Position) {
	if h.persistence == nil {
		return
	}
	ctx := c.Request.Context()
	h.persistence.Writer.Do("upsert_position", func() error {
		return h.persistence.Positions.Upsert(ctx, userID, symbol, pos)
	})
}

func opposite(s matching.Side) matching.Side {
	if s == matching.Buy {
		return matching.Sell
	}
	return matching.Buy
}

// GetOrder handles GET /symbols/:symbol/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	engine, err := h.registry.Lookup(c.Param("symbol"))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	orderID, parseErr := uuid.Parse(c.Param("id"))
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	actor := c.GetString("user_id")
	order, getErr := engine.GetOrder(orderID, actor)
	if getErr != nil {
		if getErr == matching.ErrOrderNotFound && h.persistence != nil {
			if displayOrder, found := h.findFilledOrderForDisplay(c, orderID, actor); found {
				c.JSON(http.StatusOK, toOrderResponse(displayOrder))
				return
			}
		}
		c.JSON(errStatus(getErr), gin.H{"error": getErr.Error()})
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// findFilledOrderForDisplay falls back to the persistence adapter for an
// order no longer resting in the ladder (filled or cancelled), per
// original_source's display-vs-hydration distinction: such an order is
// still viewable by its owner even though matching has forgotten it.
func (h *Handlers) findFilledOrderForDisplay(c *gin.Context, orderID uuid.UUID, actor string) (matching.Order, bool) {
	order, err := h.persistence.Orders.FindForDisplay(c.Request.Context(), orderID.String())
	if err != nil || order.UserID != actor {
		return matching.Order{}, false
	}
	return order, true
}

// CancelOrder handles DELETE /symbols/:symbol/orders/:id.
func (h *Handlers) CancelOrder(c *gin.Context) {
	engine, err := h.registry.Lookup(c.Param("symbol"))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	orderID, parseErr := uuid.Parse(c.Param("id"))
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, cancelErr := engine.Cancel(orderID, c.GetString("user_id"))
	if cancelErr != nil {
		c.JSON(errStatus(cancelErr), gin.H{"error": cancelErr.Error()})
		return
	}

	h.persistOrder(c, order)

	symbol := engine.Symbol()
	bids, asks := engine.Depth()
	h.bus.PublishDepth(symbol, bids, asks)
	h.recordDepth(symbol, bids, asks)

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// recordDepth sets the active-book-depth gauge to the number of distinct
// resting price levels per side, after a mutation has settled.
func (h *Handlers) recordDepth(symbol string, bids, asks []matching.Level) {
	if h.metrics == nil {
		return
	}
	h.metrics.ActiveBookDepth.WithLabelValues(symbol, "buy").Set(float64(len(bids)))
	h.metrics.ActiveBookDepth.WithLabelValues(symbol, "sell").Set(float64(len(asks)))
}

// GetDepth handles GET /symbols/:symbol/depth.
func (h *Handlers) GetDepth(c *gin.Context) {
	engine, err := h.registry.Lookup(c.Param("symbol"))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	bids, asks := engine.Depth()
	resp := DepthResponse{Symbol: engine.Symbol()}
	for _, lvl := range bids {
		resp.Bids = append(resp.Bids, DepthLevel{Price: lvl.Price, Quantity: lvl.Qty})
	}
	for _, lvl := range asks {
		resp.Asks = append(resp.Asks, DepthLevel{Price: lvl.Price, Quantity: lvl.Qty})
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecentTrades handles GET /symbols/:symbol/trades.
func (h *Handlers) GetRecentTrades(c *gin.Context) {
	engine, err := h.registry.Lookup(c.Param("symbol"))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			limit = n
		}
	}

	trades := engine.RecentTrades(limit)
	out := make([]TradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

// GetStats handles GET /symbols/:symbol/stats.
func (h *Handlers) GetStats(c *gin.Context) {
	engine, err := h.registry.Lookup(c.Param("symbol"))
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	window := 0
	if raw := c.Query("sma_window"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			window = n
		}
	}

	trades := engine.RecentTrades(maxTradesForStats)
	c.JSON(http.StatusOK, analytics.Compute(engine.Symbol(), trades, window))
}

// GetPositions handles GET /positions.
func (h *Handlers) GetPositions(c *gin.Context) {
	userID := c.GetString("user_id")
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))

	snaps := h.positions.Positions(userID, symbol)
	out := make([]PositionResponse, 0, len(snaps))
	for _, p := range snaps {
		out = append(out, PositionResponse{
			Symbol:       p.Symbol,
			Quantity:     p.Quantity,
			AveragePrice: p.AveragePrice,
			UpdatedAt:    p.UpdatedAt.Format(time.RFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, out)
}
