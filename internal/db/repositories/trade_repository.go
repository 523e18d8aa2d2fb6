package repositories

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nortvale/matchcore/internal/core/matching"
	"github.com/nortvale/matchcore/internal/db/models"
)

// TradeRepository persists the immutable trade ledger. Trades are
// append-only, per §3's "never mutated" lifecycle.
type TradeRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTradeRepository builds a TradeRepository.
func NewTradeRepository(db *gorm.DB, logger *zap.Logger) *TradeRepository {
	return &TradeRepository{db: db, logger: logger}
}

// Create appends one executed trade to the ledger.
func (r *TradeRepository) Create(ctx context.Context, t matching.Trade) error {
	row := models.Trade{
		ID:           t.ID.String(),
		Symbol:       t.Symbol,
		MakerOrderID: t.MakerOrderID.String(),
		TakerOrderID: t.TakerOrderID.String(),
		MakerUserID:  t.MakerUserID,
		TakerUserID:  t.TakerUserID,
		Price:        t.Price,
		Quantity:     uint64(t.Quantity),
		ExecutedAt:   t.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.logger.Error("failed to record trade", zap.Error(err), zap.String("trade_id", row.ID))
		return err
	}
	return nil
}

// ListBySymbol returns up to limit trades for symbol, newest first.
func (r *TradeRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]matching.Trade, error) {
	var rows []models.Trade
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("executed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	trades := make([]matching.Trade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, matching.Trade{
			ID:           parseUUID(row.ID),
			Symbol:       row.Symbol,
			MakerOrderID: parseUUID(row.MakerOrderID),
			TakerOrderID: parseUUID(row.TakerOrderID),
			MakerUserID:  row.MakerUserID,
			TakerUserID:  row.TakerUserID,
			Price:        row.Price,
			Quantity:     matching.Qty(row.Quantity),
			Timestamp:    row.ExecutedAt,
		})
	}
	return trades, nil
}
