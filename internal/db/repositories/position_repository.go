package repositories

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nortvale/matchcore/internal/core/matching"
	"github.com/nortvale/matchcore/internal/db/models"
	"github.com/nortvale/matchcore/internal/positions"
)

// PositionRepository persists one row per (user, symbol) position, so a
// restart can hydrate the position store by direct insertion per §6.3.
type PositionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPositionRepository builds a PositionRepository.
func NewPositionRepository(db *gorm.DB, logger *zap.Logger) *PositionRepository {
	return &PositionRepository{db: db, logger: logger}
}

// Upsert writes the current state of one position, or deletes the row if
// p is nil (the leg that applied closed the position out).
func (r *PositionRepository) Upsert(ctx context.Context, user, symbol string, p *positions.Position) error {
	if p == nil {
		return r.db.WithContext(ctx).
			Where("user_id = ? AND symbol = ?", user, symbol).
			Delete(&models.Position{}).Error
	}
	row := models.Position{
		UserID:       p.UserID,
		Symbol:       p.Symbol,
		Quantity:     p.Quantity,
		AveragePrice: int64(p.AveragePrice),
		UpdatedAt:    p.UpdatedAt,
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

// ListAll returns every persisted position, for startup hydration of the
// in-memory position store.
func (r *PositionRepository) ListAll(ctx context.Context) ([]positions.Position, error) {
	var rows []models.Position
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		r.logger.Error("failed to list positions", zap.Error(err))
		return nil, err
	}

	out := make([]positions.Position, 0, len(rows))
	for _, row := range rows {
		out = append(out, positions.Position{
			UserID:       row.UserID,
			Symbol:       row.Symbol,
			Quantity:     row.Quantity,
			AveragePrice: matching.Price(row.AveragePrice),
			UpdatedAt:    row.UpdatedAt,
		})
	}
	return out, nil
}
