// Package repositories implements the persistence adapter contract of
// §6.3: plain gorm CRUD plus the hydration query the core's bootstrap
// needs to replay open orders into each ladder in created_at order.
package repositories

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nortvale/matchcore/internal/core/matching"
	"github.com/nortvale/matchcore/internal/db/models"
)

// OrderRepository persists matching.Order rows.
type OrderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderRepository builds an OrderRepository.
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

func toRow(o matching.Order) models.Order {
	return models.Order{
		ID:        o.ID.String(),
		UserID:    o.UserID,
		Symbol:    o.Symbol,
		Side:      o.Side.String(),
		Type:      o.Type.String(),
		Price:     o.Price,
		Quantity:  uint64(o.Quantity),
		Original:  uint64(o.Original),
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt,
	}
}

// Upsert writes the current state of order, used after every submit and
// cancel the HTTP layer drives.
func (r *OrderRepository) Upsert(ctx context.Context, o matching.Order) error {
	row := toRow(o)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		r.logger.Error("failed to upsert order", zap.Error(err), zap.String("order_id", row.ID))
		return err
	}
	return nil
}

// orderRowToOrder converts a hydration row into a matching.Order,
// requiring a positive remaining quantity: a fully filled order has
// nothing left to rest and is not part of hydration. Named to match the
// distinction original_source/src/db drew between hydration and display
// conversions.
func orderRowToOrder(row models.Order) (matching.Order, error) {
	if row.Quantity == 0 {
		return matching.Order{}, errors.New("order has zero remaining quantity, not eligible for hydration")
	}
	return rowToOrder(row), nil
}

// orderRowToOrderDisplay allows a zero-quantity (filled) row through,
// for GET-by-id style display where a terminal order is still viewable.
func orderRowToOrderDisplay(row models.Order) matching.Order {
	return rowToOrder(row)
}

func rowToOrder(row models.Order) matching.Order {
	o := matching.Order{
		ID:       parseUUID(row.ID),
		UserID:   row.UserID,
		Symbol:   row.Symbol,
		Price:    row.Price,
		Quantity: matching.Qty(row.Quantity),
		Original: matching.Qty(row.Original),
	}
	if row.Side == "Buy" {
		o.Side = matching.Buy
	} else {
		o.Side = matching.Sell
	}
	if row.Type == "Market" {
		o.Type = matching.Market
	} else {
		o.Type = matching.Limit
	}
	switch row.Status {
	case "Filled":
		o.Status = matching.Filled
	case "PartiallyFilled":
		o.Status = matching.PartiallyFilled
	case "Cancelled":
		o.Status = matching.Cancelled
	default:
		o.Status = matching.Pending
	}
	o.CreatedAt = row.CreatedAt
	return o
}

// ListOpenOrdersBySymbol returns every Pending or PartiallyFilled order
// for symbol, ordered by created_at, for bootstrap hydration.
func (r *OrderRepository) ListOpenOrdersBySymbol(ctx context.Context, symbol string) ([]matching.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND status IN ?", symbol, []string{"Pending", "PartiallyFilled"}).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Error("failed to list open orders", zap.Error(err), zap.String("symbol", symbol))
		return nil, err
	}

	orders := make([]matching.Order, 0, len(rows))
	for _, row := range rows {
		o, err := orderRowToOrder(row)
		if err != nil {
			r.logger.Warn("skipping row during hydration", zap.Error(err), zap.String("order_id", row.ID))
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// FindForDisplay loads one order by id regardless of remaining quantity,
// for the GET-order endpoint.
func (r *OrderRepository) FindForDisplay(ctx context.Context, id string) (matching.Order, error) {
	var row models.Order
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return matching.Order{}, err
	}
	return orderRowToOrderDisplay(row), nil
}

// Migrate creates or updates the schema behind the persistence adapter.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.Trade{}, &models.Position{})
}
