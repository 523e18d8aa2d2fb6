// Package models holds the gorm row types behind the persistence adapter
// contract (§6.3): orders, trades, and positions are written after each
// submit/cancel. At restart, open orders and positions are read back to
// hydrate the in-memory core (Engine.Restore, positions.Store.Restore);
// orders also back the GET-order display fallback. Trades are not read
// back during hydration. The core itself never imports this package.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Order mirrors matching.Order plus the bookkeeping fields only storage
// needs (soft delete, row timestamps). Price and Quantity keep the
// core's fixed minor-unit integer scale rather than float64, so hydration
// never reintroduces rounding the matching engine itself avoids.
type Order struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(64);index"`
	Symbol    string `gorm:"type:varchar(20);index:idx_orders_symbol_status"`
	Side      string `gorm:"type:varchar(4)"`
	Type      string `gorm:"type:varchar(10)"`
	Price     int64
	Quantity  uint64
	Original  uint64
	Status    string     `gorm:"type:varchar(20);index:idx_orders_symbol_status"`
	CreatedAt time.Time  `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for the Order model.
func (Order) TableName() string { return "orders" }
