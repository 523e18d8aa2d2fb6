package models

import "time"

// Trade is the durable record of one executed trade leg, grounded on the
// teacher's db/models/trade.go shape but carrying both maker and taker
// identities per §3 instead of a single order/counterparty pair.
type Trade struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Symbol       string `gorm:"type:varchar(20);index"`
	MakerOrderID string `gorm:"type:varchar(36);index"`
	TakerOrderID string `gorm:"type:varchar(36);index"`
	MakerUserID  string `gorm:"type:varchar(64)"`
	TakerUserID  string `gorm:"type:varchar(64)"`
	Price        int64
	Quantity     uint64
	ExecutedAt   time.Time `gorm:"index"`
}

// TableName returns the table name for the Trade model.
func (Trade) TableName() string { return "trades" }
