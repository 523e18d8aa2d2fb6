package models

import "time"

// Position is the durable mirror of one positions.Position, written by
// the HTTP layer so the startup bootstrap can reload it by direct
// insertion into the position store, per §6.3.
type Position struct {
	UserID       string `gorm:"primaryKey;type:varchar(64)"`
	Symbol       string `gorm:"primaryKey;type:varchar(20)"`
	Quantity     int64
	AveragePrice int64
	UpdatedAt    time.Time
}

// TableName returns the table name for the Position model.
func (Position) TableName() string { return "positions" }
