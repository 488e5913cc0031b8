package db

import "time"

// baselineModel holds one baseline row per symbol. The price is stored as
// text to round-trip decimal values exactly.
type baselineModel struct {
	Symbol        string    `gorm:"primaryKey;size:32"`
	Price         string    `gorm:"not null"`
	EstablishedAt time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

func (baselineModel) TableName() string {
	return "baselines"
}
