package domain

import "time"

// Tier is loyalty reference data. A user belongs to the highest tier whose
// MinAmount does not exceed their lifetime spend.
type Tier struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Rate      int       `gorm:"not null" json:"rate"`
	MinAmount int64     `gorm:"not null;index" json:"min_amount"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Tier) TableName() string { return "tiers" }
