package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type UserType string

const (
	UserTypeBuyer  UserType = "BUYER"
	UserTypeSeller UserType = "SELLER"
)

// User is a marketplace account. Points and TierID are written only by the point ledger
// and the loyalty evaluator.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null;uniqueIndex" json:"email"`
	Type      UserType     `gorm:"type:varchar(16);not null" json:"type"`
	Points    int64        `gorm:"not null;default:0" json:"points"`
	TierID    string       `gorm:"type:varchar(64);not null;index" json:"tier_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }
