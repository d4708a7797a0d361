package models

import (
	"time"

	"github.com/google/uuid"
)

// Account holds the authoritative balance and loyalty points for one user.
// Balance and points are mutated only through the wallet repository's
// conditional writes; no other component updates these columns.
type Account struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	AvatarURL    *string   `gorm:"column:avatar_url"`
	BalanceCents int64     `gorm:"column:balance_cents;not null;default:0"`
	Points       int64     `gorm:"column:points;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
