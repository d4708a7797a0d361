package models

import (
	"time"

	"github.com/google/uuid"
)

// RewardHistory records one successful spin. RewardID references a catalog
// entry without owning it; catalog rows may be edited or deleted later.
type RewardHistory struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	RewardID   uuid.UUID `gorm:"column:reward_id;type:uuid;not null"`
	CostPoints int64     `gorm:"column:cost_points;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName matches the singular table name created by the migrations.
func (RewardHistory) TableName() string { return "reward_history" }
