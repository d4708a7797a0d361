package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
)

// Reward is one catalog entry of the lucky wheel. Position fixes the stable
// draw order the distributor walks; probability is a weight in [0,1] and the
// catalog does not force active weights to sum to 1.
type Reward struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;type:text;not null"`
	Type        enums.RewardType `gorm:"column:type;type:reward_type_enum;not null"`
	ValueCents  int64            `gorm:"column:value_cents;not null"`
	Probability float64          `gorm:"column:probability;not null"`
	Color       string           `gorm:"column:color;type:text;not null"`
	Position    int              `gorm:"column:position;not null;default:0"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
