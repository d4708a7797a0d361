package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
)

// Transaction is an append-only record of one ledger-affecting operation.
// Rows are never mutated after creation except for status transitions out of
// PENDING driven by the payment collaborator.
type Transaction struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Type          enums.TransactionType   `gorm:"column:type;type:transaction_type_enum;not null"`
	AmountCents   int64                   `gorm:"column:amount_cents;not null"`
	BonusCents    int64                   `gorm:"column:bonus_cents;not null;default:0"`
	Points        int64                   `gorm:"column:points;not null;default:0"`
	Status        enums.TransactionStatus `gorm:"column:status;type:transaction_status_enum;not null"`
	PaymentMethod *string                 `gorm:"column:payment_method"`
	PaymentRef    *string                 `gorm:"column:payment_ref"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
