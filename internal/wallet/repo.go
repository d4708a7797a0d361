package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
)

var (
	// ErrAccountNotFound signals the account row does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientFunds signals a debit would drive the value negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Balances is the post-mutation snapshot returned by every wallet write.
type Balances struct {
	BalanceCents int64 `json:"balance_cents"`
	Points       int64 `json:"points"`
}

// Repository exposes the atomic credit/debit primitives over the accounts
// table. Debits are evaluated by the storage layer in a single conditional
// UPDATE; application code never does read-compare-write.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
	Credit(ctx context.Context, userID uuid.UUID, amountCents int64) (Balances, error)
	Debit(ctx context.Context, userID uuid.UUID, amountCents int64) (Balances, error)
	CreditPoints(ctx context.Context, userID uuid.UUID, points int64) (Balances, error)
	DebitPoints(ctx context.Context, userID uuid.UUID, points int64) (Balances, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", userID).
		Updates(map[string]any{"avatar_url": avatarURL, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amountCents int64) (Balances, error) {
	return r.add(ctx, "balance_cents", userID, amountCents)
}

func (r *repository) Debit(ctx context.Context, userID uuid.UUID, amountCents int64) (Balances, error) {
	return r.subtractIfCovered(ctx, "balance_cents", userID, amountCents)
}

func (r *repository) CreditPoints(ctx context.Context, userID uuid.UUID, points int64) (Balances, error) {
	return r.add(ctx, "points", userID, points)
}

func (r *repository) DebitPoints(ctx context.Context, userID uuid.UUID, points int64) (Balances, error) {
	return r.subtractIfCovered(ctx, "points", userID, points)
}

// add increases the named counter unconditionally. Credits cannot fail on a
// ledger invariant, so zero rows affected can only mean a missing account.
func (r *repository) add(ctx context.Context, column string, userID uuid.UUID, amount int64) (Balances, error) {
	var snapshot Balances
	result := r.db.WithContext(ctx).Raw(
		`UPDATE accounts SET `+column+` = `+column+` + ?, updated_at = ? WHERE id = ? RETURNING balance_cents, points`,
		amount, time.Now().UTC(), userID,
	).Scan(&snapshot)
	if result.Error != nil {
		return Balances{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Balances{}, ErrAccountNotFound
	}
	return snapshot, nil
}

// subtractIfCovered decreases the named counter only when the stored value
// already covers the amount. The predicate runs inside the UPDATE itself, so
// concurrent debits against the same account serialize at the storage layer
// and can never drive the value negative. The follow-up read happens only on
// the zero-rows path, to tell a missing account apart from a short balance.
func (r *repository) subtractIfCovered(ctx context.Context, column string, userID uuid.UUID, amount int64) (Balances, error) {
	var snapshot Balances
	result := r.db.WithContext(ctx).Raw(
		`UPDATE accounts SET `+column+` = `+column+` - ?, updated_at = ? WHERE id = ? AND `+column+` >= ? RETURNING balance_cents, points`,
		amount, time.Now().UTC(), userID, amount,
	).Scan(&snapshot)
	if result.Error != nil {
		return Balances{}, result.Error
	}
	if result.RowsAffected > 0 {
		return snapshot, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", userID).
		Count(&count).Error; err != nil {
		return Balances{}, err
	}
	if count == 0 {
		return Balances{}, ErrAccountNotFound
	}
	return Balances{}, ErrInsufficientFunds
}
