package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/pagination"
)

var (
	// ErrTransactionNotFound signals the transaction row does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionFinal signals the row already reached a terminal status.
	ErrTransactionFinal = errors.New("transaction already finalized")
)

// Repository manages persistence for transaction records. Rows are append
// only; the single permitted mutation is the status transition out of PENDING.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	CreateInTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, params ListParams) ([]models.Transaction, *pagination.Cursor, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to enums.TransactionStatus) error
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error)
	AggregateCompletedPurchases(ctx context.Context, userID uuid.UUID) (OrderAggregates, error)
}

// OrderAggregates summarizes a user's completed purchases for the profile
// read path.
type OrderAggregates struct {
	OrdersCount     int64
	TotalSpentCents int64
}

// ListParams scopes a page of transaction records to one user.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// CreateInTx appends a record inside the caller's transaction. The wallet and
// reward services use this to keep the history append atomic with the
// balance mutation it describes.
func (r *repository) CreateInTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	return r.WithTx(tx).Create(ctx, txn)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Transaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var transactions []models.Transaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&transactions).Error; err != nil {
		return nil, nil, err
	}

	if len(transactions) > normalized {
		next := transactions[normalized]
		transactions = transactions[:normalized]
		return transactions, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return transactions, nil, nil
}

// TransitionStatus moves a PENDING row to a terminal status. The predicate
// runs inside the UPDATE; zero rows affected triggers a follow-up read to
// tell a missing row apart from one that is already terminal.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, to enums.TransactionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		UpdateColumn("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrTransactionNotFound
	}
	return ErrTransactionFinal
}

func (r *repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.TransactionStatusPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *repository) AggregateCompletedPurchases(ctx context.Context, userID uuid.UUID) (OrderAggregates, error) {
	var row struct {
		OrdersCount     int64
		TotalSpentCents int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS orders_count, COALESCE(SUM(-amount_cents), 0) AS total_spent_cents").
		Where("user_id = ? AND type = ? AND status = ?",
			userID, enums.TransactionTypePurchase, enums.TransactionStatusCompleted).
		Scan(&row).Error
	if err != nil {
		return OrderAggregates{}, err
	}
	return OrderAggregates{
		OrdersCount:     row.OrdersCount,
		TotalSpentCents: row.TotalSpentCents,
	}, nil
}
