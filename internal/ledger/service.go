package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/THXNXKXT/qr-studios-sub002/internal/wallet"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/metrics"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/pagination"
)

// Service exposes the transaction history read path and the admin lifecycle
// for payment-backed transactions.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	CreatePending(ctx context.Context, input CreatePendingInput) (*models.Transaction, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
}

// ListInput carries the caller's pagination request. Cursor is the opaque
// token from a previous page, empty for the first page.
type ListInput struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// ListResult is one page of transaction records, newest first.
type ListResult struct {
	Transactions []models.Transaction
	NextCursor   string
}

// CreatePendingInput describes a payment-backed transaction awaiting gateway
// confirmation. AmountCents is always positive; the stored record carries
// the sign implied by Type.
type CreatePendingInput struct {
	UserID        uuid.UUID
	Type          enums.TransactionType
	AmountCents   int64
	BonusCents    int64
	Points        int64
	PaymentMethod *string
	PaymentRef    *string
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProfileCacheInvalidator drops a user's cached profile snapshot.
type ProfileCacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams lists the dependencies for NewService.
type ServiceParams struct {
	DB      TxRunner
	Repo    Repository
	Wallet  wallet.Repository
	Cache   ProfileCacheInvalidator
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
}

type service struct {
	db      TxRunner
	repo    Repository
	wallet  wallet.Repository
	cache   ProfileCacheInvalidator
	logger  *logger.Logger
	metrics *metrics.LedgerMetrics
}

// NewService validates params and returns a transaction ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, errors.New("ledger service requires a tx runner")
	}
	if params.Repo == nil {
		return nil, errors.New("ledger service requires a repository")
	}
	if params.Wallet == nil {
		return nil, errors.New("ledger service requires a wallet repository")
	}
	if params.Logger == nil {
		return nil, errors.New("ledger service requires a logger")
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		wallet:  params.Wallet,
		cache:   params.Cache,
		logger:  params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		parsed, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		cursor = parsed
	}

	transactions, next, err := s.repo.List(ctx, ListParams{
		UserID: input.UserID,
		Limit:  input.Limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list transactions")
	}

	result := &ListResult{Transactions: transactions}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) CreatePending(ctx context.Context, input CreatePendingInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.BonusCents < 0 || input.Points < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bonus and points must not be negative")
	}
	signed, err := signedAmount(input.Type, input.AmountCents)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ID:            uuid.New(),
		UserID:        input.UserID,
		Type:          input.Type,
		AmountCents:   signed,
		BonusCents:    input.BonusCents,
		Points:        input.Points,
		Status:        enums.TransactionStatusPending,
		PaymentMethod: input.PaymentMethod,
		PaymentRef:    input.PaymentRef,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create transaction")
	}

	if s.metrics != nil {
		s.metrics.IncOperation("transaction_pending")
	}
	return txn, nil
}

// Complete flips a PENDING record to COMPLETED and applies its balance
// effect in the same transaction. A debit that the balance cannot cover
// rolls the whole thing back, leaving the record PENDING.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var completed *models.Transaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.TransitionStatus(ctx, id, enums.TransactionStatusCompleted); err != nil {
			return err
		}

		walletRepo := s.wallet.WithTx(tx)
		switch {
		case txn.AmountCents > 0:
			if _, err := walletRepo.Credit(ctx, txn.UserID, txn.AmountCents+txn.BonusCents); err != nil {
				return err
			}
		case txn.AmountCents < 0:
			if _, err := walletRepo.Debit(ctx, txn.UserID, -txn.AmountCents); err != nil {
				return err
			}
		}
		if txn.Points > 0 {
			if _, err := walletRepo.CreditPoints(ctx, txn.UserID, txn.Points); err != nil {
				return err
			}
		}

		txn.Status = enums.TransactionStatusCompleted
		completed = txn
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "complete")
	}

	s.invalidateProfile(ctx, completed.UserID)
	if s.metrics != nil {
		s.metrics.IncOperation("transaction_complete")
	}
	return completed, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "cancel")
	}
	if err := s.repo.TransitionStatus(ctx, id, enums.TransactionStatusCancelled); err != nil {
		return nil, s.mapError(err, "cancel")
	}
	txn.Status = enums.TransactionStatusCancelled

	if s.metrics != nil {
		s.metrics.IncOperation("transaction_cancel")
	}
	return txn, nil
}

func (s *service) invalidateProfile(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Error(s.logger.WithUserID(ctx, userID.String()), "invalidate profile cache", err)
	}
}

func (s *service) mapError(err error, op string) error {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	case errors.Is(err, ErrTransactionFinal):
		if s.metrics != nil {
			s.metrics.IncRejection(op, "already_final")
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "transaction already finalized")
	case errors.Is(err, wallet.ErrAccountNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	case errors.Is(err, wallet.ErrInsufficientFunds):
		if s.metrics != nil {
			s.metrics.IncRejection(op, "insufficient_funds")
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "balance cannot cover this transaction")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transaction update failed")
	}
}

func signedAmount(t enums.TransactionType, amount int64) (int64, error) {
	switch t {
	case enums.TransactionTypeTopup, enums.TransactionTypeRefund, enums.TransactionTypeBonus:
		return amount, nil
	case enums.TransactionTypePurchase:
		return -amount, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unsupported transaction type")
	}
}
