package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/metrics"
)

// Service is the balance ledger: every balance/points mutation in the system
// goes through these four operations, admin edits included; nothing writes
// the account columns directly.
type Service interface {
	Credit(ctx context.Context, input AdjustInput) (*Balances, error)
	Debit(ctx context.Context, input AdjustInput) (*Balances, error)
	CreditPoints(ctx context.Context, input AdjustInput) (*Balances, error)
	DebitPoints(ctx context.Context, input AdjustInput) (*Balances, error)
}

// AdjustInput describes one credit or debit request.
type AdjustInput struct {
	UserID        uuid.UUID
	Amount        int64
	Type          enums.TransactionType
	BonusCents    int64
	PaymentMethod *string
	PaymentRef    *string
}

// TransactionRecorder appends a transaction row inside the caller's storage
// transaction. Satisfied by the ledger repository.
type TransactionRecorder interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error
}

// ProfileCacheInvalidator drops the cached profile snapshot for a user.
type ProfileCacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// TxRunner executes fn inside a storage transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the wallet service dependencies.
type ServiceParams struct {
	DB       TxRunner
	Repo     Repository
	Recorder TransactionRecorder
	Cache    ProfileCacheInvalidator
	Logger   *logger.Logger
	Metrics  *metrics.LedgerMetrics
}

type service struct {
	db       TxRunner
	repo     Repository
	recorder TransactionRecorder
	cache    ProfileCacheInvalidator
	logg     *logger.Logger
	metrics  *metrics.LedgerMetrics
}

// NewService wires a wallet service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet tx runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if params.Recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction recorder required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		recorder: params.Recorder,
		cache:    params.Cache,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

func (s *service) Credit(ctx context.Context, input AdjustInput) (*Balances, error) {
	return s.mutate(ctx, "credit", input, enums.TransactionTypeTopup, func(repo Repository) (Balances, error) {
		return repo.Credit(ctx, input.UserID, input.Amount)
	}, func(txn *models.Transaction) {
		txn.AmountCents = input.Amount
	})
}

func (s *service) Debit(ctx context.Context, input AdjustInput) (*Balances, error) {
	return s.mutate(ctx, "debit", input, enums.TransactionTypePurchase, func(repo Repository) (Balances, error) {
		return repo.Debit(ctx, input.UserID, input.Amount)
	}, func(txn *models.Transaction) {
		txn.AmountCents = -input.Amount
	})
}

func (s *service) CreditPoints(ctx context.Context, input AdjustInput) (*Balances, error) {
	return s.mutate(ctx, "credit_points", input, enums.TransactionTypePointsEarned, func(repo Repository) (Balances, error) {
		return repo.CreditPoints(ctx, input.UserID, input.Amount)
	}, func(txn *models.Transaction) {
		txn.Points = input.Amount
	})
}

func (s *service) DebitPoints(ctx context.Context, input AdjustInput) (*Balances, error) {
	return s.mutate(ctx, "debit_points", input, enums.TransactionTypePointsRedeemed, func(repo Repository) (Balances, error) {
		return repo.DebitPoints(ctx, input.UserID, input.Amount)
	}, func(txn *models.Transaction) {
		txn.Points = -input.Amount
	})
}

// mutate runs one ledger operation and its transaction-record append inside a
// single storage transaction, then invalidates the profile cache. A cache
// failure never fails the mutation: the snapshot simply ages out of its TTL.
func (s *service) mutate(
	ctx context.Context,
	op string,
	input AdjustInput,
	defaultType enums.TransactionType,
	apply func(repo Repository) (Balances, error),
	stamp func(txn *models.Transaction),
) (*Balances, error) {
	started := time.Now()

	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.BonusCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bonus must not be negative")
	}
	txType := input.Type
	if txType == "" {
		txType = defaultType
	}
	if !txType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}

	var snapshot Balances
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		applied, err := apply(repo)
		if err != nil {
			return err
		}
		snapshot = applied

		txn := &models.Transaction{
			UserID:        input.UserID,
			Type:          txType,
			BonusCents:    input.BonusCents,
			Status:        enums.TransactionStatusCompleted,
			PaymentMethod: input.PaymentMethod,
			PaymentRef:    input.PaymentRef,
		}
		stamp(txn)
		return s.recorder.CreateInTx(ctx, tx, txn)
	})
	if err != nil {
		return nil, s.mapError(op, err)
	}

	s.invalidateProfile(ctx, input.UserID)
	if s.metrics != nil {
		s.metrics.IncOperation(op)
		s.metrics.ObserveDuration(op, time.Since(started))
	}
	return &snapshot, nil
}

func (s *service) mapError(op string, err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		s.reject(op, "not_found")
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
	case errors.Is(err, ErrInsufficientFunds):
		s.reject(op, "insufficient_funds")
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientFunds, err, "insufficient funds")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "wallet mutation")
	}
}

func (s *service) reject(op, reason string) {
	if s.metrics != nil {
		s.metrics.IncRejection(op, reason)
	}
}

func (s *service) invalidateProfile(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "invalidate profile cache", err)
	}
}
