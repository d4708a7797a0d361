package rewards

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
)

// Distributor runs the spin: debit the cost, draw a reward, credit its
// payout, and append the history row, all in one storage transaction.
type Distributor interface {
	Spin(ctx context.Context, userID uuid.UUID) (*SpinResult, error)
}

// SpinResult carries the drawn reward and the post-spin balances.
type SpinResult struct {
	Reward       models.Reward
	BalanceCents int64
	Points       int64
	CostPoints   int64
}

// TransactionRecorder appends a transaction row inside the caller's storage
// transaction. Satisfied by the ledger repository.
type TransactionRecorder interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error
}

// TxRunner executes fn inside a storage transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProfileCacheInvalidator drops the cached profile snapshot for a user.
type ProfileCacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// DistributorParams wires the spin dependencies.
type DistributorParams struct {
	DB             TxRunner
	Rewards        Repository
	Wallet         wallet.Repository
	Recorder       TransactionRecorder
	Cache          ProfileCacheInvalidator
	Source         Source
	Logger         *logger.Logger
	Metrics        *metrics.LedgerMetrics
	SpinCostPoints int64
}

type distributor struct {
	db       TxRunner
	rewards  Repository
	wallet   wallet.Repository
	recorder TransactionRecorder
	cache    ProfileCacheInvalidator
	source   Source
	logg     *logger.Logger
	metrics  *metrics.LedgerMetrics
	spinCost int64
}

// NewDistributor validates params and returns a reward distributor.
func NewDistributor(params DistributorParams) (Distributor, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "distributor tx runner required")
	}
	if params.Rewards == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rewards repository required")
	}
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if params.Recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction recorder required")
	}
	if params.Source == nil {
		params.Source = CryptoSource{}
	}
	if params.SpinCostPoints <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "spin cost must be positive")
	}
	return &distributor{
		db:       params.DB,
		rewards:  params.Rewards,
		wallet:   params.Wallet,
		recorder: params.Recorder,
		cache:    params.Cache,
		source:   params.Source,
		logg:     params.Logger,
		metrics:  params.Metrics,
		spinCost: params.SpinCostPoints,
	}, nil
}

// Spin is one atomic unit: if any step after the cost debit fails, the
// rollback refunds the cost with everything else. A player never loses the
// cost without a reward and never gets a reward without paying.
func (d *distributor) Spin(ctx context.Context, userID uuid.UUID) (*SpinResult, error) {
	started := time.Now()
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var result SpinResult
	err := d.db.WithTx(ctx, func(tx *gorm.DB) error {
		walletRepo := d.wallet.WithTx(tx)

		if _, err := walletRepo.DebitPoints(ctx, userID, d.spinCost); err != nil {
			return err
		}

		active, err := d.rewards.WithTx(tx).ListActive(ctx)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return ErrNoSpinnableRewards
		}

		picked, err := Pick(active, d.source)
		if err != nil {
			return err
		}

		txn := &models.Transaction{
			UserID: userID,
			Status: enums.TransactionStatusCompleted,
		}
		var balances wallet.Balances
		switch picked.Type {
		case enums.RewardTypePoints:
			balances, err = walletRepo.CreditPoints(ctx, userID, picked.ValueCents)
			txn.Type = enums.TransactionTypePointsEarned
			txn.Points = picked.ValueCents
		case enums.RewardTypeBalance:
			balances, err = walletRepo.Credit(ctx, userID, picked.ValueCents)
			txn.Type = enums.TransactionTypeBonus
			txn.AmountCents = picked.ValueCents
		default:
			return pkgerrors.New(pkgerrors.CodeInternal, "unknown reward type")
		}
		if err != nil {
			return err
		}

		if err := d.recorder.CreateInTx(ctx, tx, txn); err != nil {
			return err
		}
		entry := &models.RewardHistory{
			ID:         uuid.New(),
			UserID:     userID,
			RewardID:   picked.ID,
			CostPoints: d.spinCost,
			CreatedAt:  time.Now().UTC(),
		}
		if err := d.rewards.WithTx(tx).CreateHistory(ctx, entry); err != nil {
			return err
		}

		result = SpinResult{
			Reward:       *picked,
			BalanceCents: balances.BalanceCents,
			Points:       balances.Points,
			CostPoints:   d.spinCost,
		}
		return nil
	})
	if err != nil {
		return nil, d.mapSpinError(err)
	}

	d.invalidateProfile(ctx, userID)
	if d.metrics != nil {
		d.metrics.IncSpin(string(result.Reward.Type))
		d.metrics.ObserveDuration("spin", time.Since(started))
	}
	return &result, nil
}

func (d *distributor) mapSpinError(err error) error {
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds):
		if d.metrics != nil {
			d.metrics.IncRejection("spin", "insufficient_points")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientFunds, err, "not enough points to spin")
	case errors.Is(err, wallet.ErrAccountNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
	case errors.Is(err, ErrNoSpinnableRewards):
		if d.metrics != nil {
			d.metrics.IncRejection("spin", "no_active_rewards")
		}
		return pkgerrors.Wrap(pkgerrors.CodeNoActiveRewards, err, "no active rewards")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "spin failed")
	}
}

func (d *distributor) invalidateProfile(ctx context.Context, userID uuid.UUID) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Invalidate(ctx, userID); err != nil && d.logg != nil {
		d.logg.Error(d.logg.WithUserID(ctx, userID.String()), "invalidate profile cache", err)
	}
}
