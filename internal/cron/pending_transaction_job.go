package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

const (
	defaultPendingTTL       = 24 * time.Hour
	pendingExpireBatchLimit = 500
)

type pendingTransactionRepo interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to enums.TransactionStatus) error
}

// PendingTransactionJobParams configure the stale-transaction expirer.
type PendingTransactionJobParams struct {
	Logger     *logger.Logger
	Repository pendingTransactionRepo
	TTL        time.Duration
}

// NewPendingTransactionJob builds the job that fails PENDING transactions
// whose payment never confirmed within the TTL.
func NewPendingTransactionJob(params PendingTransactionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &pendingTransactionJob{
		logg: params.Logger,
		repo: params.Repository,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

type pendingTransactionJob struct {
	logg *logger.Logger
	repo pendingTransactionRepo
	ttl  time.Duration
	now  func() time.Time
}

func (j *pendingTransactionJob) Name() string { return "pending-transaction-expire" }

// Run fails each stale row independently: one row losing its PENDING status
// to a concurrent completion must not stop the rest of the batch.
func (j *pendingTransactionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.repo.ListPendingBefore(ctx, cutoff, pendingExpireBatchLimit)
	if err != nil {
		return fmt.Errorf("query stale pending transactions: %w", err)
	}

	var errs error
	expired := 0
	for _, txn := range stale {
		if err := j.repo.TransitionStatus(ctx, txn.ID, enums.TransactionStatusFailed); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire transaction %s: %w", txn.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_found":   len(stale),
		"rows_expired": expired,
	})
	j.logg.Info(logCtx, "pending transaction expiry complete")
	return errs
}
