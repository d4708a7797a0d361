package ledger

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/THXNXKXT/qr-studios-sub002/internal/wallet"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/metrics"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r *sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingCache struct {
	invalidated []uuid.UUID
}

func (c *recordingCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func setupLedgerService(t *testing.T) (Service, *gorm.DB, *recordingCache) {
	t.Helper()

	db := setupLedgerTestDB(t)
	accounts := `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  avatar_url TEXT,
  balance_cents INTEGER NOT NULL DEFAULT 0,
  points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(accounts).Error)

	cache := &recordingCache{}
	svc, err := NewService(ServiceParams{
		DB:      &sqliteTxRunner{db: db},
		Repo:    NewRepository(db),
		Wallet:  wallet.NewRepository(db),
		Cache:   cache,
		Logger:  logger.New(logger.Options{ServiceName: "ledger-test", Output: io.Discard}),
		Metrics: metrics.NewLedgerMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return svc, db, cache
}

func seedLedgerAccount(t *testing.T, db *gorm.DB, balanceCents, points int64) uuid.UUID {
	t.Helper()

	account := &models.Account{ID: uuid.New(), BalanceCents: balanceCents, Points: points}
	require.NoError(t, db.Create(account).Error)
	return account.ID
}

func TestServiceCreatePending(t *testing.T) {
	svc, db, _ := setupLedgerService(t)
	userID := seedLedgerAccount(t, db, 0, 0)

	method := "promptpay"
	txn, err := svc.CreatePending(context.Background(), CreatePendingInput{
		UserID:        userID,
		Type:          enums.TransactionTypeTopup,
		AmountCents:   2500,
		BonusCents:    250,
		PaymentMethod: &method,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusPending, txn.Status)
	assert.Equal(t, int64(2500), txn.AmountCents)

	var stored models.Transaction
	require.NoError(t, db.Where("id = ?", txn.ID).First(&stored).Error)
	assert.Equal(t, enums.TransactionStatusPending, stored.Status)
}

func TestServiceCreatePending_signsPurchaseAmount(t *testing.T) {
	svc, db, _ := setupLedgerService(t)
	userID := seedLedgerAccount(t, db, 0, 0)

	txn, err := svc.CreatePending(context.Background(), CreatePendingInput{
		UserID:      userID,
		Type:        enums.TransactionTypePurchase,
		AmountCents: 900,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-900), txn.AmountCents)
}

func TestServiceCreatePending_validation(t *testing.T) {
	svc, _, _ := setupLedgerService(t)

	_, err := svc.CreatePending(context.Background(), CreatePendingInput{
		Type:        enums.TransactionTypeTopup,
		AmountCents: 100,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreatePending(context.Background(), CreatePendingInput{
		UserID:      uuid.New(),
		Type:        enums.TransactionTypePointsEarned,
		AmountCents: 100,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceComplete_creditsTopupWithBonus(t *testing.T) {
	svc, db, cache := setupLedgerService(t)
	userID := seedLedgerAccount(t, db, 100, 0)

	txn, err := svc.CreatePending(context.Background(), CreatePendingInput{
		UserID:      userID,
		Type:        enums.TransactionTypeTopup,
		AmountCents: 2000,
		BonusCents:  200,
		Points:      20,
	})
	require.NoError(t, err)

	completed, err := svc.Complete(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, completed.Status)

	var account models.Account
	require.NoError(t, db.Where("id = ?", userID).First(&account).Error)
	assert.Equal(t, int64(2300), account.BalanceCents)
	assert.Equal(t, int64(20), account.Points)

	require.Len(t, cache.invalidated, 1)
	assert.Equal(t, userID, cache.invalidated[0])
}

func TestServiceComplete_isOneShot(t *testing.T) {
	svc, db, _ := setupLedgerService(t)
	userID := seedLedgerAccount(t, db, 0, 0)

	txn, err := svc.CreatePending(context.Background(), CreatePendingInput{
		UserID:      userID,
		Type:        enums.TransactionTypeTopup,
		AmountCents: 1000,
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), txn.ID)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), txn.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	var account models.Account
	require.NoError(t, db.Where("id = ?", userID).First(&account).Error)
	assert.Equal(t, int64(1000), account.BalanceCents, "replayed completion must not credit twice")
}

func TestServiceComplete_uncoveredPurchaseRollsBack(t *testing.T) {
	svc, db, _ := setupLedgerService(t)
	userID := seedLedgerAccount(t, db, 500, 0)

	txn, err := svc.CreatePending(context.Background(), CreatePendingInput{
		UserID:      userID,
		Type:        enums.TransactionTypePurchase,
		AmountCents: 800,
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), txn.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientFunds, pkgerrors.As(err).Code())

	var stored models.Transaction
	require.NoError(t, db.Where("id = ?", txn.ID).First(&stored).Error)
	assert.Equal(t, enums.TransactionStatusPending, stored.Status, "failed completion leaves the record pending")

	var account models.Account
	require.NoError(t, db.Where("id = ?", userID).First(&account).Error)
	assert.Equal(t, int64(500), account.BalanceCents)
}

func TestServiceCancel(t *testing.T) {
	svc, db, _ := setupLedgerService(t)
	userID := seedLedgerAccount(t, db, 0, 0)

	txn, err := svc.CreatePending(context.Background(), CreatePendingInput{
		UserID:      userID,
		Type:        enums.TransactionTypeTopup,
		AmountCents: 700,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCancelled, cancelled.Status)

	var account models.Account
	require.NoError(t, db.Where("id = ?", userID).First(&account).Error)
	assert.Zero(t, account.BalanceCents, "cancellation never touches the balance")

	_, err = svc.Cancel(context.Background(), txn.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestServiceList_encodesNextCursor(t *testing.T) {
	svc, db, _ := setupLedgerService(t)
	userID := seedLedgerAccount(t, db, 0, 0)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		seedTransaction(t, db, userID, enums.TransactionTypeTopup, int64(100*(i+1)), enums.TransactionStatusCompleted, now.Add(time.Duration(-i)*time.Hour))
	}

	page, err := svc.List(context.Background(), ListInput{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.Equal(t, int64(100), page.Transactions[0].AmountCents)

	rest, err := svc.List(context.Background(), ListInput{UserID: userID, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Transactions, 1)
	assert.Empty(t, rest.NextCursor)

	_, err = svc.List(context.Background(), ListInput{UserID: userID, Cursor: "not-a-cursor"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
