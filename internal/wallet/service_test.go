package wallet

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/metrics"
)

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

type fakeWalletRepo struct {
	Repository

	mu       sync.Mutex
	balance  int64
	points   int64
	missing  bool
	debits   int
	credits  int
}

func (f *fakeWalletRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeWalletRepo) Credit(ctx context.Context, userID uuid.UUID, amountCents int64) (Balances, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing {
		return Balances{}, ErrAccountNotFound
	}
	f.credits++
	f.balance += amountCents
	return Balances{BalanceCents: f.balance, Points: f.points}, nil
}

func (f *fakeWalletRepo) Debit(ctx context.Context, userID uuid.UUID, amountCents int64) (Balances, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing {
		return Balances{}, ErrAccountNotFound
	}
	if f.balance < amountCents {
		return Balances{}, ErrInsufficientFunds
	}
	f.debits++
	f.balance -= amountCents
	return Balances{BalanceCents: f.balance, Points: f.points}, nil
}

func (f *fakeWalletRepo) CreditPoints(ctx context.Context, userID uuid.UUID, points int64) (Balances, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points += points
	return Balances{BalanceCents: f.balance, Points: f.points}, nil
}

func (f *fakeWalletRepo) DebitPoints(ctx context.Context, userID uuid.UUID, points int64) (Balances, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.points < points {
		return Balances{}, ErrInsufficientFunds
	}
	f.points -= points
	return Balances{BalanceCents: f.balance, Points: f.points}, nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	txns []*models.Transaction
	err  error
}

func (f *fakeRecorder) CreateInTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.txns = append(f.txns, txn)
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []uuid.UUID
	err         error
}

func (f *fakeCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "wallet-test", Output: io.Discard})
}

func newWalletService(t *testing.T, repo *fakeWalletRepo, recorder *fakeRecorder, cache *fakeCache) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		DB:       &fakeTxRunner{},
		Repo:     repo,
		Recorder: recorder,
		Cache:    cache,
		Logger:   newTestLogger(),
		Metrics:  metrics.NewLedgerMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return svc
}

func TestServiceCredit_recordsTransactionAndInvalidatesCache(t *testing.T) {
	repo := &fakeWalletRepo{balance: 1000}
	recorder := &fakeRecorder{}
	cache := &fakeCache{}
	svc := newWalletService(t, repo, recorder, cache)
	userID := uuid.New()

	balances, err := svc.Credit(context.Background(), AdjustInput{UserID: userID, Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balances.BalanceCents)

	require.Len(t, recorder.txns, 1)
	txn := recorder.txns[0]
	assert.Equal(t, userID, txn.UserID)
	assert.Equal(t, enums.TransactionTypeTopup, txn.Type)
	assert.Equal(t, int64(500), txn.AmountCents)
	assert.Equal(t, enums.TransactionStatusCompleted, txn.Status)

	require.Len(t, cache.invalidated, 1)
	assert.Equal(t, userID, cache.invalidated[0])
}

func TestServiceDebit_storesNegativeAmount(t *testing.T) {
	repo := &fakeWalletRepo{balance: 1000}
	recorder := &fakeRecorder{}
	svc := newWalletService(t, repo, recorder, &fakeCache{})

	balances, err := svc.Debit(context.Background(), AdjustInput{UserID: uuid.New(), Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, int64(700), balances.BalanceCents)

	require.Len(t, recorder.txns, 1)
	assert.Equal(t, int64(-300), recorder.txns[0].AmountCents)
	assert.Equal(t, enums.TransactionTypePurchase, recorder.txns[0].Type)
}

func TestServiceDebit_insufficientFunds(t *testing.T) {
	repo := &fakeWalletRepo{balance: 100}
	recorder := &fakeRecorder{}
	cache := &fakeCache{}
	svc := newWalletService(t, repo, recorder, cache)

	_, err := svc.Debit(context.Background(), AdjustInput{UserID: uuid.New(), Amount: 200})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientFunds, pkgerrors.As(err).Code())

	assert.Empty(t, recorder.txns, "rejected debit must not append a record")
	assert.Empty(t, cache.invalidated, "rejected debit must not touch the cache")
}

func TestServiceMutate_validation(t *testing.T) {
	svc := newWalletService(t, &fakeWalletRepo{balance: 100}, &fakeRecorder{}, &fakeCache{})

	cases := []struct {
		name  string
		input AdjustInput
	}{
		{"missing user", AdjustInput{Amount: 100}},
		{"zero amount", AdjustInput{UserID: uuid.New()}},
		{"negative amount", AdjustInput{UserID: uuid.New(), Amount: -5}},
		{"negative bonus", AdjustInput{UserID: uuid.New(), Amount: 5, BonusCents: -1}},
		{"bad type", AdjustInput{UserID: uuid.New(), Amount: 5, Type: enums.TransactionType("WEIRD")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Credit(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestServiceCredit_missingAccount(t *testing.T) {
	svc := newWalletService(t, &fakeWalletRepo{missing: true}, &fakeRecorder{}, &fakeCache{})

	_, err := svc.Credit(context.Background(), AdjustInput{UserID: uuid.New(), Amount: 100})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceMutate_cacheFailureDoesNotFailMutation(t *testing.T) {
	repo := &fakeWalletRepo{balance: 100}
	cache := &fakeCache{err: errors.New("redis down")}
	svc := newWalletService(t, repo, &fakeRecorder{}, cache)

	balances, err := svc.Credit(context.Background(), AdjustInput{UserID: uuid.New(), Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(150), balances.BalanceCents)
}

func TestServicePoints_roundTrip(t *testing.T) {
	repo := &fakeWalletRepo{points: 250}
	recorder := &fakeRecorder{}
	svc := newWalletService(t, repo, recorder, &fakeCache{})
	userID := uuid.New()

	balances, err := svc.DebitPoints(context.Background(), AdjustInput{UserID: userID, Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(150), balances.Points)

	balances, err = svc.CreditPoints(context.Background(), AdjustInput{UserID: userID, Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(200), balances.Points)

	require.Len(t, recorder.txns, 2)
	assert.Equal(t, int64(-100), recorder.txns[0].Points)
	assert.Equal(t, enums.TransactionTypePointsRedeemed, recorder.txns[0].Type)
	assert.Equal(t, int64(50), recorder.txns[1].Points)
	assert.Equal(t, enums.TransactionTypePointsEarned, recorder.txns[1].Type)
}

// Many concurrent debits against one account never overdraw it: the repo
// enforces the covered-balance predicate, the service just reports outcomes.
func TestServiceDebit_concurrentNeverOverdraws(t *testing.T) {
	repo := &fakeWalletRepo{balance: 500}
	svc := newWalletService(t, repo, &fakeRecorder{}, &fakeCache{})
	userID := uuid.New()

	const workers = 20
	var wg sync.WaitGroup
	rejected := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Debit(context.Background(), AdjustInput{UserID: userID, Amount: 100})
			rejected[i] = err
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range rejected {
		if err != nil {
			assert.Equal(t, pkgerrors.CodeInsufficientFunds, pkgerrors.As(err).Code())
			failures++
		}
	}
	assert.Equal(t, workers-5, failures, "exactly five debits fit the starting balance")
	assert.Equal(t, int64(0), repo.balance)
	assert.Equal(t, 5, repo.debits)
}

func TestNewService_requiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	_, err = NewService(ServiceParams{DB: &fakeTxRunner{}})
	require.Error(t, err)

	_, err = NewService(ServiceParams{DB: &fakeTxRunner{}, Repo: &fakeWalletRepo{}})
	require.Error(t, err)
}
