package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

type fakePendingRepo struct {
	stale         []models.Transaction
	listErr       error
	transitionErr map[uuid.UUID]error
	transitioned  []uuid.UUID
	lastCutoff    time.Time
}

func (f *fakePendingRepo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	f.lastCutoff = cutoff
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.stale, nil
}

func (f *fakePendingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, to enums.TransactionStatus) error {
	if err, ok := f.transitionErr[id]; ok {
		return err
	}
	f.transitioned = append(f.transitioned, id)
	return nil
}

func newPendingJob(t *testing.T, repo *fakePendingRepo, ttl time.Duration) *pendingTransactionJob {
	t.Helper()
	jobIface, err := NewPendingTransactionJob(PendingTransactionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		TTL:        ttl,
	})
	if err != nil {
		t.Fatalf("NewPendingTransactionJob: %v", err)
	}
	job, ok := jobIface.(*pendingTransactionJob)
	if !ok {
		t.Fatalf("expected pendingTransactionJob, got %T", jobIface)
	}
	return job
}

func TestPendingTransactionJobExpiresStaleRows(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	stale := []models.Transaction{
		{ID: uuid.New(), Status: enums.TransactionStatusPending},
		{ID: uuid.New(), Status: enums.TransactionStatusPending},
	}
	repo := &fakePendingRepo{stale: stale}
	job := newPendingJob(t, repo, 24*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", repo.lastCutoff)
	}
	if len(repo.transitioned) != 2 {
		t.Fatalf("expected 2 expirations, got %d", len(repo.transitioned))
	}
}

func TestPendingTransactionJobContinuesPastRowFailures(t *testing.T) {
	raced := models.Transaction{ID: uuid.New(), Status: enums.TransactionStatusPending}
	healthy := models.Transaction{ID: uuid.New(), Status: enums.TransactionStatusPending}
	repo := &fakePendingRepo{
		stale:         []models.Transaction{raced, healthy},
		transitionErr: map[uuid.UUID]error{raced.ID: errors.New("already finalized")},
	}
	job := newPendingJob(t, repo, 24*time.Hour)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected combined error for the raced row")
	}
	if len(repo.transitioned) != 1 || repo.transitioned[0] != healthy.ID {
		t.Fatalf("expected the healthy row expired, got %v", repo.transitioned)
	}
}

func TestPendingTransactionJobPropagatesListErrors(t *testing.T) {
	repo := &fakePendingRepo{listErr: errors.New("boom")}
	job := newPendingJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
