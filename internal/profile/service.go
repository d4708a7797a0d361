package profile

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/THXNXKXT/qr-studios-sub002/internal/ledger"
	"github.com/THXNXKXT/qr-studios-sub002/internal/wallet"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

// Snapshot is the aggregated profile view served to the dashboard. Balance
// and points come from the account row; the rest are aggregates over the
// user's transaction history and notifications.
type Snapshot struct {
	ID                  uuid.UUID `json:"id"`
	AvatarURL           *string   `json:"avatarUrl"`
	BalanceCents        int64     `json:"balanceCents"`
	Points              int64     `json:"points"`
	OrdersCount         int64     `json:"ordersCount"`
	TotalSpentCents     int64     `json:"totalSpentCents"`
	TotalSpent          string    `json:"totalSpent"`
	UnreadNotifications int64     `json:"unreadNotifications"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// UnreadCounter reports the user's unread notification count. Satisfied by
// the notifications repository.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// OrderAggregator sums the user's completed purchases. Satisfied by the
// ledger repository.
type OrderAggregator interface {
	AggregateCompletedPurchases(ctx context.Context, userID uuid.UUID) (ledger.OrderAggregates, error)
}

// Service is the read-mostly profile surface plus the avatar write.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*Snapshot, error)
}

// ServiceParams wires the profile service dependencies.
type ServiceParams struct {
	Wallet        wallet.Repository
	Orders        OrderAggregator
	Notifications UnreadCounter
	Cache         *Cache
	Logger        *logger.Logger
}

type service struct {
	wallet        wallet.Repository
	orders        OrderAggregator
	notifications UnreadCounter
	cache         *Cache
	logg          *logger.Logger
}

// NewService validates params and returns a profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order aggregator required")
	}
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "unread counter required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile cache required")
	}
	return &service{
		wallet:        params.Wallet,
		orders:        params.Orders,
		notifications: params.Notifications,
		cache:         params.Cache,
		logg:          params.Logger,
	}, nil
}

// Get serves the snapshot read-through: a cache hit returns as-is, a miss
// recomputes and stores. Redis being down degrades to a direct read.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "profile cache read", err)
		}
	} else if cached != nil {
		return cached, nil
	}

	snapshot, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, snapshot); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "profile cache write", err)
	}
	return snapshot, nil
}

func (s *service) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*Snapshot, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if avatarURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "avatar url required")
	}
	if parsed, err := url.Parse(avatarURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "avatar url must be absolute")
	}

	if err := s.wallet.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return nil, s.mapAccountError(err)
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "invalidate profile cache", err)
	}
	return s.Get(ctx, userID)
}

// compute builds the snapshot from storage. Zero orders and zero
// notifications are ordinary results, not errors.
func (s *service) compute(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	account, err := s.wallet.FindAccount(ctx, userID)
	if err != nil {
		return nil, s.mapAccountError(err)
	}

	aggregates, err := s.orders.AggregateCompletedPurchases(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate purchases")
	}
	unread, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	return buildSnapshot(account, aggregates, unread), nil
}

func (s *service) mapAccountError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, wallet.ErrAccountNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
}

func buildSnapshot(account *models.Account, aggregates ledger.OrderAggregates, unread int64) *Snapshot {
	spent := decimal.NewFromInt(aggregates.TotalSpentCents).Div(decimal.NewFromInt(100))
	return &Snapshot{
		ID:                  account.ID,
		AvatarURL:           account.AvatarURL,
		BalanceCents:        account.BalanceCents,
		Points:              account.Points,
		OrdersCount:         aggregates.OrdersCount,
		TotalSpentCents:     aggregates.TotalSpentCents,
		TotalSpent:          spent.StringFixed(2),
		UnreadNotifications: unread,
		UpdatedAt:           account.UpdatedAt,
	}
}
