package rewards

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/pagination"
)

// ErrRewardNotFound signals the reward row does not exist.
var ErrRewardNotFound = errors.New("reward not found")

// Repository manages the reward catalog and the append-only spin history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]models.Reward, error)
	List(ctx context.Context) ([]models.Reward, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reward, error)
	Create(ctx context.Context, reward *models.Reward) error
	Update(ctx context.Context, reward *models.Reward) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateHistory(ctx context.Context, entry *models.RewardHistory) error
	ListHistoryByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.RewardHistory, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rewards repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListActive returns the spinnable catalog in a stable order so the wheel
// renders and draws against the same sequence every time.
func (r *repository) ListActive(ctx context.Context) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC, created_at ASC").
		Find(&rewards).Error
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r *repository) List(ctx context.Context) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Order("position ASC, created_at ASC").
		Find(&rewards).Error
	if err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	var reward models.Reward
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reward).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	return &reward, nil
}

func (r *repository) Create(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *repository) Update(ctx context.Context, reward *models.Reward) error {
	reward.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ?", reward.ID).
		Updates(map[string]any{
			"name":        reward.Name,
			"type":        reward.Type,
			"value_cents": reward.ValueCents,
			"probability": reward.Probability,
			"color":       reward.Color,
			"position":    reward.Position,
			"is_active":   reward.IsActive,
			"updated_at":  reward.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRewardNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reward{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRewardNotFound
	}
	return nil
}

func (r *repository) CreateHistory(ctx context.Context, entry *models.RewardHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistoryByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.RewardHistory, *pagination.Cursor, error) {
	buffered := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).Model(&models.RewardHistory{}).Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.RewardHistory
	if err := query.Order("created_at DESC, id DESC").Limit(buffered).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		next := entries[normalized]
		entries = entries[:normalized]
		return entries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return entries, nil, nil
}
