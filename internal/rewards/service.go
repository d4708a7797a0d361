package rewards

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/pagination"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Service manages the reward catalog. Admin writes are infrequent and
// single-writer, so none of these carry special concurrency handling.
type Service interface {
	ListActive(ctx context.Context) ([]models.Reward, error)
	ListAll(ctx context.Context) (*CatalogResult, error)
	History(ctx context.Context, input HistoryInput) (*HistoryResult, error)
	Create(ctx context.Context, input UpsertInput) (*models.Reward, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Reward, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryInput carries a spin-history page request. Cursor is the opaque
// token from a previous page, empty for the first.
type HistoryInput struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// HistoryResult is one page of a user's spin history, newest first.
type HistoryResult struct {
	Entries    []models.RewardHistory
	NextCursor string
}

// UpsertInput carries the admin-editable reward fields.
type UpsertInput struct {
	Name        string
	Type        enums.RewardType
	ValueCents  int64
	Probability float64
	Color       string
	Position    int
	IsActive    bool
}

// CatalogResult is the admin view: every reward plus the active probability
// sum, so a deviation from 1 can be surfaced for review. The catalog never
// enforces the sum; the distributor normalizes against whatever it is.
type CatalogResult struct {
	Rewards        []models.Reward
	ProbabilitySum decimal.Decimal
}

type catalogService struct {
	repo Repository
}

// NewService returns a reward catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rewards repository required")
	}
	return &catalogService{repo: repo}, nil
}

func (s *catalogService) ListActive(ctx context.Context) ([]models.Reward, error) {
	rewards, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active rewards")
	}
	return rewards, nil
}

func (s *catalogService) ListAll(ctx context.Context) (*CatalogResult, error) {
	rewards, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rewards")
	}

	sum := decimal.Zero
	for _, reward := range rewards {
		if reward.IsActive {
			sum = sum.Add(decimal.NewFromFloat(reward.Probability))
		}
	}
	return &CatalogResult{Rewards: rewards, ProbabilitySum: sum}, nil
}

func (s *catalogService) History(ctx context.Context, input HistoryInput) (*HistoryResult, error) {
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

	entries, next, err := s.repo.ListHistoryByUser(ctx, input.UserID, input.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reward history")
	}

	result := &HistoryResult{Entries: entries}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *catalogService) Create(ctx context.Context, input UpsertInput) (*models.Reward, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reward := &models.Reward{
		ID:          uuid.New(),
		Name:        input.Name,
		Type:        input.Type,
		ValueCents:  input.ValueCents,
		Probability: input.Probability,
		Color:       input.Color,
		Position:    input.Position,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, reward); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reward")
	}
	return reward, nil
}

func (s *catalogService) Update(ctx context.Context, id uuid.UUID, input UpsertInput) (*models.Reward, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward id required")
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	existing.Name = input.Name
	existing.Type = input.Type
	existing.ValueCents = input.ValueCents
	existing.Probability = input.Probability
	existing.Color = input.Color
	existing.Position = input.Position
	existing.IsActive = input.IsActive

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, mapCatalogError(err)
	}
	return existing, nil
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reward id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapCatalogError(err)
	}
	return nil
}

func validateUpsert(input UpsertInput) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid reward type")
	}
	if input.ValueCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative")
	}
	if input.Probability < 0 || input.Probability > 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "probability must be within [0, 1]")
	}
	if !hexColorPattern.MatchString(input.Color) {
		return pkgerrors.New(pkgerrors.CodeValidation, "color must be a hex token")
	}
	return nil
}

func mapCatalogError(err error) error {
	if errors.Is(err, ErrRewardNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reward catalog")
}
