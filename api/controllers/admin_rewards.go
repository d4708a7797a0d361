package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/api/responses"
	"github.com/THXNXKXT/qr-studios-sub002/api/validators"
	"github.com/THXNXKXT/qr-studios-sub002/internal/rewards"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

type rewardUpsertRequest struct {
	Name        string  `json:"name" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	ValueCents  int64   `json:"value_cents" validate:"gte=0"`
	Probability float64 `json:"probability" validate:"gte=0,lte=1"`
	Color       string  `json:"color" validate:"required,hexcolor"`
	Position    int     `json:"position" validate:"gte=0"`
	IsActive    bool    `json:"is_active"`
}

func (r rewardUpsertRequest) toInput() (rewards.UpsertInput, error) {
	rewardType, err := enums.ParseRewardType(strings.TrimSpace(r.Type))
	if err != nil {
		return rewards.UpsertInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid reward type")
	}
	return rewards.UpsertInput{
		Name:        strings.TrimSpace(r.Name),
		Type:        rewardType,
		ValueCents:  r.ValueCents,
		Probability: r.Probability,
		Color:       strings.TrimSpace(r.Color),
		Position:    r.Position,
		IsActive:    r.IsActive,
	}, nil
}

// adminRewardResponse is the back-office catalog view with weights exposed.
type adminRewardResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Type        enums.RewardType `json:"type"`
	ValueCents  int64            `json:"value_cents"`
	Probability float64          `json:"probability"`
	Color       string           `json:"color"`
	Position    int              `json:"position"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func adminRewardResponseFromModel(m models.Reward) adminRewardResponse {
	return adminRewardResponse{
		ID:          m.ID,
		Name:        m.Name,
		Type:        m.Type,
		ValueCents:  m.ValueCents,
		Probability: m.Probability,
		Color:       m.Color,
		Position:    m.Position,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// AdminListRewards returns the full catalog plus the active probability sum.
func AdminListRewards(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		catalog, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]adminRewardResponse, 0, len(catalog.Rewards))
		for _, reward := range catalog.Rewards {
			items = append(items, adminRewardResponseFromModel(reward))
		}
		responses.WriteSuccess(w, map[string]any{
			"items":           items,
			"probability_sum": catalog.ProbabilitySum.String(),
		})
	}
}

// AdminCreateReward adds a catalog entry.
func AdminCreateReward(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		var payload rewardUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adminRewardResponseFromModel(*created))
	}
}

// AdminUpdateReward replaces the editable fields of a catalog entry.
func AdminUpdateReward(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		rewardID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reward id"))
			return
		}

		var payload rewardUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), rewardID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminRewardResponseFromModel(*updated))
	}
}

// AdminDeleteReward removes a catalog entry. History rows keep the id.
func AdminDeleteReward(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		rewardID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reward id"))
			return
		}

		if err := svc.Delete(r.Context(), rewardID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
