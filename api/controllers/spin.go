package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/api/responses"
	"github.com/THXNXKXT/qr-studios-sub002/internal/rewards"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

type spinRewardResponse struct {
	ID    uuid.UUID        `json:"id"`
	Name  string           `json:"name"`
	Type  enums.RewardType `json:"type"`
	Value int64            `json:"value"`
	Color string           `json:"color"`
}

type spinResponse struct {
	Reward       spinRewardResponse `json:"reward"`
	BalanceCents int64              `json:"balance_cents"`
	Points       int64              `json:"points"`
	CostPoints   int64              `json:"cost_points"`
}

// Spin runs one paid wheel draw for the caller.
func Spin(dist rewards.Distributor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dist == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reward distributor unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := dist.Spin(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, spinResponse{
			Reward: spinRewardResponse{
				ID:    result.Reward.ID,
				Name:  result.Reward.Name,
				Type:  result.Reward.Type,
				Value: result.Reward.ValueCents,
				Color: result.Reward.Color,
			},
			BalanceCents: result.BalanceCents,
			Points:       result.Points,
			CostPoints:   result.CostPoints,
		})
	}
}
