package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/api/responses"
	"github.com/THXNXKXT/qr-studios-sub002/api/validators"
	"github.com/THXNXKXT/qr-studios-sub002/internal/rewards"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

// wheelRewardResponse is the public catalog view. Probabilities stay
// server-side; the wheel UI only needs name, value, color and order.
type wheelRewardResponse struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Type     enums.RewardType `json:"type"`
	Value    int64            `json:"value"`
	Color    string           `json:"color"`
	Position int              `json:"position"`
}

func wheelRewardResponseFromModel(m models.Reward) wheelRewardResponse {
	return wheelRewardResponse{
		ID:       m.ID,
		Name:     m.Name,
		Type:     m.Type,
		Value:    m.ValueCents,
		Color:    m.Color,
		Position: m.Position,
	}
}

// ListRewards returns the active catalog in draw order.
func ListRewards(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		active, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]wheelRewardResponse, 0, len(active))
		for _, reward := range active {
			items = append(items, wheelRewardResponseFromModel(reward))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

type spinHistoryEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	RewardID   uuid.UUID `json:"reward_id"`
	CostPoints int64     `json:"cost_points"`
	CreatedAt  time.Time `json:"created_at"`
}

type spinHistoryListResponse struct {
	Items  []spinHistoryEntryResponse `json:"items"`
	Cursor string                     `json:"cursor,omitempty"`
}

// SpinHistory returns the caller's past spins, newest first.
func SpinHistory(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rewards service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", transactionsDefaultLimit, 1, transactionsMaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.History(r.Context(), rewards.HistoryInput{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]spinHistoryEntryResponse, 0, len(result.Entries))
		for _, entry := range result.Entries {
			items = append(items, spinHistoryEntryResponse{
				ID:         entry.ID,
				RewardID:   entry.RewardID,
				CostPoints: entry.CostPoints,
				CreatedAt:  entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, spinHistoryListResponse{Items: items, Cursor: result.NextCursor})
	}
}
