package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/api/responses"
	"github.com/THXNXKXT/qr-studios-sub002/api/validators"
	"github.com/THXNXKXT/qr-studios-sub002/internal/ledger"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

const (
	transactionsDefaultLimit = 20
	transactionsMaxLimit     = 50
)

type transactionResponse struct {
	ID            uuid.UUID               `json:"id"`
	Type          enums.TransactionType   `json:"type"`
	AmountCents   int64                   `json:"amount_cents"`
	BonusCents    int64                   `json:"bonus_cents"`
	Points        int64                   `json:"points"`
	Status        enums.TransactionStatus `json:"status"`
	PaymentMethod *string                 `json:"payment_method,omitempty"`
	PaymentRef    *string                 `json:"payment_ref,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

type transactionListResponse struct {
	Items  []transactionResponse `json:"items"`
	Cursor string                `json:"cursor,omitempty"`
}

func transactionResponseFromModel(m models.Transaction) transactionResponse {
	return transactionResponse{
		ID:            m.ID,
		Type:          m.Type,
		AmountCents:   m.AmountCents,
		BonusCents:    m.BonusCents,
		Points:        m.Points,
		Status:        m.Status,
		PaymentMethod: m.PaymentMethod,
		PaymentRef:    m.PaymentRef,
		CreatedAt:     m.CreatedAt,
	}
}

// ListTransactions returns the caller's transaction history, newest first.
func ListTransactions(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
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

		result, err := svc.List(r.Context(), ledger.ListInput{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]transactionResponse, 0, len(result.Transactions))
		for _, txn := range result.Transactions {
			items = append(items, transactionResponseFromModel(txn))
		}
		responses.WriteSuccess(w, transactionListResponse{Items: items, Cursor: result.NextCursor})
	}
}
