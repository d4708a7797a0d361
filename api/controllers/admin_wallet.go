package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/api/responses"
	"github.com/THXNXKXT/qr-studios-sub002/api/validators"
	"github.com/THXNXKXT/qr-studios-sub002/internal/wallet"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

type walletAdjustRequest struct {
	Amount        int64   `json:"amount" validate:"required,gt=0"`
	Type          string  `json:"type"`
	BonusCents    int64   `json:"bonus_cents" validate:"gte=0"`
	PaymentMethod *string `json:"payment_method"`
	PaymentRef    *string `json:"payment_ref"`
}

func (req walletAdjustRequest) toInput(userID uuid.UUID) (wallet.AdjustInput, error) {
	input := wallet.AdjustInput{
		UserID:        userID,
		Amount:        req.Amount,
		BonusCents:    req.BonusCents,
		PaymentMethod: req.PaymentMethod,
		PaymentRef:    req.PaymentRef,
	}
	if raw := strings.TrimSpace(req.Type); raw != "" {
		txType, err := enums.ParseTransactionType(raw)
		if err != nil {
			return wallet.AdjustInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
		}
		input.Type = txType
	}
	return input, nil
}

func pathUserID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

func adminAdjust(logg *logger.Logger, apply func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apply == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := pathUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balances, err := apply(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balances)
	}
}

// AdminWalletCredit credits a user's balance.
func AdminWalletCredit(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return adminAdjust(logg, nil)
	}
	return adminAdjust(logg, svc.Credit)
}

// AdminWalletDebit debits a user's balance; rejected when uncovered.
func AdminWalletDebit(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return adminAdjust(logg, nil)
	}
	return adminAdjust(logg, svc.Debit)
}

// AdminPointsCredit credits loyalty points.
func AdminPointsCredit(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return adminAdjust(logg, nil)
	}
	return adminAdjust(logg, svc.CreditPoints)
}

// AdminPointsDebit debits loyalty points; rejected when uncovered.
func AdminPointsDebit(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return adminAdjust(logg, nil)
	}
	return adminAdjust(logg, svc.DebitPoints)
}
