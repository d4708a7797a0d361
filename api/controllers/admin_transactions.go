package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/api/responses"
	"github.com/THXNXKXT/qr-studios-sub002/api/validators"
	"github.com/THXNXKXT/qr-studios-sub002/internal/ledger"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/logger"
)

type transactionCreateRequest struct {
	UserID        string  `json:"user_id" validate:"required,uuid"`
	Type          string  `json:"type" validate:"required"`
	AmountCents   int64   `json:"amount_cents" validate:"required,gt=0"`
	BonusCents    int64   `json:"bonus_cents" validate:"gte=0"`
	Points        int64   `json:"points" validate:"gte=0"`
	PaymentMethod *string `json:"payment_method"`
	PaymentRef    *string `json:"payment_ref"`
}

func (req transactionCreateRequest) toInput() (ledger.CreatePendingInput, error) {
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return ledger.CreatePendingInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id")
	}
	txType, err := enums.ParseTransactionType(strings.TrimSpace(req.Type))
	if err != nil {
		return ledger.CreatePendingInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	return ledger.CreatePendingInput{
		UserID:        userID,
		Type:          txType,
		AmountCents:   req.AmountCents,
		BonusCents:    req.BonusCents,
		Points:        req.Points,
		PaymentMethod: req.PaymentMethod,
		PaymentRef:    req.PaymentRef,
	}, nil
}

// AdminCreateTransaction records a PENDING transaction awaiting the payment
// collaborator's confirmation. Balances are untouched until completion.
func AdminCreateTransaction(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		var payload transactionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreatePending(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponseFromModel(*created))
	}
}

func pathTransactionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction id")
	}
	return id, nil
}

// AdminCompleteTransaction settles a PENDING transaction and applies its
// balance and points effects.
func AdminCompleteTransaction(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := pathTransactionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		completed, err := svc.Complete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactionResponseFromModel(*completed))
	}
}

// AdminCancelTransaction fails a PENDING transaction without touching balances.
func AdminCancelTransaction(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := pathTransactionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cancelled, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactionResponseFromModel(*cancelled))
	}
}
