package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/THXNXKXT/qr-studios-sub002/internal/wallet"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
)

type testWalletService struct {
	creditFn       func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error)
	debitFn        func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error)
	creditPointsFn func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error)
	debitPointsFn  func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error)
}

func (s *testWalletService) Credit(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error) {
	if s.creditFn != nil {
		return s.creditFn(ctx, input)
	}
	return &wallet.Balances{}, nil
}

func (s *testWalletService) Debit(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error) {
	if s.debitFn != nil {
		return s.debitFn(ctx, input)
	}
	return &wallet.Balances{}, nil
}

func (s *testWalletService) CreditPoints(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error) {
	if s.creditPointsFn != nil {
		return s.creditPointsFn(ctx, input)
	}
	return &wallet.Balances{}, nil
}

func (s *testWalletService) DebitPoints(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error) {
	if s.debitPointsFn != nil {
		return s.debitPointsFn(ctx, input)
	}
	return &wallet.Balances{}, nil
}

func TestAdminWalletCreditSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &testWalletService{
		creditFn: func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error) {
			if input.UserID != userID {
				t.Fatalf("unexpected user %s", input.UserID)
			}
			if input.Amount != 2500 {
				t.Fatalf("unexpected amount %d", input.Amount)
			}
			return &wallet.Balances{BalanceCents: 2500, Points: 10}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/"+userID.String()+"/wallet/credit", jsonBody(`{"amount":2500}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminWalletCredit(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d body %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data wallet.Balances `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.BalanceCents != 2500 {
		t.Fatalf("unexpected balance %d", envelope.Data.BalanceCents)
	}
}

func TestAdminWalletDebitInsufficient(t *testing.T) {
	userID := uuid.New()
	svc := &testWalletService{
		debitFn: func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient funds")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/"+userID.String()+"/wallet/debit", jsonBody(`{"amount":9999}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminWalletDebit(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminPointsDebitSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &testWalletService{
		debitPointsFn: func(ctx context.Context, input wallet.AdjustInput) (*wallet.Balances, error) {
			if input.Amount != 100 {
				t.Fatalf("unexpected amount %d", input.Amount)
			}
			return &wallet.Balances{Points: 50}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/"+userID.String()+"/points/debit", jsonBody(`{"amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminPointsDebit(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestAdminWalletCreditNegativeAmount(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/"+userID.String()+"/wallet/credit", jsonBody(`{"amount":-50}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminWalletCredit(&testWalletService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminWalletCreditBadType(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/"+userID.String()+"/wallet/credit", jsonBody(`{"amount":50,"type":"GIFT"}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "userId", userID.String())
	resp := httptest.NewRecorder()
	AdminWalletCredit(&testWalletService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminWalletCreditInvalidUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users/bad/wallet/credit", jsonBody(`{"amount":50}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "userId", "bad")
	resp := httptest.NewRecorder()
	AdminWalletCredit(&testWalletService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
