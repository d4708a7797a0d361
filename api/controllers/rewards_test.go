package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/THXNXKXT/qr-studios-sub002/internal/rewards"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/db/models"
	"github.com/THXNXKXT/qr-studios-sub002/pkg/enums"
	pkgerrors "github.com/THXNXKXT/qr-studios-sub002/pkg/errors"
)

type testRewardsService struct {
	listActiveFn func(ctx context.Context) ([]models.Reward, error)
	listAllFn    func(ctx context.Context) (*rewards.CatalogResult, error)
	historyFn    func(ctx context.Context, input rewards.HistoryInput) (*rewards.HistoryResult, error)
	createFn     func(ctx context.Context, input rewards.UpsertInput) (*models.Reward, error)
	updateFn     func(ctx context.Context, id uuid.UUID, input rewards.UpsertInput) (*models.Reward, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
}

func (s *testRewardsService) ListActive(ctx context.Context) ([]models.Reward, error) {
	if s.listActiveFn != nil {
		return s.listActiveFn(ctx)
	}
	return nil, nil
}

func (s *testRewardsService) ListAll(ctx context.Context) (*rewards.CatalogResult, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx)
	}
	return &rewards.CatalogResult{}, nil
}

func (s *testRewardsService) History(ctx context.Context, input rewards.HistoryInput) (*rewards.HistoryResult, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, input)
	}
	return &rewards.HistoryResult{}, nil
}

func (s *testRewardsService) Create(ctx context.Context, input rewards.UpsertInput) (*models.Reward, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not configured")
}

func (s *testRewardsService) Update(ctx context.Context, id uuid.UUID, input rewards.UpsertInput) (*models.Reward, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, input)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not configured")
}

func (s *testRewardsService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func TestListRewardsHidesProbability(t *testing.T) {
	svc := &testRewardsService{
		listActiveFn: func(ctx context.Context) ([]models.Reward, error) {
			return []models.Reward{
				{ID: uuid.New(), Name: "50 Points", Type: enums.RewardTypePoints, ValueCents: 50, Probability: 0.7, Color: "#fff", Position: 0},
				{ID: uuid.New(), Name: "Bonus", Type: enums.RewardTypeBalance, ValueCents: 500, Probability: 0.3, Color: "#000", Position: 1},
			}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/rewards", nil), uuid.NewString())
	resp := httptest.NewRecorder()
	ListRewards(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(envelope.Data.Items))
	}
	if _, ok := envelope.Data.Items[0]["probability"]; ok {
		t.Fatal("probability must not leak into the public payload")
	}
}

func TestAdminListRewardsSurfacesProbabilitySum(t *testing.T) {
	svc := &testRewardsService{
		listAllFn: func(ctx context.Context) (*rewards.CatalogResult, error) {
			return &rewards.CatalogResult{
				Rewards: []models.Reward{
					{ID: uuid.New(), Name: "50 Points", Probability: 0.6, IsActive: true},
				},
				ProbabilitySum: decimal.NewFromFloat(0.6),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/rewards", nil)
	resp := httptest.NewRecorder()
	AdminListRewards(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			ProbabilitySum string `json:"probability_sum"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.ProbabilitySum != "0.6" {
		t.Fatalf("unexpected probability sum %q", envelope.Data.ProbabilitySum)
	}
}

func TestAdminCreateRewardSuccess(t *testing.T) {
	svc := &testRewardsService{
		createFn: func(ctx context.Context, input rewards.UpsertInput) (*models.Reward, error) {
			if input.Type != enums.RewardTypePoints {
				t.Fatalf("unexpected type %s", input.Type)
			}
			return &models.Reward{ID: uuid.New(), Name: input.Name, Type: input.Type, ValueCents: input.ValueCents, Probability: input.Probability, Color: input.Color}, nil
		},
	}

	body := `{"name":"50 Points","type":"POINTS","value_cents":50,"probability":0.5,"color":"#ff8800","position":0,"is_active":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/rewards", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AdminCreateReward(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d body %s", resp.Code, resp.Body.String())
	}
}

func TestAdminCreateRewardInvalidProbability(t *testing.T) {
	body := `{"name":"Jackpot","type":"BALANCE","value_cents":10000,"probability":1.5,"color":"#ff8800"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/rewards", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AdminCreateReward(&testRewardsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminCreateRewardBadType(t *testing.T) {
	body := `{"name":"Mystery","type":"MYSTERY","value_cents":10,"probability":0.1,"color":"#ff8800"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/rewards", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	AdminCreateReward(&testRewardsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminUpdateRewardNotFound(t *testing.T) {
	rewardID := uuid.New()
	svc := &testRewardsService{
		updateFn: func(ctx context.Context, id uuid.UUID, input rewards.UpsertInput) (*models.Reward, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		},
	}

	body := `{"name":"50 Points","type":"POINTS","value_cents":50,"probability":0.5,"color":"#ff8800"}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/v1/rewards/"+rewardID.String(), jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "id", rewardID.String())
	resp := httptest.NewRecorder()
	AdminUpdateReward(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminDeleteRewardSuccess(t *testing.T) {
	rewardID := uuid.New()
	called := false
	svc := &testRewardsService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			called = true
			if id != rewardID {
				t.Fatalf("unexpected id %s", id)
			}
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/rewards/"+rewardID.String(), nil)
	req = addRouteParam(req, "id", rewardID.String())
	resp := httptest.NewRecorder()
	AdminDeleteReward(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestSpinHistorySuccess(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()
	rewardID := uuid.New()
	svc := &testRewardsService{
		historyFn: func(ctx context.Context, input rewards.HistoryInput) (*rewards.HistoryResult, error) {
			if input.UserID != userID {
				t.Fatalf("unexpected user %s", input.UserID)
			}
			if input.Limit != 5 {
				t.Fatalf("unexpected limit %d", input.Limit)
			}
			return &rewards.HistoryResult{
				Entries: []models.RewardHistory{
					{ID: entryID, UserID: userID, RewardID: rewardID, CostPoints: 100},
				},
				NextCursor: "next-token",
			}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/spin/history?limit=5", nil), userID.String())
	resp := httptest.NewRecorder()
	SpinHistory(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Items []struct {
				ID         uuid.UUID `json:"id"`
				RewardID   uuid.UUID `json:"reward_id"`
				CostPoints int64     `json:"cost_points"`
			} `json:"items"`
			Cursor string `json:"cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(envelope.Data.Items))
	}
	if envelope.Data.Items[0].RewardID != rewardID {
		t.Fatalf("unexpected reward id %s", envelope.Data.Items[0].RewardID)
	}
	if envelope.Data.Items[0].CostPoints != 100 {
		t.Fatalf("unexpected cost %d", envelope.Data.Items[0].CostPoints)
	}
	if envelope.Data.Cursor != "next-token" {
		t.Fatalf("unexpected cursor %q", envelope.Data.Cursor)
	}
}

func TestSpinHistoryMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/spin/history", nil)
	resp := httptest.NewRecorder()
	SpinHistory(&testRewardsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
