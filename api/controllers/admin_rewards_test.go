package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/develand/impulsos-backend/internal/rewards"
	"github.com/develand/impulsos-backend/pkg/db/models"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
)

type stubRewardsService struct {
	reward  *models.Reward
	presets []models.Reward
	err     error

	lastCreate rewards.CreateInput
	lastUpdate rewards.UpdateInput
	lastID     int64
}

func (s *stubRewardsService) Create(ctx context.Context, input rewards.CreateInput) (*models.Reward, error) {
	s.lastCreate = input
	return s.reward, s.err
}

func (s *stubRewardsService) Update(ctx context.Context, id int64, input rewards.UpdateInput) (*models.Reward, error) {
	s.lastID = id
	s.lastUpdate = input
	return s.reward, s.err
}

func (s *stubRewardsService) Delete(ctx context.Context, id int64) error {
	s.lastID = id
	return s.err
}

func (s *stubRewardsService) List(ctx context.Context) ([]models.Reward, error) {
	return s.presets, s.err
}

func TestAdminRewardCreate(t *testing.T) {
	svc := &stubRewardsService{reward: &models.Reward{
		ID:                3,
		Amount:            50,
		EventTitle:        "Attended a masterclass",
		DefaultExpiryDays: 180,
		Active:            true,
	}}
	handler := AdminRewardCreate(svc, nil)

	body := []byte(`{"amount":50,"event_title":"Attended a masterclass"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/rewards", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequestWithBody(req, uuid.New())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCreate.Amount != 50 || svc.lastCreate.EventTitle != "Attended a masterclass" {
		t.Fatalf("expected create input forwarded, got %+v", svc.lastCreate)
	}

	var envelope struct {
		Data rewardView `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.ID != 3 || envelope.Data.DefaultExpiryDays != 180 {
		t.Fatalf("unexpected reward payload: %+v", envelope.Data)
	}
}

func TestAdminRewardCreateRejectsMissingFields(t *testing.T) {
	handler := AdminRewardCreate(&stubRewardsService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/rewards", bytes.NewReader([]byte(`{"amount":0}`)))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequestWithBody(req, uuid.New())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminRewardUpdate(t *testing.T) {
	svc := &stubRewardsService{reward: &models.Reward{ID: 7, Amount: 75, EventTitle: "Masterclass", Active: false}}
	handler := AdminRewardUpdate(svc, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/rewards/7", bytes.NewReader([]byte(`{"amount":75,"active":false}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "rewardId", "7")
	req = authedRequestWithBody(req, uuid.New())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastID != 7 {
		t.Fatalf("expected update of reward 7, got %d", svc.lastID)
	}
	if svc.lastUpdate.Amount == nil || *svc.lastUpdate.Amount != 75 {
		t.Fatalf("expected amount forwarded, got %v", svc.lastUpdate.Amount)
	}
	if svc.lastUpdate.Active == nil || *svc.lastUpdate.Active {
		t.Fatalf("expected active=false forwarded")
	}
}

func TestAdminRewardDeleteRejectsBadID(t *testing.T) {
	handler := AdminRewardDelete(&stubRewardsService{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/rewards/zero", nil)
	req = withURLParam(req, "rewardId", "zero")
	req = authedRequestWithBody(req, uuid.New())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminRewardDeleteNotFound(t *testing.T) {
	svc := &stubRewardsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "reward preset not found")}
	handler := AdminRewardDelete(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/rewards/44", nil)
	req = withURLParam(req, "rewardId", "44")
	req = authedRequestWithBody(req, uuid.New())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.lastID != 44 {
		t.Fatalf("expected delete of reward 44, got %d", svc.lastID)
	}
}

func TestAdminRewardsList(t *testing.T) {
	svc := &stubRewardsService{presets: []models.Reward{
		{ID: 2, Amount: 200, EventTitle: "Contest", Active: true},
		{ID: 1, Amount: 50, EventTitle: "Masterclass", Active: false},
	}}
	handler := AdminRewards(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/admin/v1/rewards", uuid.New()))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Rewards []rewardView `json:"rewards"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(envelope.Data.Rewards) != 2 || envelope.Data.Rewards[0].EventTitle != "Contest" {
		t.Fatalf("unexpected rewards payload: %+v", envelope.Data.Rewards)
	}
}
