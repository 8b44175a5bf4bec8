package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/develand/impulsos-backend/internal/orders"
	"github.com/develand/impulsos-backend/pkg/db/models"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

type stubOrdersService struct {
	result *orders.PurchaseResult
	orders []models.Order
	total  int64
	err    error

	lastPurchase orders.PurchaseInput
}

func (s *stubOrdersService) Purchase(ctx context.Context, input orders.PurchaseInput) (*orders.PurchaseResult, error) {
	s.lastPurchase = input
	return s.result, s.err
}

func (s *stubOrdersService) HistoryForUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	return s.orders, s.err
}

func (s *stubOrdersService) ListAll(ctx context.Context, page pagination.Params) ([]models.Order, int64, error) {
	return s.orders, s.total, s.err
}

func TestStorePurchase(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubOrdersService{result: &orders.PurchaseResult{
		Order: &models.Order{
			ID:          uuid.New(),
			UserID:      userID,
			ProductID:   productID,
			ProductName: "cinema ticket",
			TokensSpent: 40,
		},
		TokensSpent: 40,
		MoneyPaid:   decimal.Zero,
	}}
	handler := StorePurchase(svc, nil)

	body := []byte(`{"product_id":"` + productID.String() + `","tokens_spent":40}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/store/purchase", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequestWithBody(req, userID)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	if svc.lastPurchase.UserID != userID || svc.lastPurchase.ProductID != productID {
		t.Fatalf("expected purchase input forwarded, got %+v", svc.lastPurchase)
	}
	if svc.lastPurchase.TokensSpent == nil || *svc.lastPurchase.TokensSpent != 40 {
		t.Fatalf("expected tokens_spent forwarded, got %v", svc.lastPurchase.TokensSpent)
	}

	var envelope struct {
		Data struct {
			TokensSpent int        `json:"tokens_spent"`
			Order       *orderView `json:"order"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.TokensSpent != 40 {
		t.Fatalf("expected 40 tokens spent got %d", envelope.Data.TokensSpent)
	}
	if envelope.Data.Order == nil || envelope.Data.Order.ProductName != "cinema ticket" {
		t.Fatalf("expected order in body, got %+v", envelope.Data.Order)
	}
}

func TestStorePurchaseRequiresProductID(t *testing.T) {
	handler := StorePurchase(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/store/purchase", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequestWithBody(req, uuid.New())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStorePurchaseInsufficientBalance(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")}
	handler := StorePurchase(svc, nil)

	body := []byte(`{"product_id":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/store/purchase", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authedRequestWithBody(req, uuid.New())
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE got %s", envelope.Error.Code)
	}
}

func TestStoreMyOrders(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{orders: []models.Order{
		{ID: uuid.New(), UserID: userID, ProductName: "gift card", TokensSpent: 100},
	}}
	handler := StoreMyOrders(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/store/orders", userID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Orders []orderView `json:"orders"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].ProductName != "gift card" {
		t.Fatalf("unexpected orders payload: %+v", envelope.Data.Orders)
	}
}
