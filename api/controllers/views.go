package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/enums"
)

// transactionView is the wire shape for a ledger entry.
type transactionView struct {
	ID           int64                 `json:"id"`
	UserID       uuid.UUID             `json:"user_id"`
	Amount       int                   `json:"amount"`
	Type         enums.TransactionType `json:"type"`
	Description  string                `json:"description"`
	Observations *string               `json:"observations,omitempty"`
	ExpiresAt    *time.Time            `json:"expires_at,omitempty"`
	Expired      bool                  `json:"expired"`
	Refunded     bool                  `json:"refunded"`
	RefundOf     *int64                `json:"refund_of,omitempty"`
	CreatedBy    *uuid.UUID            `json:"created_by,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

func newTransactionView(tx *models.Transaction) *transactionView {
	if tx == nil {
		return nil
	}
	return &transactionView{
		ID:           tx.ID,
		UserID:       tx.UserID,
		Amount:       tx.Amount,
		Type:         tx.Type,
		Description:  tx.Description,
		Observations: tx.Observations,
		ExpiresAt:    tx.ExpiresAt,
		Expired:      tx.Expired,
		Refunded:     tx.Refunded,
		RefundOf:     tx.RefundOf,
		CreatedBy:    tx.CreatedBy,
		CreatedAt:    tx.CreatedAt,
	}
}

func newTransactionViews(txs []models.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for i := range txs {
		views = append(views, *newTransactionView(&txs[i]))
	}
	return views
}

type productView struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        enums.ProductType `json:"type"`
	TokenPrice  int               `json:"token_price"`
	RealPrice   decimal.Decimal   `json:"real_price"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
	ImageURL    *string           `json:"image_url,omitempty"`
	Stock       *int              `json:"stock,omitempty"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func newProductView(p *models.Product) *productView {
	if p == nil {
		return nil
	}
	return &productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		TokenPrice:  p.TokenPrice,
		RealPrice:   p.RealPrice,
		MaxTokens:   p.MaxTokens,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProductViews(products []models.Product) []productView {
	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, *newProductView(&products[i]))
	}
	return views
}

type orderView struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	ProductID   uuid.UUID         `json:"product_id"`
	ProductName string            `json:"product_name"`
	TokensSpent int               `json:"tokens_spent"`
	MoneyPaid   decimal.Decimal   `json:"money_paid"`
	SpendTxID   *int64            `json:"spend_tx_id,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

func newOrderView(o *models.Order) *orderView {
	if o == nil {
		return nil
	}
	return &orderView{
		ID:          o.ID,
		UserID:      o.UserID,
		ProductID:   o.ProductID,
		ProductName: o.ProductName,
		TokensSpent: o.TokensSpent,
		MoneyPaid:   o.MoneyPaid,
		SpendTxID:   o.SpendTxID,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}

func newOrderViews(orders []models.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, *newOrderView(&orders[i]))
	}
	return views
}
