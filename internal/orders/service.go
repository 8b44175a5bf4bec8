package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/internal/catalog"
	"github.com/develand/impulsos-backend/internal/ledger"
	"github.com/develand/impulsos-backend/internal/settings"
	"github.com/develand/impulsos-backend/pkg/config"
	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/enums"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

// Service coordinates store purchases against the token ledger.
type Service interface {
	Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
	HistoryForUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error)
	ListAll(ctx context.Context, page pagination.Params) ([]models.Order, int64, error)
}

// PurchaseInput identifies who buys what. TokensSpent optionally pins how
// many tokens the buyer wants to put toward a mixed-payment product; when
// nil the split uses as many tokens as the balance and cap allow.
type PurchaseInput struct {
	UserID      uuid.UUID
	ProductID   uuid.UUID
	TokensSpent *int
}

// PurchaseResult carries the recorded order and the payment split.
type PurchaseResult struct {
	Order       *models.Order       `json:"order"`
	TokensSpent int                 `json:"tokens_spent"`
	MoneyPaid   decimal.Decimal     `json:"money_paid"`
	SpendTx     *models.Transaction `json:"-"`
}

type settingsProvider interface {
	Int(ctx context.Context, key string, fallback int) int
}

type service struct {
	orders   *Repository
	products *catalog.Repository
	ledger   ledger.Service
	settings settingsProvider
	cfg      config.LedgerConfig
}

// ServiceParams bundles the dependencies for the purchase coordinator.
type ServiceParams struct {
	Orders   *Repository
	Products *catalog.Repository
	Ledger   ledger.Service
	Settings settingsProvider
	Config   config.LedgerConfig
}

// NewService wires the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	return &service{
		orders:   params.Orders,
		products: params.Products,
		ledger:   params.Ledger,
		settings: params.Settings,
		cfg:      params.Config,
	}, nil
}

func (s *service) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if input.TokensSpent != nil && *input.TokensSpent < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tokens_spent cannot be negative")
	}

	tokens, money, err := s.paymentSplit(ctx, product, input.UserID, input.TokensSpent)
	if err != nil {
		return nil, err
	}

	var spendTx *models.Transaction
	if tokens > 0 {
		spendTx, err = s.ledger.Spend(ctx, ledger.SpendInput{
			UserID:      input.UserID,
			Amount:      tokens,
			Description: fmt.Sprintf("Store purchase: %s", product.Name),
		})
		if err != nil {
			return nil, err
		}
	}

	// refundSpend compensates the debit when a later step fails.
	refundSpend := func(reason string) {
		if spendTx == nil {
			return
		}
		_, _ = s.ledger.Refund(ctx, ledger.RefundInput{
			TransactionID: spendTx.ID,
			ActorID:       input.UserID,
			Reason:        reason,
		})
	}

	if product.Stock != nil {
		taken, err := s.products.DecrementStock(ctx, product.ID)
		if err != nil {
			refundSpend("purchase failed to reserve stock")
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if !taken {
			refundSpend("product out of stock")
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product out of stock")
		}
	}

	order := &models.Order{
		UserID:      input.UserID,
		ProductID:   product.ID,
		ProductName: product.Name,
		TokensSpent: tokens,
		MoneyPaid:   money,
		Status:      enums.OrderStatusCompleted,
	}
	if spendTx != nil {
		order.SpendTxID = &spendTx.ID
	}
	if err := s.orders.Create(ctx, order); err != nil {
		refundSpend("purchase failed to record")
		if product.Stock != nil {
			_ = s.products.RestoreStock(ctx, product.ID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order")
	}

	return &PurchaseResult{
		Order:       order,
		TokensSpent: tokens,
		MoneyPaid:   money,
		SpendTx:     spendTx,
	}, nil
}

// paymentSplit decides how many tokens the purchase consumes and how much
// money remains due. Standard and promotion items cost their full token
// price. Free-type items are paid in tokens up to a cap and the rest in
// money: the cap is max_tokens when set, and never more than half the real
// price converted at the tokens-per-euro rate. A caller-provided token
// amount is honored as long as it stays inside the cap; overshooting it is
// rejected rather than silently clamped.
func (s *service) paymentSplit(ctx context.Context, product *models.Product, userID uuid.UUID, requested *int) (int, decimal.Decimal, error) {
	zero := decimal.Zero

	if product.Type != enums.ProductTypeFree {
		if requested != nil && *requested != product.TokenPrice {
			return 0, zero, pkgerrors.New(pkgerrors.CodeValidation, "this product costs its full token price").
				WithDetails(map[string]int{"token_price": product.TokenPrice, "requested": *requested})
		}
		return product.TokenPrice, zero, nil
	}

	rate := s.settings.Int(ctx, settings.KeyTokensPerEuro, s.cfg.TokensPerEuro)
	if rate <= 0 {
		return 0, zero, pkgerrors.New(pkgerrors.CodeInternal, "tokens per euro rate is not configured")
	}

	halfValue := product.RealPrice.
		Mul(decimal.NewFromInt(int64(rate))).
		Div(decimal.NewFromInt(2)).
		IntPart()
	cap := int(halfValue)
	if product.MaxTokens != nil && *product.MaxTokens < cap {
		cap = *product.MaxTokens
	}
	if cap < 0 {
		cap = 0
	}

	var tokens int
	if requested != nil {
		if *requested > cap {
			return 0, zero, pkgerrors.New(pkgerrors.CodeValidation, "requested tokens exceed the product's token cap").
				WithDetails(map[string]int{"cap": cap, "requested": *requested})
		}
		tokens = *requested
	} else {
		balance, err := s.ledger.Balance(ctx, userID)
		if err != nil {
			return 0, zero, err
		}
		tokens = cap
		if balance < tokens {
			tokens = balance
		}
	}

	tokenValue := decimal.NewFromInt(int64(tokens)).Div(decimal.NewFromInt(int64(rate)))
	money := product.RealPrice.Sub(tokenValue).Round(2)
	if money.IsNegative() {
		money = zero
	}
	return tokens, money, nil
}

func (s *service) HistoryForUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.orders.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) ListAll(ctx context.Context, page pagination.Params) ([]models.Order, int64, error) {
	orders, total, err := s.orders.List(ctx, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, total, nil
}
