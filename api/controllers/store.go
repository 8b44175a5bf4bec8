package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/api/validators"
	"github.com/develand/impulsos-backend/internal/catalog"
	"github.com/develand/impulsos-backend/internal/orders"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
)

// StoreProducts lists the products currently purchasable.
func StoreProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, total, err := svc.List(r.Context(), false, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"products": newProductViews(products),
			"total":    total,
			"limit":    page.Limit,
			"offset":   page.Offset,
		})
	}
}

type purchaseRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	TokensSpent *int      `json:"tokens_spent,omitempty" validate:"omitempty,gte=0"`
}

// StorePurchase redeems tokens (and cash, for free-type products) for a
// product on behalf of the caller.
func StorePurchase(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body purchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.ProductID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		result, err := svc.Purchase(r.Context(), orders.PurchaseInput{
			UserID:      userID,
			ProductID:   body.ProductID,
			TokensSpent: body.TokensSpent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":        newOrderView(result.Order),
			"tokens_spent": result.TokensSpent,
			"money_paid":   result.MoneyPaid,
		})
	}
}

// StoreMyOrders returns the caller's purchase history, newest first.
func StoreMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.HistoryForUser(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"orders": newOrderViews(list),
			"limit":  page.Limit,
			"offset": page.Offset,
		})
	}
}
