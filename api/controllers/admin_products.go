package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/api/validators"
	"github.com/develand/impulsos-backend/internal/catalog"
	"github.com/develand/impulsos-backend/pkg/enums"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
)

func parseProductID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "productId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	productID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return productID, nil
}

type createProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	TokenPrice  int             `json:"token_price" validate:"gte=0"`
	RealPrice   decimal.Decimal `json:"real_price"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Stock       *int            `json:"stock,omitempty"`
}

// AdminProductCreate adds a product to the store catalog.
func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Name:        body.Name,
			Description: body.Description,
			TokenPrice:  body.TokenPrice,
			RealPrice:   body.RealPrice,
			MaxTokens:   body.MaxTokens,
			ImageURL:    body.ImageURL,
			Stock:       body.Stock,
		}
		if raw := strings.TrimSpace(body.Type); raw != "" {
			productType, err := enums.ParseProductType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type"))
				return
			}
			input.Type = productType
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductView(product))
	}
}

type updateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Type        *string          `json:"type,omitempty"`
	TokenPrice  *int             `json:"token_price,omitempty"`
	RealPrice   *decimal.Decimal `json:"real_price,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

// AdminProductUpdate applies a partial update to a product.
func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Name:        body.Name,
			Description: body.Description,
			TokenPrice:  body.TokenPrice,
			RealPrice:   body.RealPrice,
			MaxTokens:   body.MaxTokens,
			ImageURL:    body.ImageURL,
			Stock:       body.Stock,
			IsActive:    body.IsActive,
		}
		if body.Type != nil {
			productType, err := enums.ParseProductType(strings.TrimSpace(*body.Type))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type"))
				return
			}
			input.Type = &productType
		}

		product, err := svc.Update(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductView(product))
	}
}

// AdminProductDeactivate removes a product from sale without deleting its
// order history.
func AdminProductDeactivate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"product_id": productID,
			"is_active":  false,
		})
	}
}

// AdminProducts lists the catalog including deactivated products.
func AdminProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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

		products, total, err := svc.List(r.Context(), true, page)
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
