package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/enums"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

// Service exposes store catalog management operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Deactivate(ctx context.Context, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, includeInactive bool, page pagination.Params) ([]models.Product, int64, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description string
	Type        enums.ProductType
	TokenPrice  int
	RealPrice   decimal.Decimal
	MaxTokens   *int
	ImageURL    *string
	Stock       *int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Type        *enums.ProductType
	TokenPrice  *int
	RealPrice   *decimal.Decimal
	MaxTokens   *int
	ImageURL    *string
	Stock       *int
	IsActive    *bool
}

type service struct {
	repo *Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Type:        input.Type,
		TokenPrice:  input.TokenPrice,
		RealPrice:   input.RealPrice,
		MaxTokens:   input.MaxTokens,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
		IsActive:    true,
	}
	if product.Type == "" {
		product.Type = enums.ProductTypeStandard
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Type != nil {
		product.Type = *input.Type
	}
	if input.TokenPrice != nil {
		product.TokenPrice = *input.TokenPrice
	}
	if input.RealPrice != nil {
		product.RealPrice = *input.RealPrice
	}
	if input.MaxTokens != nil {
		product.MaxTokens = input.MaxTokens
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Stock != nil {
		product.Stock = input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

// Deactivate hides the product from the store without breaking the orders
// that reference it.
func (s *service) Deactivate(ctx context.Context, productID uuid.UUID) error {
	product, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	product.IsActive = false
	if err := s.repo.Update(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.load(ctx, productID)
}

func (s *service) List(ctx context.Context, includeInactive bool, page pagination.Params) ([]models.Product, int64, error) {
	products, total, err := s.repo.List(ctx, !includeInactive, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, total, nil
}

func (s *service) load(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateProduct(product *models.Product) error {
	if product.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !product.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product type %q", product.Type))
	}
	if product.TokenPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "token price cannot be negative")
	}
	if product.RealPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "real price cannot be negative")
	}
	if product.MaxTokens != nil && *product.MaxTokens < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max tokens cannot be negative")
	}
	if product.Stock != nil && *product.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	switch product.Type {
	case enums.ProductTypeFree:
		if product.RealPrice.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "free-type products need a real price to cap tokens against")
		}
	default:
		if product.TokenPrice == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "token price is required")
		}
	}
	return nil
}
