package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

// Repository exposes product persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products newest first. When onlyActive is set, deactivated
// products are hidden.
func (r *Repository) List(ctx context.Context, onlyActive bool, page pagination.Params) ([]models.Product, int64, error) {
	page = page.Normalize()
	build := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Product{})
		if onlyActive {
			q = q.Where("is_active = ?", true)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := build().
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// DecrementStock takes one unit if stock is tracked and available. The
// boolean result reports whether a unit was taken.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock IS NOT NULL AND stock > 0", id).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock returns one unit after a failed purchase.
func (r *Repository) RestoreStock(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock IS NOT NULL", id).
		UpdateColumn("stock", gorm.Expr("stock + 1")).Error
}
