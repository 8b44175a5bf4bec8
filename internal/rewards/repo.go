package rewards

import (
	"context"

	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/db/models"
)

// Repository exposes reward preset persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a rewards repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *Repository) Update(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Save(reward).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).First(&reward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Reward, error) {
	var presets []models.Reward
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&presets).Error
	if err != nil {
		return nil, err
	}
	return presets, nil
}

// Delete removes the preset. The boolean result reports whether a row
// existed to delete.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Reward{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
