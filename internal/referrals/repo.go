package referrals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/db/models"
)

// Stats aggregates a referrer's completed referrals.
type Stats struct {
	Count       int64 `json:"count"`
	TokensTotal int64 `json:"tokens_total"`
}

// Repository manages persistence for referral records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, referral *models.Referral) error
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]models.Referral, error)
	StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a referral repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

func (r *repository) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]models.Referral, error) {
	var referrals []models.Referral
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("id DESC").
		Find(&referrals).Error
	if err != nil {
		return nil, err
	}
	return referrals, nil
}

func (r *repository) StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (*Stats, error) {
	var stats Stats
	err := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Select("COUNT(*) AS count, COALESCE(SUM(tokens_awarded), 0) AS tokens_total").
		Where("referrer_id = ?", referrerID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
