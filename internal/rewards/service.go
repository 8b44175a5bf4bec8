package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/db/models"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
)

// Service manages award presets that admins pick from when crediting tokens.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Reward, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Reward, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.Reward, error)
}

// CreateInput holds the payload for a new preset. A zero expiry falls back
// to the 180-day default.
type CreateInput struct {
	Amount            int
	EventTitle        string
	DefaultExpiryDays int
}

// UpdateInput holds optional mutation values for a preset.
type UpdateInput struct {
	Amount            *int
	EventTitle        *string
	DefaultExpiryDays *int
	Active            *bool
}

type service struct {
	repo *Repository
}

// NewService wires a rewards service with the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Reward, error) {
	reward := &models.Reward{
		Amount:            input.Amount,
		EventTitle:        strings.TrimSpace(input.EventTitle),
		DefaultExpiryDays: input.DefaultExpiryDays,
		Active:            true,
	}
	if reward.DefaultExpiryDays == 0 {
		reward.DefaultExpiryDays = 180
	}
	if err := validateReward(reward); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, reward); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reward preset")
	}
	return reward, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Reward, error) {
	reward, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Amount != nil {
		reward.Amount = *input.Amount
	}
	if input.EventTitle != nil {
		reward.EventTitle = strings.TrimSpace(*input.EventTitle)
	}
	if input.DefaultExpiryDays != nil {
		reward.DefaultExpiryDays = *input.DefaultExpiryDays
	}
	if input.Active != nil {
		reward.Active = *input.Active
	}
	if err := validateReward(reward); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, reward); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reward preset")
	}
	return reward, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reward id is required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reward preset")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reward preset not found")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.Reward, error) {
	presets, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reward presets")
	}
	return presets, nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Reward, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward id is required")
	}
	reward, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward preset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward preset")
	}
	return reward, nil
}

func validateReward(reward *models.Reward) error {
	if reward.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if reward.EventTitle == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event title is required")
	}
	if reward.DefaultExpiryDays < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "default expiry days cannot be negative")
	}
	return nil
}
