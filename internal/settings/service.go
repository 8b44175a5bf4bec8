package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/db/models"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
)

// Service defines operations over the runtime settings registry.
type Service interface {
	Get(ctx context.Context, key string) (string, error)
	Int(ctx context.Context, key string, fallback int) int
	List(ctx context.Context) ([]models.Setting, error)
	Update(ctx context.Context, key, value string) (*models.Setting, error)
}

type service struct {
	repo Repository
}

// NewService wires a settings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load setting")
	}
	return setting.Value, nil
}

// Int resolves a numeric setting, falling back when the row is missing or
// holds a value that does not parse. Lookup failures never block callers.
func (s *service) Int(ctx context.Context, key string, fallback int) int {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return fallback
	}
	value, err := strconv.Atoi(setting.Value)
	if err != nil {
		return fallback
	}
	return value
}

func (s *service) List(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings")
	}
	return settings, nil
}

func (s *service) Update(ctx context.Context, key, value string) (*models.Setting, error) {
	if !IsKnownKey(key) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown setting %q", key))
	}
	if numericKeys[key] {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("setting %q requires an integer value", key))
		}
		if parsed < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("setting %q cannot be negative", key))
		}
	}

	setting := &models.Setting{Key: key, Value: value}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update setting")
	}
	return setting, nil
}
