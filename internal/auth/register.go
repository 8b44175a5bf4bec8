package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/internal/ledger"
	"github.com/develand/impulsos-backend/internal/users"
	pkgAuth "github.com/develand/impulsos-backend/pkg/auth"
	"github.com/develand/impulsos-backend/pkg/config"
	"github.com/develand/impulsos-backend/pkg/db"
	"github.com/develand/impulsos-backend/pkg/db/models"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/security"
)

const referralCodeLength = 8

// RegisterService handles the signup transaction and the referral payout.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	Ledger         ledger.Service
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
}

type registerService struct {
	db          *db.Client
	ledger      ledger.Service
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	return &registerService{
		db:          params.DB,
		ledger:      params.Ledger,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	var referrerID *uuid.UUID
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		if req.ReferralCode != nil && strings.TrimSpace(*req.ReferralCode) != "" {
			referrer, err := userRepo.FindByReferralCode(ctx, strings.TrimSpace(*req.ReferralCode))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "unknown referral code")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve referral code")
			}
			id := referrer.ID
			referrerID = &id
		}

		code, err := uniqueReferralCode(ctx, userRepo)
		if err != nil {
			return err
		}

		user, err = userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     fullName,
			ReferralCode: code,
			ReferredBy:   referrerID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The referral payout runs in its own transaction after the account
	// commit: a payout failure must not roll back the new account.
	if referrerID != nil {
		if _, err := s.ledger.ReferralSignup(ctx, ledger.ReferralSignupInput{
			ReferrerID: *referrerID,
			ReferredID: user.ID,
		}); err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return nil, err
		}
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &RegisterResponse{
		AccessToken: token,
		User:        users.FromModel(user),
	}, nil
}

func uniqueReferralCode(ctx context.Context, repo *users.Repository) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := security.GenerateReferralCode(referralCodeLength)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate referral code")
		}
		if _, err := repo.FindByReferralCode(ctx, code); errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		} else if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check referral code")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique referral code")
}
