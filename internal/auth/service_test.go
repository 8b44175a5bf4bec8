package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/develand/impulsos-backend/pkg/auth"
	"github.com/develand/impulsos-backend/pkg/config"
	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/enums"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/security"
)

type fakeUserRepo struct {
	user       *models.User
	lastLogins []uuid.UUID
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.lastLogins = append(f.lastLogins, id)
	return nil
}

func testLoginJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "impulsos",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestServiceLogin(t *testing.T) {
	password := "user-secret-1"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "maria@example.com",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "Maria Garcia",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	repo := &fakeUserRepo{user: user}
	cfg := testLoginJWTConfig()

	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: cfg})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.UserRoleUser {
		t.Fatalf("expected user role claim, got %s", claims.Role)
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("expected user dto in response, got %+v", resp.User)
	}
	if len(repo.lastLogins) != 1 || repo.lastLogins[0] != user.ID {
		t.Fatalf("expected last login to be recorded for %s", user.ID)
	}
}

func TestServiceLoginRejections(t *testing.T) {
	password := "user-secret-1"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "maria@example.com",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "Maria Garcia",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}

	tests := []struct {
		name  string
		setup func(u *models.User)
		req   LoginRequest
	}{
		{
			name: "wrong password",
			req:  LoginRequest{Email: user.Email, Password: "not-it"},
		},
		{
			name: "unknown email",
			req:  LoginRequest{Email: "nobody@example.com", Password: password},
		},
		{
			name:  "inactive account",
			setup: func(u *models.User) { u.IsActive = false },
			req:   LoginRequest{Email: user.Email, Password: password},
		},
		{
			name: "empty credentials",
			req:  LoginRequest{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candidate := *user
			if tc.setup != nil {
				tc.setup(&candidate)
			}
			repo := &fakeUserRepo{user: &candidate}
			svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testLoginJWTConfig()})
			if err != nil {
				t.Fatalf("build service: %v", err)
			}

			_, err = svc.Login(context.Background(), tc.req)
			if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if len(repo.lastLogins) != 0 {
				t.Fatal("rejected login must not record last_login_at")
			}
		})
	}
}
