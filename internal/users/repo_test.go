package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/pkg/enums"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

func setupUsersTest(t *testing.T) *Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  referral_code TEXT NOT NULL UNIQUE,
  referred_by TEXT,
  role TEXT NOT NULL DEFAULT 'user',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	return NewRepository(conn)
}

func seedUser(t *testing.T, repo *Repository, email, name string) *uuid.UUID {
	t.Helper()

	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        email,
		PasswordHash: "hash",
		FullName:     name,
		ReferralCode: uuid.NewString()[:8],
	})
	require.NoError(t, err)
	return &user.ID
}

func TestRepositoryCreateAssignsDefaults(t *testing.T) {
	repo := setupUsersTest(t)

	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        "ana@example.com",
		PasswordHash: "hash",
		FullName:     "Ana",
		ReferralCode: "ANA12345",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, enums.UserRoleUser, user.Role)
	assert.True(t, user.IsActive)
}

func TestRepositoryFindByEmailAndReferralCode(t *testing.T) {
	repo := setupUsersTest(t)
	ctx := context.Background()
	id := seedUser(t, repo, "ana@example.com", "Ana")

	byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, *id, byEmail.ID)

	byCode, err := repo.FindByReferralCode(ctx, byEmail.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, *id, byCode.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	repo := setupUsersTest(t)
	ctx := context.Background()
	id := seedUser(t, repo, "ana@example.com", "Ana")

	at := time.Now().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, *id, at))

	user, err := repo.FindByID(ctx, *id)
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	assert.WithinDuration(t, at, *user.LastLoginAt, time.Second)
}

func TestRepositorySetActive(t *testing.T) {
	repo := setupUsersTest(t)
	ctx := context.Background()
	id := seedUser(t, repo, "ana@example.com", "Ana")

	require.NoError(t, repo.SetActive(ctx, *id, false))
	user, err := repo.FindByID(ctx, *id)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestRepositorySearch(t *testing.T) {
	repo := setupUsersTest(t)
	ctx := context.Background()
	seedUser(t, repo, "ana@example.com", "Ana Martín")
	seedUser(t, repo, "bruno@example.com", "Bruno Díaz")
	seedUser(t, repo, "carla@example.com", "Carla Ruiz")

	found, total, err := repo.Search(ctx, "BRUNO", pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "bruno@example.com", found[0].Email)

	// name matches too
	found, total, err = repo.Search(ctx, "ruiz", pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "Carla Ruiz", found[0].FullName)

	// empty query lists everyone
	_, total, err = repo.Search(ctx, "  ", pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
