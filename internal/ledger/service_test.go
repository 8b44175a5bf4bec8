package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/internal/referrals"
	"github.com/develand/impulsos-backend/internal/settings"
	"github.com/develand/impulsos-backend/pkg/config"
	"github.com/develand/impulsos-backend/pkg/db"
	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/enums"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
)

type stubSettings struct {
	values map[string]int
}

func (s stubSettings) Int(_ context.Context, key string, fallback int) int {
	if v, ok := s.values[key]; ok {
		return v
	}
	return fallback
}

func setupLedgerService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := setupLedgerTestDB(t)
	referralsDDL := `
CREATE TABLE IF NOT EXISTS referrals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  referrer_id TEXT NOT NULL,
  referred_id TEXT NOT NULL,
  referrer_tx_id INTEGER,
  referred_tx_id INTEGER,
  tokens_awarded INTEGER NOT NULL,
  created_at DATETIME,
  UNIQUE (referrer_id, referred_id)
);`
	require.NoError(t, conn.Exec(referralsDDL).Error)

	cfg := config.LedgerConfig{
		DefaultExpiryDays:    180,
		ReferralRewardTokens: 100,
		ReferredBonusTokens:  50,
		ExpiringSoonDays:     30,
	}
	svc, err := NewService(
		NewRepository(conn),
		referrals.NewRepository(conn),
		db.FromGorm(conn),
		stubSettings{},
		cfg,
		nil,
	)
	require.NoError(t, err)
	return svc, conn
}

func TestService_GrantSpendBalance(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	granted, err := svc.Grant(ctx, GrantInput{
		UserID:      userID,
		Amount:      100,
		Description: "Purchase reward",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionTypeEarn, granted.Type)
	assert.Nil(t, granted.ExpiresAt, "a grant without an expiry never expires")

	spent, err := svc.Spend(ctx, SpendInput{
		UserID:      userID,
		Amount:      40,
		Description: "Store purchase",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionTypeSpend, spent.Type)
	assert.NotZero(t, spent.ID)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)
}

func TestService_GrantValidation(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	tests := []struct {
		name  string
		input GrantInput
	}{
		{name: "missing user", input: GrantInput{Amount: 10, Description: "x"}},
		{name: "zero amount", input: GrantInput{UserID: userID, Description: "x"}},
		{name: "negative amount", input: GrantInput{UserID: userID, Amount: -5, Description: "x"}},
		{name: "missing description", input: GrantInput{UserID: userID, Amount: 10}},
		{name: "debit type", input: GrantInput{UserID: userID, Amount: 10, Description: "x", Type: enums.TransactionTypeSpend}},
		{name: "unknown type", input: GrantInput{UserID: userID, Amount: 10, Description: "x", Type: enums.TransactionType("bogus")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Grant(ctx, tc.input)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "expected validation error, got %v", err)
		})
	}
}

func TestService_SpendInsufficientBalanceWritesNothing(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	_, err := svc.Grant(ctx, GrantInput{UserID: userID, Amount: 30, Description: "Seed"})
	require.NoError(t, err)

	_, err = svc.Spend(ctx, SpendInput{UserID: userID, Amount: 31, Description: "Too much"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientBalance), "got %v", err)

	var count int64
	require.NoError(t, conn.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", userID, enums.TransactionTypeSpend).
		Count(&count).Error)
	assert.Zero(t, count, "rejected spend must not leave a row behind")

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 30, balance)
}

func TestService_RefundSpendRestoresBalance(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)
	adminID := newLedgerUser(t, conn)

	_, err := svc.Grant(ctx, GrantInput{UserID: userID, Amount: 100, Description: "Seed"})
	require.NoError(t, err)
	spent, err := svc.Spend(ctx, SpendInput{UserID: userID, Amount: 40, Description: "Store purchase"})
	require.NoError(t, err)

	reversal, err := svc.Refund(ctx, RefundInput{
		TransactionID: spent.ID,
		ActorID:       adminID,
		Reason:        "order canceled",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionTypeEarn, reversal.Type)
	assert.Equal(t, 40, reversal.Amount)
	require.NotNil(t, reversal.RefundOf)
	assert.Equal(t, spent.ID, *reversal.RefundOf)
	require.NotNil(t, reversal.Observations)
	assert.Equal(t, "order canceled", *reversal.Observations)
	assert.Nil(t, reversal.ExpiresAt, "reversal rows are audit records and never expire")

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	var original models.Transaction
	require.NoError(t, conn.First(&original, "id = ?", spent.ID).Error)
	assert.True(t, original.Refunded)

	// second refund attempt must be rejected
	_, err = svc.Refund(ctx, RefundInput{TransactionID: spent.ID, ActorID: adminID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAlreadyRefunded), "got %v", err)

	balance, err = svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 100, balance, "double refund must not double the credit")
}

func TestService_RefundAdminAwardRemovesTokens(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)
	adminID := newLedgerUser(t, conn)

	award, err := svc.Grant(ctx, GrantInput{
		UserID:      userID,
		Amount:      80,
		Type:        enums.TransactionTypeAdminAward,
		Description: "Promo award",
		CreatedBy:   &adminID,
	})
	require.NoError(t, err)

	reversal, err := svc.Refund(ctx, RefundInput{TransactionID: award.ID, ActorID: adminID})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionTypeExpire, reversal.Type)
	assert.Nil(t, reversal.ExpiresAt, "debit reversals carry no expiry")

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestService_RefundRejectsNonRefundableTypes(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)
	adminID := newLedgerUser(t, conn)

	earned, err := svc.Grant(ctx, GrantInput{UserID: userID, Amount: 10, Description: "Seed"})
	require.NoError(t, err)

	_, err = svc.Refund(ctx, RefundInput{TransactionID: earned.ID, ActorID: adminID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotRefundable), "got %v", err)

	_, err = svc.Refund(ctx, RefundInput{TransactionID: 9999, ActorID: adminID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestService_ReferralSignup(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	referrerID := newLedgerUser(t, conn)
	referredID := newLedgerUser(t, conn)

	result, err := svc.ReferralSignup(ctx, ReferralSignupInput{
		ReferrerID: referrerID,
		ReferredID: referredID,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.ReferrerTx.Amount)
	assert.Equal(t, 50, result.ReferredTx.Amount)
	assert.Equal(t, enums.TransactionTypeReferral, result.ReferrerTx.Type)
	require.NotNil(t, result.Referral)
	assert.Equal(t, 100, result.Referral.TokensAwarded)

	// referral bonuses are the one credit that defaults to an expiry window
	require.NotNil(t, result.ReferrerTx.ExpiresAt)
	require.NotNil(t, result.ReferredTx.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 180), *result.ReferrerTx.ExpiresAt, time.Minute)

	referrerBalance, err := svc.Balance(ctx, referrerID)
	require.NoError(t, err)
	assert.Equal(t, 100, referrerBalance)

	referredBalance, err := svc.Balance(ctx, referredID)
	require.NoError(t, err)
	assert.Equal(t, 50, referredBalance)
}

func TestService_ReferralSignupDuplicateRollsBack(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	referrerID := newLedgerUser(t, conn)
	referredID := newLedgerUser(t, conn)

	_, err := svc.ReferralSignup(ctx, ReferralSignupInput{ReferrerID: referrerID, ReferredID: referredID})
	require.NoError(t, err)

	_, err = svc.ReferralSignup(ctx, ReferralSignupInput{ReferrerID: referrerID, ReferredID: referredID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	// the duplicate attempt's credits must have rolled back with it
	balance, err := svc.Balance(ctx, referrerID)
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	var txCount int64
	require.NoError(t, conn.Model(&models.Transaction{}).Count(&txCount).Error)
	assert.EqualValues(t, 2, txCount)
}

func TestService_ReferralSignupValidation(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	_, err := svc.ReferralSignup(ctx, ReferralSignupInput{ReferrerID: userID, ReferredID: userID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "self-referral must fail, got %v", err)

	_, err = svc.ReferralSignup(ctx, ReferralSignupInput{ReferrerID: userID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestService_ReferralSignupHonorsSettings(t *testing.T) {
	_, conn := setupLedgerService(t)
	ctx := context.Background()
	referrerID := newLedgerUser(t, conn)
	referredID := newLedgerUser(t, conn)

	svc, err := NewService(
		NewRepository(conn),
		referrals.NewRepository(conn),
		db.FromGorm(conn),
		stubSettings{values: map[string]int{
			settings.KeyTokensPerReferral:    250,
			settings.KeyReferralBonusNewUser: 75,
		}},
		config.LedgerConfig{DefaultExpiryDays: 180, ReferralRewardTokens: 100, ReferredBonusTokens: 50},
		nil,
	)
	require.NoError(t, err)

	result, err := svc.ReferralSignup(ctx, ReferralSignupInput{ReferrerID: referrerID, ReferredID: referredID})
	require.NoError(t, err)
	assert.Equal(t, 250, result.ReferrerTx.Amount)
	assert.Equal(t, 75, result.ReferredTx.Amount)
}

func TestService_ExpiringSoon(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	soon := time.Now().AddDate(0, 0, 10).Truncate(time.Second)
	far := time.Now().AddDate(0, 0, 90).Truncate(time.Second)
	_, err := svc.Grant(ctx, GrantInput{UserID: userID, Amount: 40, Description: "Soon", ExpiresAt: &soon})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{UserID: userID, Amount: 15, Description: "Soon too", ExpiresAt: &soon})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{UserID: userID, Amount: 60, Description: "Later", ExpiresAt: &far})
	require.NoError(t, err)

	result, err := svc.ExpiringSoon(ctx, userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, result.WindowDays)
	require.Len(t, result.Buckets, 1, "credits sharing an expiry collapse into one bucket")
	assert.Equal(t, 55, result.Buckets[0].Tokens)
	assert.Equal(t, 2, result.Buckets[0].Count)
	assert.WithinDuration(t, soon, result.Buckets[0].ExpiresAt, time.Second)
	assert.Equal(t, 55, result.TokensTotal)
}

func TestService_ExpiringSoonCustomWindow(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	soon := time.Now().AddDate(0, 0, 10)
	far := time.Now().AddDate(0, 0, 90)
	_, err := svc.Grant(ctx, GrantInput{UserID: userID, Amount: 40, Description: "Soon", ExpiresAt: &soon})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{UserID: userID, Amount: 60, Description: "Later", ExpiresAt: &far})
	require.NoError(t, err)

	result, err := svc.ExpiringSoon(ctx, userID, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, result.WindowDays)
	require.Len(t, result.Buckets, 2, "a wider window picks up the later credit")
	assert.Equal(t, 100, result.TokensTotal)
}

// serialTxRunner stands in for the row lock postgres takes on the user:
// only one ledger transaction runs at a time.
type serialTxRunner struct {
	mu    sync.Mutex
	inner txRunner
}

func (r *serialTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.WithTx(ctx, fn)
}

func TestService_ConcurrentSpendsCannotOverdraw(t *testing.T) {
	_, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	svc, err := NewService(
		NewRepository(conn),
		referrals.NewRepository(conn),
		&serialTxRunner{inner: db.FromGorm(conn)},
		stubSettings{},
		config.LedgerConfig{DefaultExpiryDays: 180},
		nil,
	)
	require.NoError(t, err)

	_, err = svc.Grant(ctx, GrantInput{UserID: userID, Amount: 100, Description: "Seed"})
	require.NoError(t, err)

	// Two spends race for a balance that only covers one of them. The debit
	// runs under the same transaction as the balance check, so whichever
	// spend commits second must see the first one's debit and fail.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, spendErr := svc.Spend(ctx, SpendInput{UserID: userID, Amount: 60, Description: "Race"})
			errs <- spendErr
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for spendErr := range errs {
		switch {
		case spendErr == nil:
			ok++
		case pkgerrors.IsCode(spendErr, pkgerrors.CodeInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected spend error: %v", spendErr)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 40, balance)

	var count int64
	require.NoError(t, conn.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", userID, enums.TransactionTypeSpend).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestService_SweepExpired(t *testing.T) {
	svc, conn := setupLedgerService(t)
	ctx := context.Background()
	userID := newLedgerUser(t, conn)

	past := time.Now().Add(-time.Hour)
	_, err := svc.Grant(ctx, GrantInput{UserID: userID, Amount: 100, Description: "Stale", ExpiresAt: &past})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, GrantInput{UserID: userID, Amount: 25, Description: "Fresh"})
	require.NoError(t, err)

	flipped, err := svc.SweepExpired(ctx, 500)
	require.NoError(t, err)
	assert.EqualValues(t, 1, flipped)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, balance, "expired credits no longer count")

	flipped, err = svc.SweepExpired(ctx, 500)
	require.NoError(t, err)
	assert.Zero(t, flipped)
}
