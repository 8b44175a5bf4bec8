package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/develand/impulsos-backend/internal/referrals"
	"github.com/develand/impulsos-backend/internal/settings"
	"github.com/develand/impulsos-backend/pkg/config"
	"github.com/develand/impulsos-backend/pkg/db"
	"github.com/develand/impulsos-backend/pkg/db/models"
	"github.com/develand/impulsos-backend/pkg/enums"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/metrics"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SettingsProvider resolves runtime-tunable parameters. Missing values fall
// back to the configured default.
type SettingsProvider interface {
	Int(ctx context.Context, key string, fallback int) int
}

// Service defines the token ledger operations.
type Service interface {
	Grant(ctx context.Context, input GrantInput) (*models.Transaction, error)
	Spend(ctx context.Context, input SpendInput) (*models.Transaction, error)
	Refund(ctx context.Context, input RefundInput) (*models.Transaction, error)
	ReferralSignup(ctx context.Context, input ReferralSignupInput) (*ReferralSignupResult, error)
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	History(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Transaction, error)
	ExpiringSoon(ctx context.Context, userID uuid.UUID, days int) (*ExpiringSoonResult, error)
	ListAll(ctx context.Context, filter Filter) ([]models.Transaction, int64, error)
	SweepExpired(ctx context.Context, batchSize int) (int64, error)
}

// GrantInput credits tokens to a user.
type GrantInput struct {
	UserID       uuid.UUID
	Amount       int
	Type         enums.TransactionType
	Description  string
	Observations *string
	ExpiresAt    *time.Time
	CreatedBy    *uuid.UUID
}

// SpendInput debits tokens from a user.
type SpendInput struct {
	UserID       uuid.UUID
	Amount       int
	Description  string
	Observations *string
}

// RefundInput reverses a previously recorded entry.
type RefundInput struct {
	TransactionID int64
	ActorID       uuid.UUID
	Reason        string
}

// ReferralSignupInput credits both sides of a completed referral.
type ReferralSignupInput struct {
	ReferrerID uuid.UUID
	ReferredID uuid.UUID
}

// ReferralSignupResult carries everything written by a referral signup.
type ReferralSignupResult struct {
	ReferrerTx *models.Transaction
	ReferredTx *models.Transaction
	Referral   *models.Referral
}

// ExpiryBucket sums the credits sharing one expiry instant.
type ExpiryBucket struct {
	ExpiresAt time.Time
	Tokens    int
	Count     int
}

// ExpiringSoonResult groups credits about to expire by their exact expiry
// time, soonest bucket first.
type ExpiringSoonResult struct {
	Buckets     []ExpiryBucket
	TokensTotal int
	WindowDays  int
}

type service struct {
	repo          Repository
	referralsRepo referrals.Repository
	tx            txRunner
	settings      SettingsProvider
	cfg           config.LedgerConfig
	metrics       *metrics.LedgerMetrics
	now           func() time.Time
}

// NewService wires the ledger service. The metrics argument may be nil.
func NewService(
	repo Repository,
	referralsRepo referrals.Repository,
	tx txRunner,
	settingsProvider SettingsProvider,
	cfg config.LedgerConfig,
	ledgerMetrics *metrics.LedgerMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if referralsRepo == nil {
		return nil, fmt.Errorf("referrals repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if settingsProvider == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	return &service{
		repo:          repo,
		referralsRepo: referralsRepo,
		tx:            tx,
		settings:      settingsProvider,
		cfg:           cfg,
		metrics:       ledgerMetrics,
		now:           time.Now,
	}, nil
}

func (s *service) Grant(ctx context.Context, input GrantInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	grantType := input.Type
	if grantType == "" {
		grantType = enums.TransactionTypeEarn
	}
	if !grantType.IsValid() || !grantType.IsCredit() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid grant type %q", grantType))
	}

	txn := &models.Transaction{
		UserID:       input.UserID,
		Amount:       input.Amount,
		Type:         grantType,
		Description:  input.Description,
		Observations: input.Observations,
		ExpiresAt:    input.ExpiresAt,
		CreatedBy:    input.CreatedBy,
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		s.metrics.IncOperation("grant", "failure")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record grant")
	}
	s.metrics.IncOperation("grant", "ok")
	s.metrics.AddTokens(string(grantType), input.Amount)
	return txn, nil
}

func (s *service) Spend(ctx context.Context, input SpendInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}

	txn := &models.Transaction{
		UserID:       input.UserID,
		Amount:       input.Amount,
		Type:         enums.TransactionTypeSpend,
		Description:  input.Description,
		Observations: input.Observations,
	}

	// The balance check and the debit insert run under the same user lock
	// so two concurrent spends cannot both pass the check.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockUser(ctx, input.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user")
		}
		balance, err := repo.Balance(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive balance")
		}
		if balance < input.Amount {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance").
				WithDetails(map[string]int{"balance": balance, "requested": input.Amount})
		}
		if err := repo.Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record spend")
		}
		return nil
	})
	if err != nil {
		outcome := "failure"
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientBalance) {
			outcome = "insufficient_balance"
		}
		s.metrics.IncOperation("spend", outcome)
		return nil, err
	}
	s.metrics.IncOperation("spend", "ok")
	s.metrics.AddTokens(string(enums.TransactionTypeSpend), input.Amount)
	return txn, nil
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Transaction, error) {
	if input.TransactionID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var reversal *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		original, err := repo.GetByIDForUpdate(ctx, input.TransactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if original.Refunded {
			return pkgerrors.New(pkgerrors.CodeAlreadyRefunded, "transaction already refunded")
		}

		reversal, err = buildReversal(original, input)
		if err != nil {
			return err
		}

		if err := repo.Create(ctx, reversal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reversal")
		}
		won, err := repo.MarkRefunded(ctx, original.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark refunded")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeAlreadyRefunded, "transaction already refunded")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncOperation("refund", "failure")
		return nil, err
	}
	s.metrics.IncOperation("refund", "ok")
	return reversal, nil
}

// buildReversal produces the compensating entry for a refundable original.
// Refunding a spend credits the tokens back; refunding an admin award takes
// the awarded tokens away again.
func buildReversal(original *models.Transaction, input RefundInput) (*models.Transaction, error) {
	var reversalType enums.TransactionType
	switch original.Type {
	case enums.TransactionTypeSpend:
		reversalType = enums.TransactionTypeEarn
	case enums.TransactionTypeAdminAward:
		reversalType = enums.TransactionTypeExpire
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotRefundable,
			fmt.Sprintf("transactions of type %q cannot be refunded", original.Type))
	}

	var observations *string
	if input.Reason != "" {
		reason := input.Reason
		observations = &reason
	}
	actor := input.ActorID
	originalID := original.ID
	return &models.Transaction{
		UserID:       original.UserID,
		Amount:       original.Amount,
		Type:         reversalType,
		Description:  fmt.Sprintf("Refund: %s", original.Description),
		Observations: observations,
		RefundOf:     &originalID,
		CreatedBy:    &actor,
	}, nil
}

func (s *service) ReferralSignup(ctx context.Context, input ReferralSignupInput) (*ReferralSignupResult, error) {
	if input.ReferrerID == uuid.Nil || input.ReferredID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referrer and referred ids are required")
	}
	if input.ReferrerID == input.ReferredID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users cannot refer themselves")
	}

	reward := s.settings.Int(ctx, settings.KeyTokensPerReferral, s.cfg.ReferralRewardTokens)
	bonus := s.settings.Int(ctx, settings.KeyReferralBonusNewUser, s.cfg.ReferredBonusTokens)
	expiry := s.defaultExpiry(ctx)

	result := &ReferralSignupResult{
		ReferrerTx: &models.Transaction{
			UserID:      input.ReferrerID,
			Amount:      reward,
			Type:        enums.TransactionTypeReferral,
			Description: "Referral bonus for inviting a new user",
			ExpiresAt:   expiry,
		},
		ReferredTx: &models.Transaction{
			UserID:      input.ReferredID,
			Amount:      bonus,
			Type:        enums.TransactionTypeReferral,
			Description: "Welcome bonus for joining through a referral",
			ExpiresAt:   expiry,
		},
	}

	// Both credits and the referral record commit together. A duplicate
	// signup for the same pair trips the unique constraint at commit, so no
	// pre-check is needed.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, result.ReferrerTx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record referrer credit")
		}
		if err := repo.Create(ctx, result.ReferredTx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record referred credit")
		}
		result.Referral = &models.Referral{
			ReferrerID:    input.ReferrerID,
			ReferredID:    input.ReferredID,
			ReferrerTxID:  &result.ReferrerTx.ID,
			ReferredTxID:  &result.ReferredTx.ID,
			TokensAwarded: reward,
		}
		if err := s.referralsRepo.WithTx(tx).Create(ctx, result.Referral); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "referral already recorded for this pair")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record referral")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncOperation("referral_signup", "failure")
		return nil, err
	}
	s.metrics.IncOperation("referral_signup", "ok")
	s.metrics.AddTokens(string(enums.TransactionTypeReferral), reward+bonus)
	return result, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive balance")
	}
	return balance, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	txns, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, nil
}

// ExpiringSoon reports the caller's credits that expire within the window.
// A non-positive days argument falls back to the configured window.
func (s *service) ExpiringSoon(ctx context.Context, userID uuid.UUID, days int) (*ExpiringSoonResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if days <= 0 {
		days = s.settings.Int(ctx, settings.KeyExpiringSoonDays, s.cfg.ExpiringSoonDays)
	}
	until := s.now().AddDate(0, 0, days)

	txns, err := s.repo.ExpiringWithin(ctx, userID, until)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiring credits")
	}
	result := &ExpiringSoonResult{WindowDays: days}
	for _, txn := range txns {
		at := *txn.ExpiresAt
		if n := len(result.Buckets); n > 0 && result.Buckets[n-1].ExpiresAt.Equal(at) {
			result.Buckets[n-1].Tokens += txn.Amount
			result.Buckets[n-1].Count++
		} else {
			result.Buckets = append(result.Buckets, ExpiryBucket{ExpiresAt: at, Tokens: txn.Amount, Count: 1})
		}
		result.TokensTotal += txn.Amount
	}
	return result, nil
}

func (s *service) ListAll(ctx context.Context, filter Filter) ([]models.Transaction, int64, error) {
	txns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, total, nil
}

// SweepExpired flips the expired flag on one batch of credits whose
// expires_at has passed. It returns how many rows were flipped; callers loop
// until zero.
func (s *service) SweepExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "batch size must be positive")
	}

	var flipped int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ids, err := repo.ListExpiredCandidates(ctx, s.now(), batchSize)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired candidates")
		}
		flipped, err = repo.MarkExpired(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark expired")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return flipped, nil
}

func (s *service) defaultExpiry(ctx context.Context) *time.Time {
	days := s.settings.Int(ctx, settings.KeyDefaultTokenExpiryDays, s.cfg.DefaultExpiryDays)
	if days <= 0 {
		return nil
	}
	expiry := s.now().AddDate(0, 0, days)
	return &expiry
}
