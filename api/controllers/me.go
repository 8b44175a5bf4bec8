package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/develand/impulsos-backend/api/middleware"
	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/api/validators"
	"github.com/develand/impulsos-backend/internal/ledger"
	"github.com/develand/impulsos-backend/internal/referrals"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
	"github.com/develand/impulsos-backend/pkg/pagination"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session identity")
	}
	return userID, nil
}

func pageFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Offset: offset}, nil
}

// MeBalance returns the caller's live token balance.
func MeBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"balance": balance})
	}
}

// MeHistory returns the caller's ledger entries, newest first.
func MeHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"transactions": newTransactionViews(entries),
			"limit":        page.Limit,
			"offset":       page.Offset,
		})
	}
}

type expiryBucketView struct {
	ExpiresAt time.Time `json:"expires_at"`
	Tokens    int       `json:"tokens"`
	Count     int       `json:"count"`
}

// MeExpiring reports the caller's credits due to expire inside the warning
// window, grouped by expiry time. The window defaults to the configured
// value and can be widened with ?days=.
func MeExpiring(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 0, 0, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ExpiringSoon(r.Context(), userID, days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buckets := make([]expiryBucketView, 0, len(result.Buckets))
		for _, b := range result.Buckets {
			buckets = append(buckets, expiryBucketView{ExpiresAt: b.ExpiresAt, Tokens: b.Tokens, Count: b.Count})
		}

		responses.WriteSuccess(w, map[string]any{
			"expiring":     buckets,
			"tokens_total": result.TokensTotal,
			"window_days":  result.WindowDays,
		})
	}
}

type referralView struct {
	ID            int64     `json:"id"`
	ReferredID    uuid.UUID `json:"referred_id"`
	TokensAwarded int       `json:"tokens_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

// MeReferrals returns the caller's referral stats and completed referrals.
func MeReferrals(repo referrals.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referrals repository unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := repo.StatsByReferrer(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral stats"))
			return
		}
		records, err := repo.ListByReferrer(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list referrals"))
			return
		}

		views := make([]referralView, 0, len(records))
		for i := range records {
			views = append(views, referralView{
				ID:            records[i].ID,
				ReferredID:    records[i].ReferredID,
				TokensAwarded: records[i].TokensAwarded,
				CreatedAt:     records[i].CreatedAt,
			})
		}

		responses.WriteSuccess(w, map[string]any{
			"stats":     stats,
			"referrals": views,
		})
	}
}
