package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/develand/impulsos-backend/api/responses"
	"github.com/develand/impulsos-backend/api/validators"
	"github.com/develand/impulsos-backend/internal/analytics"
	pkgerrors "github.com/develand/impulsos-backend/pkg/errors"
	"github.com/develand/impulsos-backend/pkg/logger"
)

type analyticsRepository interface {
	SignupsPerDay(ctx context.Context, since time.Time) ([]analytics.DailyCount, error)
	TransactionTrends(ctx context.Context, since time.Time) ([]analytics.DailyTypeTotal, error)
	TopBalances(ctx context.Context, limit int) ([]analytics.UserBalance, error)
	PopularProducts(ctx context.Context, limit int) ([]analytics.ProductPopularity, error)
}

// AdminAnalytics assembles the dashboard aggregates: signups per day,
// ledger activity per day and type, the top balances, and the most
// purchased products. The lookback window defaults to 30 days.
func AdminAnalytics(repo analyticsRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics repository unavailable"))
			return
		}

		days, err := validators.ParseQueryInt(r, "days", 30, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		since := time.Now().AddDate(0, 0, -days)

		signups, err := repo.SignupsPerDay(r.Context(), since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate signups"))
			return
		}
		trends, err := repo.TransactionTrends(r.Context(), since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate transaction trends"))
			return
		}
		topUsers, err := repo.TopBalances(r.Context(), 10)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank user balances"))
			return
		}
		products, err := repo.PopularProducts(r.Context(), 10)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank products"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"window_days":        days,
			"user_growth":        signups,
			"transaction_trends": trends,
			"top_users":          topUsers,
			"popular_products":   products,
		})
	}
}
