package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/develand/impulsos-backend/api/controllers"
	"github.com/develand/impulsos-backend/api/middleware"
	"github.com/develand/impulsos-backend/internal/analytics"
	"github.com/develand/impulsos-backend/internal/auth"
	"github.com/develand/impulsos-backend/internal/catalog"
	"github.com/develand/impulsos-backend/internal/ledger"
	"github.com/develand/impulsos-backend/internal/orders"
	"github.com/develand/impulsos-backend/internal/referrals"
	"github.com/develand/impulsos-backend/internal/rewards"
	"github.com/develand/impulsos-backend/internal/settings"
	"github.com/develand/impulsos-backend/internal/users"
	"github.com/develand/impulsos-backend/pkg/config"
	"github.com/develand/impulsos-backend/pkg/db"
	"github.com/develand/impulsos-backend/pkg/enums"
	"github.com/develand/impulsos-backend/pkg/logger"
	"github.com/develand/impulsos-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   db.Pinger
	Redis                *redis.Client
	AuthService          auth.Service
	RegisterService      auth.RegisterService
	AdminRegisterService auth.AdminRegisterService
	LedgerService        ledger.Service
	LedgerRepo           ledger.Repository
	UsersRepo            *users.Repository
	ReferralsRepo        referrals.Repository
	SettingsService      settings.Service
	CatalogService       catalog.Service
	OrdersService        orders.Service
	RewardsService       rewards.Service
	AnalyticsRepo        *analytics.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(deps.AdminRegisterService, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/balance", controllers.MeBalance(deps.LedgerService, logg))
			r.Get("/transactions", controllers.MeHistory(deps.LedgerService, logg))
			r.Get("/transactions/expiring", controllers.MeExpiring(deps.LedgerService, logg))
			r.Get("/referrals", controllers.MeReferrals(deps.ReferralsRepo, logg))
		})

		r.Route("/store", func(r chi.Router) {
			r.Get("/products", controllers.StoreProducts(deps.CatalogService, logg))
			r.Post("/purchase", controllers.StorePurchase(deps.OrdersService, logg))
			r.Get("/orders", controllers.StoreMyOrders(deps.OrdersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Post("/tokens/award", controllers.AdminAwardTokens(deps.LedgerService, logg))
		r.Post("/transactions/{transactionId}/refund", controllers.AdminRefundTransaction(deps.LedgerService, logg))
		r.Get("/transactions", controllers.AdminTransactions(deps.LedgerService, logg))
		r.Get("/stats", controllers.AdminStats(deps.LedgerRepo, deps.UsersRepo, logg))
		r.Get("/analytics", controllers.AdminAnalytics(deps.AnalyticsRepo, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUsers(deps.UsersRepo, deps.LedgerService, logg))
			r.Get("/{userId}", controllers.AdminUserDetail(deps.UsersRepo, deps.LedgerService, logg))
			r.Patch("/{userId}/active", controllers.AdminUserSetActive(deps.UsersRepo, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminSettingsList(deps.SettingsService, logg))
			r.Put("/{key}", controllers.AdminSettingsUpdate(deps.SettingsService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProducts(deps.CatalogService, logg))
			r.Post("/", controllers.AdminProductCreate(deps.CatalogService, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.CatalogService, logg))
			r.Delete("/{productId}", controllers.AdminProductDeactivate(deps.CatalogService, logg))
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", controllers.AdminRewards(deps.RewardsService, logg))
			r.Post("/", controllers.AdminRewardCreate(deps.RewardsService, logg))
			r.Patch("/{rewardId}", controllers.AdminRewardUpdate(deps.RewardsService, logg))
			r.Delete("/{rewardId}", controllers.AdminRewardDelete(deps.RewardsService, logg))
		})

		r.Get("/orders", controllers.AdminOrders(deps.OrdersService, logg))
	})

	return r
}
