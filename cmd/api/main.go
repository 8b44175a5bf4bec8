package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/develand/impulsos-backend/api/routes"
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
	"github.com/develand/impulsos-backend/pkg/logger"
	"github.com/develand/impulsos-backend/pkg/metrics"
	"github.com/develand/impulsos-backend/pkg/migrate"
	"github.com/develand/impulsos-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	referralsRepo := referrals.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)

	settingsService, err := settings.NewService(settingsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	ledgerMetrics := metrics.NewLedgerMetrics(prometheus.DefaultRegisterer)
	ledgerService, err := ledger.NewService(ledgerRepo, referralsRepo, dbClient, settingsService, cfg.Ledger, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  usersRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Ledger:         ledgerService,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin register service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Orders:   ordersRepo,
		Products: catalogRepo,
		Ledger:   ledgerService,
		Settings: settingsService,
		Config:   cfg.Ledger,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	rewardsService, err := rewards.NewService(rewards.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	analyticsRepo := analytics.NewRepository(gormDB)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			AuthService:          authService,
			RegisterService:      registerService,
			AdminRegisterService: adminRegisterService,
			LedgerService:        ledgerService,
			LedgerRepo:           ledgerRepo,
			UsersRepo:            usersRepo,
			ReferralsRepo:        referralsRepo,
			SettingsService:      settingsService,
			CatalogService:       catalogService,
			OrdersService:        ordersService,
			RewardsService:       rewardsService,
			AnalyticsRepo:        analyticsRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
