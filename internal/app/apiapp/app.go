package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/config"
	s3infra "github.com/lovevibesai/Love-Vibes-sub001/internal/infra/s3"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/infra/telegram"
	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
	redrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/redis"
	authsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/auth"
	billingsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/billing"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/services/chatrooms"
	matchessvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/matches"
	ratesvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/rate"
	swipesvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/swipes"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
				log.Warn("postgres schema bootstrap failed", zap.Error(err))
			}
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	txManager := pgrepo.NewTxManager(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	transactionRepo := pgrepo.NewTransactionRepo(pool)
	webhookEventRepo := pgrepo.NewWebhookEventRepo(pool)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, cfg.Auth.RefreshTTL)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Swipes.RatePerMinute, cfg.Swipes.RatePer10Seconds)

	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Tx:          txManager,
		SwipeStore:  swipeRepo,
		MatchStore:  matchRepo,
		ChatRooms:   chatrooms.NewUUIDAllocator(),
		RateLimiter: rateLimiter,
		Logger:      log.Named("swipes"),
	})
	matchesService := matchessvc.NewService(matchRepo)

	billingDeps := billingsvc.Dependencies{
		Tx:           txManager,
		Ledger:       webhookEventRepo,
		Users:        userRepo,
		Transactions: transactionRepo,
		Logger:       log.Named("billing"),
	}
	if cfg.Billing.StripeAPIKey != "" {
		billingDeps.Checkout = billingsvc.NewStripeCheckout(cfg.Billing.StripeAPIKey)
	}
	if archive := newArchive(cfg.S3, log); archive != nil {
		billingDeps.Archive = archive
	}
	if alerts, err := telegram.NewAlerts(cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID, log.Named("alerts")); err != nil {
		log.Warn("telegram alerts init failed, continuing without alerts", zap.Error(err))
	} else {
		billingDeps.Alerts = alerts
	}
	if cfg.Billing.WebhookSecret == "" {
		log.Warn("billing webhook secret is empty, webhooks will be rejected")
	}
	billingService := billingsvc.NewService(billingDeps, billingsvc.Config{
		WebhookSecret:      cfg.Billing.WebhookSecret,
		SignatureTolerance: cfg.Billing.SignatureTolerance,
		Currency:           cfg.Billing.Currency,
		SuccessURL:         cfg.Billing.SuccessURL,
		CancelURL:          cfg.Billing.CancelURL,
	})

	checks := map[string]handlers.Check{
		"redis": func(ctx context.Context) error { return redrepo.Ping(ctx, redisClient) },
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	} else {
		checks["postgres"] = func(context.Context) error { return errors.New("postgres is not configured") }
	}

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		SwipeService:   swipeService,
		MatchService:   matchesService,
		BillingService: billingService,
		HealthChecks:   checks,
		Logger:         log,
		Config:         cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

// newArchive returns nil when archiving is disabled or the client cannot be built.
func newArchive(cfg config.S3Config, log *zap.Logger) *s3infra.Archive {
	if !cfg.Enabled {
		return nil
	}
	client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		log.Warn("s3 init failed, webhook archive disabled", zap.Error(err))
		return nil
	}
	return s3infra.NewArchive(client, cfg.Bucket)
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
