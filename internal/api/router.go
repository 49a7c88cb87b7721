package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/semanticpilot/backend/internal/api/handler"
	"github.com/semanticpilot/backend/internal/api/middleware"
	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
	"github.com/semanticpilot/backend/internal/core/service"
	"github.com/semanticpilot/backend/internal/infrastructure/auth"
	mongodb "github.com/semanticpilot/backend/internal/infrastructure/db/mongo"
	redisdb "github.com/semanticpilot/backend/internal/infrastructure/db/redis"
	"github.com/semanticpilot/backend/internal/infrastructure/payments"
	"github.com/semanticpilot/backend/internal/infrastructure/ratelimit"
	"github.com/semanticpilot/backend/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// rdb may be nil; rate limiting then uses the process-local counter store.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("semanticpilot"))

	// --- Dependencies ---
	profileRepo := mongodb.NewProfileRepository(db)
	historyRepo := mongodb.NewHistoryRepository(db)

	var counters ports.CounterStore
	if rdb != nil {
		counters = redisdb.NewCounter(rdb)
	} else {
		counters = ratelimit.NewMemoryStore()
	}

	stripeClient := payments.NewClient(payments.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		PriceIDPro:    cfg.Stripe.PriceIDPro,
		FrontendURL:   cfg.Stripe.FrontendURL,
	})

	profileService := service.NewProfileService(profileRepo, service.ProfileConfig{
		StartingCredits: cfg.Credits.Starting,
		ResetCredits:    cfg.Credits.Reset,
	}, log)
	paymentService := service.NewPaymentService(profileRepo, stripeClient, stripeClient, cfg.Credits.ProBonus, log)
	cleanupService := service.NewCleanupService(historyRepo, cfg.Cleanup.HistoryCap, cfg.Cleanup.SweepWorkers, log)

	gate := middleware.NewGate(auth.NewJWTVerifier(cfg.JWTSecret), profileService, counters, log)
	rate := &middleware.RatePolicy{Limit: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window}

	accountHandler := handler.NewAccountHandler(profileService)
	paymentsHandler := handler.NewPaymentsHandler(paymentService)
	adminHandler := handler.NewAdminHandler(profileService, cleanupService)
	reportsHandler := handler.NewReportsHandler(historyRepo, cfg.Cleanup.HistoryCap)

	// --- Webhook (authenticated by its signature, not a bearer token) ---
	e.POST("/payments/webhook", paymentsHandler.Webhook)

	// --- Authenticated routes ---
	e.GET("/auth/me", accountHandler.Me,
		gate.Admit(middleware.RoutePolicy{Name: "me", Rate: rate}))
	e.POST("/activity/heartbeat", accountHandler.Heartbeat,
		gate.Admit(middleware.RoutePolicy{Name: "heartbeat", Rate: rate}))
	e.GET("/reports", reportsHandler.List,
		gate.Admit(middleware.RoutePolicy{Name: "reports", Rate: rate}))
	e.POST("/payments/create-checkout-session", paymentsHandler.CreateCheckoutSession,
		gate.Admit(middleware.RoutePolicy{Name: "checkout", Rate: rate}))

	// --- Admin routes ---
	adminOnly := gate.Admit(middleware.RoutePolicy{
		Name:  "admin",
		Roles: []domain.Role{domain.RoleAdmin},
		Rate:  rate,
	})
	e.GET("/admin/users", adminHandler.ListUsers, adminOnly)
	e.POST("/admin/user/:uid/add-credits", adminHandler.AddCredits, adminOnly)
	e.POST("/admin/user/:uid/reset-credits", adminHandler.ResetCredits, adminOnly)
	e.POST("/admin/user/:uid/make-admin", adminHandler.MakeAdmin, adminOnly)
	e.POST("/admin/user/:uid/remove-admin", adminHandler.RemoveAdmin, adminOnly)
	e.POST("/admin/user/:uid/ban", adminHandler.BanUser, adminOnly)
	e.POST("/admin/cleanup/enforce-history-limit", adminHandler.EnforceHistoryLimit, adminOnly)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
