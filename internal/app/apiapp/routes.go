package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/config"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/handlers"
)

// Leave a service unset rather than assigning a typed nil pointer; handlers
// answer 503 for a nil service.
type Dependencies struct {
	AuthService    AuthService
	SwipeService   handlers.SwipeRecorder
	MatchService   handlers.MatchReader
	BillingService handlers.BillingService
	HealthChecks   map[string]handlers.Check
	Logger         *zap.Logger
	Config         config.Config
}

type AuthService interface {
	handlers.SessionService
	tokenValidator
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks, deps.Logger)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	billingHandler := handlers.NewBillingHandler(deps.BillingService, deps.Config.Billing.SignatureHeader, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	adminMW := RequireRole(string(enums.RoleAdmin))

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		})

		r.With(authMW).Post("/swipes", swipeHandler.Handle)
		r.With(authMW).Get("/swipes/cooldown", swipeHandler.Cooldown)
		r.With(authMW).Get("/matches", matchesHandler.List)
		r.With(authMW).Get("/matches/{id}", matchesHandler.Get)

		r.Route("/billing", func(r chi.Router) {
			r.Post("/webhook", billingHandler.Webhook)
			r.With(authMW).Post("/credits/checkout", billingHandler.CreditCheckout)
			r.With(authMW).Get("/balance", billingHandler.Balance)
			r.With(authMW).Get("/transactions", billingHandler.Transactions)
		})

		r.With(authMW, adminMW).Get("/admin/webhooks/{id}", billingHandler.WebhookEvent)
	})
}
