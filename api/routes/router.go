package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flipearn/flipearn-backend/api/controllers"
	webhookcontrollers "github.com/flipearn/flipearn-backend/api/controllers/webhooks"
	"github.com/flipearn/flipearn-backend/api/middleware"
	"github.com/flipearn/flipearn-backend/internal/listings"
	"github.com/flipearn/flipearn-backend/internal/transactions"
	identitywebhook "github.com/flipearn/flipearn-backend/internal/webhooks/identity"
	stripewebhook "github.com/flipearn/flipearn-backend/internal/webhooks/stripe"
	"github.com/flipearn/flipearn-backend/internal/withdrawals"
	"github.com/flipearn/flipearn-backend/pkg/config"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	"github.com/flipearn/flipearn-backend/pkg/logger"
	"github.com/flipearn/flipearn-backend/pkg/redis"
	"github.com/flipearn/flipearn-backend/pkg/stripe"
)

// Pinger is the readiness surface a backing store exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          Pinger
	Redis       *redis.Client
	Listings    listings.Service
	Withdrawals withdrawals.Service
	Payments    transactions.Service

	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service
	StripeWebhookGuard   *stripewebhook.IdempotencyGuard
	IdentityWebhook      *identitywebhook.Service
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

	apiPolicy := middleware.NewRateLimitPolicy(
		"api",
		cfg.Limits.Window,
		cfg.Limits.IPLimit,
		cfg.Limits.UserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhookService, deps.StripeClient, deps.StripeWebhookGuard, logg))
		r.Post("/identity", webhookcontrollers.IdentityWebhook(deps.IdentityWebhook, cfg.Identity.WebhookSecret, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Identity, logg))
		r.Use(middleware.RateLimit(apiPolicy, deps.Redis, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/listing", func(r chi.Router) {
			r.Post("/", controllers.CreateListing(deps.Listings, logg))
			r.Get("/mine", controllers.MyListings(deps.Listings, logg))
			r.Post("/{listingId}/credential", controllers.SubmitCredential(deps.Listings, logg))
			r.Delete("/{listingId}", controllers.DeleteListing(deps.Listings, logg))
			r.Post("/{listingId}/checkout", controllers.CreateCheckout(deps.Payments, logg))
		})

		r.Route("/withdrawal", func(r chi.Router) {
			r.Post("/", controllers.RequestWithdrawal(deps.Withdrawals, logg))
			r.Get("/mine", controllers.MyWithdrawals(deps.Withdrawals, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin.String(), logg))
			r.Get("/is-admin", controllers.IsAdmin(logg))
			r.Get("/dashboard", controllers.Dashboard(deps.Payments, logg))
			r.Get("/all-listings", controllers.AllListings(deps.Listings, logg))
			r.Put("/change-status/{listingId}", controllers.ChangeListingStatus(deps.Listings, logg))
			r.Get("/unverified-listings", controllers.UnverifiedListings(deps.Listings, logg))
			r.Get("/unchanged-listings", controllers.UnchangedListings(deps.Listings, logg))
			r.Get("/credential/{listingId}", controllers.GetCredential(deps.Listings, logg))
			r.Put("/verify-credential/{listingId}", controllers.VerifyCredential(deps.Listings, logg))
			r.Put("/change-credential/{listingId}", controllers.ChangeCredential(deps.Listings, logg))
			r.Get("/transactions", controllers.AdminTransactions(deps.Payments, logg))
			r.Get("/withdraw-requests", controllers.WithdrawRequests(deps.Withdrawals, logg))
			r.Put("/withdrawal-mark/{id}", controllers.MarkWithdrawalPaid(deps.Withdrawals, logg))
		})
	})

	return r
}
