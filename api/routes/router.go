package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/facturex/backend/api/controllers"
	"github.com/facturex/backend/api/middleware"
	"github.com/facturex/backend/internal/accounts"
	"github.com/facturex/backend/internal/agent"
	"github.com/facturex/backend/internal/invoices"
	"github.com/facturex/backend/internal/movements"
	"github.com/facturex/backend/internal/payments"
	"github.com/facturex/backend/internal/rates"
	"github.com/facturex/backend/internal/transactions"
	"github.com/facturex/backend/pkg/config"
	"github.com/facturex/backend/pkg/db"
	"github.com/facturex/backend/pkg/logger"
	"github.com/facturex/backend/pkg/redis"
)

// Services bundles everything the HTTP surface needs.
type Services struct {
	Accounts     accounts.Service
	Movements    movements.Service
	Transactions transactions.Service
	Payments     payments.Service
	Invoices     invoices.Service
	Rates        rates.Service
	Agent        agent.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OrganizationContext(logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", controllers.AccountList(svcs.Accounts, logg))
			r.Post("/", controllers.AccountCreate(svcs.Accounts, logg))
			r.Route("/{accountId}", func(r chi.Router) {
				r.Get("/", controllers.AccountGet(svcs.Accounts, logg))
				r.Post("/deactivate", controllers.AccountDeactivate(svcs.Accounts, logg))
				r.Get("/movements", controllers.AccountMovements(svcs.Movements, logg))
				r.Get("/replay", controllers.AccountReplay(svcs.Movements, logg))
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.TransactionList(svcs.Transactions, logg))
			r.Post("/", controllers.TransactionCreate(svcs.Transactions, logg))
			r.Route("/{transactionId}", func(r chi.Router) {
				r.Get("/", controllers.TransactionGet(svcs.Transactions, logg))
				r.Delete("/", controllers.TransactionDelete(svcs.Transactions, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.PaymentList(svcs.Payments, logg))
			r.Post("/", controllers.PaymentRecord(svcs.Payments, logg))
			r.Route("/{paymentId}", func(r chi.Router) {
				r.Get("/", controllers.PaymentGet(svcs.Payments, logg))
				r.Delete("/", controllers.PaymentDelete(svcs.Payments, logg))
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(svcs.Invoices, logg))
			r.Post("/", controllers.InvoiceCreate(svcs.Invoices, logg))
			r.Post("/transitions", controllers.InvoiceTransitionBulk(svcs.Invoices, logg))
			r.Route("/{invoiceId}", func(r chi.Router) {
				r.Get("/", controllers.InvoiceGet(svcs.Invoices, logg))
				r.Post("/transition", controllers.InvoiceTransition(svcs.Invoices, logg))
				r.Post("/sent", controllers.InvoiceMarkSent(svcs.Invoices, logg))
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.SettingsGet(svcs.Rates, logg))
			r.Post("/", controllers.SettingsUpdate(svcs.Rates, logg))
		})

		r.Route("/agent", func(r chi.Router) {
			if redisClient != nil {
				policy := middleware.NewRateLimitPolicy("agent", cfg.Agent.MessageRateWindow, cfg.Agent.MessageRateLimit, 0)
				r.Use(middleware.RateLimit(policy, redisClient, logg))
			}
			r.Post("/messages", controllers.AgentMessage(svcs.Agent, logg))
			r.Get("/pending/{channelId}", controllers.AgentPending(svcs.Agent, logg))
		})
	})

	return r
}
