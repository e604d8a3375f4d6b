package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/controllers"
	ordercontrollers "github.com/prajjwolcodes/Kin-Bech-sub000/api/controllers/orders"
	"github.com/prajjwolcodes/Kin-Bech-sub000/api/middleware"
	checkoutsvc "github.com/prajjwolcodes/Kin-Bech-sub000/internal/checkout"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/orders"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/payments"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/payouts"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/config"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/logger"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redis.Pinger
	Registry *prometheus.Registry

	Checkout checkoutsvc.Service
	Orders   orders.Service
	Payments payments.Service
	Payouts  payouts.Service
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Checkout, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Get("/{orderId}/expiry", ordercontrollers.Expiry(deps.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.Post("/{orderId}/checkout", controllers.CheckoutOrder(deps.Payments, logg))
			r.Post("/{orderId}/payment/verify", controllers.VerifyPayment(deps.Payments, logg))
			r.Patch("/{orderId}/payment", controllers.UpdatePaymentStatus(deps.Payments, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin.String(), logg))
			r.Get("/summary", controllers.PayoutSummary(deps.Payouts, logg))
			r.Post("/{sellerId}", controllers.PaySeller(deps.Payouts, logg))
		})
	})

	return r
}
