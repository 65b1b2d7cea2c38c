package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schoolpay/backend/api/controllers"
	"github.com/schoolpay/backend/api/middleware"
	"github.com/schoolpay/backend/pkg/auth"
	"github.com/schoolpay/backend/pkg/config"
	"github.com/schoolpay/backend/pkg/logger"
)

// Controllers bundles the handler sets the router mounts.
type Controllers struct {
	Health         *controllers.HealthController
	Payments       *controllers.PaymentsController
	Reconciliation *controllers.ReconciliationController
	Ledger         *controllers.LedgerController
	Receipts       *controllers.ReceiptsController
	Students       *controllers.StudentsController
}

// New assembles the HTTP router. The payment verification callback is public;
// everything else under /api/v1 requires an authenticated admin or office
// user, with reconciliation restricted to admins.
func New(cfg *config.Config, logg *logger.Logger, ctrl Controllers, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS())

	r.Get("/health/live", ctrl.Health.Live)
	r.Get("/health/ready", ctrl.Health.Ready)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		// Gateway callback: authenticated by signature, not by JWT.
		api.Post("/payments/verify", ctrl.Payments.Verify)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.Auth(cfg.JWT, logg))

			protected.Group(func(office chi.Router) {
				office.Use(middleware.RequireRoles(logg, auth.RoleAdmin, auth.RoleOffice))
				office.Post("/payments/order", ctrl.Payments.CreateOrder)
				office.Post("/payments/cash", ctrl.Payments.RecordCash)
				office.Get("/students/lookup", ctrl.Students.Lookup)
				office.Get("/students/{studentId}/ledger", ctrl.Ledger.Statement)
				office.Post("/transactions/{transactionId}/receipt", ctrl.Receipts.Regenerate)
			})

			protected.Group(func(admin chi.Router) {
				admin.Use(middleware.RequireRoles(logg, auth.RoleAdmin))
				admin.Get("/reconciliation/pending", ctrl.Reconciliation.ListPending)
				admin.Post("/reconciliation/{transactionId}/verify", ctrl.Reconciliation.Verify)
				admin.Post("/reconciliation/{transactionId}/revoke", ctrl.Reconciliation.Revoke)
			})
		})
	})

	return r
}
