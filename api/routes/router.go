package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/promoschemes/api/controllers"
	"github.com/angelmondragon/promoschemes/api/middleware"
	"github.com/angelmondragon/promoschemes/internal/catalog"
	"github.com/angelmondragon/promoschemes/internal/invoices"
	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/internal/reports"
	"github.com/angelmondragon/promoschemes/internal/schemes"
	"github.com/angelmondragon/promoschemes/pkg/config"
	"github.com/angelmondragon/promoschemes/pkg/db"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/metrics"
	"github.com/angelmondragon/promoschemes/pkg/redis"
)

// NewRouter mounts the promotional scheme API. redisP and idemStore may be nil
// when redis is not configured; metricsHandler may be nil to skip /metrics.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	idemStore redis.IdempotencyStore,
	metricsHandler http.Handler,
	httpMetrics *metrics.HTTPMetrics,
	catalogService catalog.Service,
	schemesService schemes.Service,
	invoicesService invoices.Service,
	notificationsService notifications.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
	)

	loc, err := cfg.Schemes.Location()
	if err != nil {
		loc = time.UTC
	}
	idempotent := middleware.Idempotency(idemStore, cfg.Idempotency.TTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Put("/items", controllers.UpsertItems(catalogService, logg))
			r.Put("/customers", controllers.UpsertCustomers(catalogService, logg))
			r.Put("/suppliers", controllers.UpsertSuppliers(catalogService, logg))
		})

		r.Route("/schemes", func(r chi.Router) {
			r.Get("/", controllers.ListSchemes(schemesService, logg))
			r.With(idempotent).Post("/", controllers.CreateScheme(schemesService, logg))
			r.Get("/active", controllers.ActiveSchemes(schemesService, loc, logg))
			r.Get("/overlapping", controllers.OverlappingSchemes(schemesService, logg))
			r.Get("/{schemeId}", controllers.GetScheme(schemesService, logg))
			r.Put("/{schemeId}", controllers.UpdateScheme(schemesService, logg))
			r.Delete("/{schemeId}", controllers.DeleteScheme(schemesService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.ListInvoices(invoicesService, logg))
			r.With(idempotent).Post("/", controllers.CreateInvoice(invoicesService, logg))
			r.Get("/{invoiceId}", controllers.GetInvoice(invoicesService, logg))
			r.With(idempotent).Post("/{invoiceId}/submit", controllers.SubmitInvoice(invoicesService, logg))
			r.With(idempotent).Post("/{invoiceId}/cancel", controllers.CancelInvoice(invoicesService, logg))
			r.Get("/{invoiceId}/notifications", controllers.ListInvoiceNotifications(notificationsService, logg))
		})

		r.Get("/reports/promotional-schemes", controllers.PromotionalSchemeReport(reportsService, logg))
	})

	return r
}
