package notesapp

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/config"
	adminremove "github.com/magabrotheeeer/notes-app/internal/http/handlers/admin/remove"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/admin/role"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/auth/signin"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/billing/checkout"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/billing/status"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/health"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/notes/create"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/notes/list"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/notes/read"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/notes/remove"
	"github.com/magabrotheeeer/notes-app/internal/http/handlers/notes/update"
	"github.com/magabrotheeeer/notes-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/notes-app/internal/metrics"
	"github.com/magabrotheeeer/notes-app/internal/paymentprovider"
	adminservice "github.com/magabrotheeeer/notes-app/internal/services/admin"
	authservice "github.com/magabrotheeeer/notes-app/internal/services/auth"
	billingservice "github.com/magabrotheeeer/notes-app/internal/services/billing"
	notesservice "github.com/magabrotheeeer/notes-app/internal/services/notes"
)

// Deps зависимости обработчиков, собранные в New.
type Deps struct {
	Gate     *access.Gate
	Auth     *authservice.AuthService
	Notes    *notesservice.NotesService
	Ledger   *billingservice.Ledger
	Checkout *billingservice.CheckoutService
	Admin    *adminservice.AdminService
	Provider *paymentprovider.Client
	Metrics  *metrics.Metrics
	DB       health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.Metrics(d.Metrics),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, d.DB).ServeHTTP)

		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.AuthRateLimit, cfg.AuthRateBurst))
			r.Post("/auth/signup", signup.New(logger, d.Auth).ServeHTTP)
			r.Post("/auth/signin", signin.New(logger, d.Auth).ServeHTTP)
		})

		// Webhook процессора платежей, проверяется подписью
		r.Post("/billing/webhook", webhook.New(logger, d.Provider, d.Ledger, d.Metrics).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Gate, logger))

			r.Get("/notes", list.New(logger, d.Notes).ServeHTTP)
			r.Post("/notes", create.New(logger, d.Notes).ServeHTTP)
			r.Get("/notes/{id}", read.New(logger, d.Notes).ServeHTTP)
			r.Put("/notes/{id}", update.New(logger, d.Notes).ServeHTTP)
			r.Delete("/notes/{id}", remove.New(logger, d.Notes).ServeHTTP)

			r.Get("/billing/subscription", status.New(logger, d.Ledger).ServeHTTP)
			r.Post("/billing/checkout", checkout.New(logger, d.Checkout).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger, d.Auth, d.Gate))
				r.Get("/admin/users", users.New(logger, d.Admin).ServeHTTP)
				r.Patch("/admin/users/{id}/role", role.New(logger, d.Admin).ServeHTTP)
				r.Delete("/admin/users/{id}", adminremove.New(logger, d.Admin).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
