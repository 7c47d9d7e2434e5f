// Package notesapp собирает HTTP API заметок: хранилище, кэш, брокер,
// процессор платежей, сервисы и маршруты.
package notesapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/cache"
	"github.com/magabrotheeeer/notes-app/internal/config"
	"github.com/magabrotheeeer/notes-app/internal/lib/jwt"
	"github.com/magabrotheeeer/notes-app/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/metrics"
	"github.com/magabrotheeeer/notes-app/internal/migrations"
	"github.com/magabrotheeeer/notes-app/internal/paymentprovider"
	adminservice "github.com/magabrotheeeer/notes-app/internal/services/admin"
	authservice "github.com/magabrotheeeer/notes-app/internal/services/auth"
	billingservice "github.com/magabrotheeeer/notes-app/internal/services/billing"
	notesservice "github.com/magabrotheeeer/notes-app/internal/services/notes"
	notificationservice "github.com/magabrotheeeer/notes-app/internal/services/notification"
	"github.com/magabrotheeeer/notes-app/internal/storage/repository"
)

// App HTTP API заметок.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключается к зависимостям и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	// без брокера API работает, письма не отправляются
	var publisherCh rabbitmq.Publisher
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Warn("rabbitmq unavailable, notifications disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			logger.Warn("failed to setup rabbitmq channel, notifications disabled", sl.Err(err))
			_ = conn.Close()
		} else {
			app.conn, app.ch = conn, ch
			publisherCh = ch
		}
	}
	notifier := notificationservice.NewPublisher(logger, publisherCh)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	gate := access.NewGate(jwtMaker)
	provider := paymentprovider.NewClient(cfg.Stripe, nil)

	deps := Deps{
		Gate:     gate,
		Auth:     authservice.NewAuthService(logger, db, jwtMaker, cacheRedis, cfg.RoleTTL, notifier),
		Notes:    notesservice.NewNotesService(logger, db, cacheRedis, gate, cfg.NoteTTL),
		Ledger:   billingservice.NewLedger(logger, db, provider, notifier),
		Checkout: billingservice.NewCheckoutService(logger, provider, db, cfg.PriceID, cfg.SuccessURL(), cfg.CancelURL()),
		Admin:    adminservice.NewAdminService(logger, db, cacheRedis),
		Provider: provider,
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
		DB:       db,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, deps)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает сервер и останавливает его после отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
