// Package sender воркер, который читает очереди уведомлений и отправляет письма.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/notes-app/internal/config"
	"github.com/magabrotheeeer/notes-app/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/notes-app/internal/services/sender"
)

// App notification-sender.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queues        []rabbitmq.QueueConfig
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очереди уведомлений.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(logger, transport, cfg.SignInURL())

	return &App{
		conn:          conn,
		ch:            ch,
		queues:        queues,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run потребляет все очереди уведомлений до отмены ctx.
// Если брокер закрыл доставку любой очереди, Run возвращает ошибку.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failed := make(chan error, len(a.queues))
	for _, q := range a.queues {
		done, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, a.senderService.SendNotification)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			a.close()
			return err
		}
		go func(done <-chan error) {
			if err, ok := <-done; ok && err != nil {
				failed <- err
			}
		}(done)
		a.logger.Info("consumer started", slog.String("queue", q.QueueName))
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("sender service shutting down gracefully")
	case runErr = <-failed:
		a.logger.Error("consumer stopped", sl.Err(runErr))
	}
	a.close()
	return runErr
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
