// Package services публикует уведомления пользователям в RabbitMQ.
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/notes-app/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// Publisher отправляет уведомления в обменник notifications.
// Ключ маршрутизации совпадает с видом уведомления.
type Publisher struct {
	mu  sync.Mutex
	ch  rabbitmq.Publisher
	log *slog.Logger
}

// NewPublisher создает Publisher. ch может быть nil, тогда уведомления только логируются.
func NewPublisher(log *slog.Logger, ch rabbitmq.Publisher) *Publisher {
	return &Publisher{
		ch:  ch,
		log: log,
	}
}

// Notify публикует уведомление. Ошибка публикации не возвращается:
// исходная операция к этому моменту уже выполнена.
func (p *Publisher) Notify(ctx context.Context, n models.Notification) {
	const op = "services.notification.Notify"
	log := p.log.With(slog.String("op", op), slog.String("kind", n.Kind))

	if p.ch == nil {
		log.Warn("notification channel is not configured, message dropped")
		return
	}
	if err := ctx.Err(); err != nil {
		log.Warn("context done before publish", sl.Err(err))
		return
	}

	// amqp.Channel нельзя использовать из нескольких горутин одновременно
	p.mu.Lock()
	err := rabbitmq.PublishMessage(p.ch, rabbitmq.NotificationsExchange, n.Kind, n)
	p.mu.Unlock()
	if err != nil {
		log.Warn("failed to publish notification", sl.Err(err))
		return
	}
	log.Debug("notification published")
}
