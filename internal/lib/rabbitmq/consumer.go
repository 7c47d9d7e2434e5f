package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
)

// ErrDeliveriesClosed брокер закрыл канал доставки (рестарт, потеря соединения).
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// maxInFlight число одновременно обрабатываемых сообщений очереди.
const maxInFlight = 10

// ConsumerMessage запускает потребителя очереди. Сообщение подтверждается,
// если handler вернул nil. При ошибке сообщение один раз возвращается в очередь,
// повторная ошибка отбрасывает его.
// Возвращаемый канал получает ErrDeliveriesClosed, если доставка прекратилась до отмены ctx,
// и закрывается после остановки потребителя.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) (<-chan error, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))

	done := make(chan error, 1)
	go func() {
		defer close(done)
		if err := consume(ctx, log, delivery, handler); err != nil {
			done <- fmt.Errorf("%s: %s: %w", op, queueName, err)
		}
	}()
	return done, nil
}

// consume читает доставки до отмены ctx или закрытия канала.
func consume(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery, handler func([]byte) error) error {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				log.Error("delivery channel closed by broker")
				return ErrDeliveriesClosed
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// сообщение не взято в работу, брокер вернет его в очередь
				return nil
			}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handle(log, d, handler)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

func handle(log *slog.Logger, d amqp.Delivery, handler func([]byte) error) {
	if err := handler(d.Body); err != nil {
		requeue := !d.Redelivered
		log.Warn("handler failed", sl.Err(err), slog.Bool("requeue", requeue))
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
