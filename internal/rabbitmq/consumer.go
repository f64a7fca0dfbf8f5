package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"hotel_service/internal/lib/logger/sl"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	log     *slog.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewConsumer(log *slog.Logger, urlForConn string, queueName string) (*Consumer, error) {
	const op = "rabbitmq.NewConsumer"

	conn, ch, q, err := open(urlForConn, queueName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Consumer{
		log:     log,
		conn:    conn,
		channel: ch,
		queue:   q,
	}, nil
}

// StartReading blocks, passing every delivery to handler until ctx is done
// or the channel is closed. Deliveries are acked after the handler returns,
// and a delivery being handled when ctx is cancelled is still acked.
func (c *Consumer) StartReading(ctx context.Context, handler func([]byte)) error {
	const op = "rabbitmq.StartReading"

	msgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer name
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	consume(ctx, c.log, msgs, handler)

	return nil
}

func consume(ctx context.Context, log *slog.Logger, msgs <-chan amqp.Delivery, handler func([]byte)) {
	const op = "rabbitmq.consume"

	log = log.With(slog.String("op", op))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			handler(msg.Body)
			if err := msg.Ack(false); err != nil {
				log.Error("failed to ack delivery",
					slog.Uint64("delivery_tag", msg.DeliveryTag),
					sl.Err(err),
				)
			}
		}
	}
}

func (c *Consumer) Close() {
	_ = c.channel.Close()
	_ = c.conn.Close()
}
