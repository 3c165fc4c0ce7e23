package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Handler processes one delivery body. Returning an error requeues the
// message, so handlers must tolerate redelivery.
type Handler func(ctx context.Context, body []byte) error

type Consumer struct {
	pool *ChannelPool
}

func NewConsumer(pool *ChannelPool) *Consumer {
	return &Consumer{pool: pool}
}

// Run consumes the queue until the context is cancelled, then cancels the
// consumer and closes its channel. Cancellation is cooperative: an
// in-flight handler finishes before the loop exits.
func (c *Consumer) Run(ctx context.Context, queue string, handler Handler) error {
	ch, err := c.pool.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareQueue(ch, queue); err != nil {
		return err
	}

	tag := "pulse-" + uuid.NewString()
	deliveries, err := ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", queue, err)
	}

	slog.Info("consumer started", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			if err := ch.Cancel(tag, false); err != nil {
				slog.Error("failed to cancel consumer", "queue", queue, "error", err)
			}
			slog.Info("consumer stopped", "queue", queue)
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queue)
			}

			if err := handler(ctx, d.Body); err != nil {
				slog.Error("handler failed, requeueing", "queue", queue, "error", err)
				if nackErr := d.Nack(false, true); nackErr != nil {
					slog.Error("failed to nack delivery", "queue", queue, "error", nackErr)
				}
				continue
			}

			if err := d.Ack(false); err != nil {
				slog.Error("failed to ack delivery", "queue", queue, "error", err)
			}
		}
	}
}
