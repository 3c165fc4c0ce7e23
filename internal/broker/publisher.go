package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	maxPublishAttempts = 120
	backoffStep        = 500 * time.Millisecond
	backoffCap         = 10 * time.Second
	logEveryNthAttempt = 10
)

// Publisher is the only layer that retries transient failures; everything
// upstream treats a publish error as a skipped unit of work.
type Publisher struct {
	pool *ChannelPool
}

func NewPublisher(pool *ChannelPool) *Publisher {
	return &Publisher{pool: pool}
}

// Publish sends one persistent JSON message to a durable quorum queue,
// retrying with linear-capped backoff until the attempt ceiling.
func (p *Publisher) Publish(ctx context.Context, queue string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		lastErr = p.publishOnce(ctx, queue, body)
		if lastErr == nil {
			return nil
		}

		if attempt == 1 || attempt%logEveryNthAttempt == 0 {
			slog.Warn("publish failed, retrying",
				"queue", queue,
				"attempt", attempt,
				"error", lastErr,
			)
		}

		wait := backoff(attempt)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("publish to %s exhausted %d attempts: %w", queue, maxPublishAttempts, lastErr)
}

func (p *Publisher) publishOnce(ctx context.Context, queue string, body []byte) error {
	ch, err := p.pool.Rent()
	if err != nil {
		return err
	}
	defer p.pool.Return(ch)

	if err := declareQueue(ch, queue); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func declareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-queue-type": "quorum",
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return nil
}

func backoff(attempt int) time.Duration {
	wait := time.Duration(attempt) * backoffStep
	if wait > backoffCap {
		return backoffCap
	}
	return wait
}
