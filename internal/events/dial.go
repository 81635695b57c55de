package events

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dialTimeout  = 10 * time.Second
	dialAttempts = 5
)

// Dial connects to RabbitMQ, retrying while the broker is still starting.
func Dial(ctx context.Context, url string, logger *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logger.Warn("rabbitmq dial failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, fmt.Errorf("dial rabbitmq: %w", lastErr)
}
