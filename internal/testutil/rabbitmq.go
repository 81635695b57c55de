package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartRabbitMQ launches RabbitMQ and returns its URL and a ready connection.
func StartRabbitMQ(t *testing.T) (string, *amqp.Connection) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	url := "amqp://guest:guest@" + host + ":" + port.Port() + "/"
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	require.NoError(t, err)

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = conn.Close()
		_ = container.Terminate(cleanupCtx)
	})
	return url, conn
}

// BindQueue declares an exclusive queue bound to exchange with routingKey.
func BindQueue(t *testing.T, conn *amqp.Connection, exchange, routingKey string) (*amqp.Channel, string) {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	require.NoError(t, ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil))
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, routingKey, exchange, false, nil))
	return ch, q.Name
}

// WaitForMessage polls queue until a message arrives and decodes it into dest.
func WaitForMessage[T any](ctx context.Context, t *testing.T, ch *amqp.Channel, queue string, dest *T) {
	t.Helper()

	pollCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	backoff := 50 * time.Millisecond
	for {
		msg, ok, err := ch.Get(queue, true)
		require.NoError(t, err)
		if ok {
			require.NoError(t, json.Unmarshal(msg.Body, dest))
			return
		}

		select {
		case <-pollCtx.Done():
			t.Fatalf("timed out waiting for message on %s: %v", queue, pollCtx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
		}
	}
}
