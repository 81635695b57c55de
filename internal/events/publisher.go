package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/cart"
	"github.com/Lolobw32/ecom-oslan/internal/order"
)

const publishTimeout = 3 * time.Second

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type PublisherOptions struct {
	Producer string
	// CorrelationID reads the request correlation id from a context.
	CorrelationID func(ctx context.Context) string
}

type Publisher struct {
	ch            channel
	seq           Sequencer
	producer      string
	correlationID func(ctx context.Context) string
	logger        *zap.Logger
	now           func() time.Time
}

func NewPublisher(conn *amqp.Connection, seq Sequencer, logger *zap.Logger, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	return newPublisher(ch, seq, logger, opts), nil
}

func newPublisher(ch channel, seq Sequencer, logger *zap.Logger, opts PublisherOptions) *Publisher {
	if opts.Producer == "" {
		opts.Producer = defaultProducer
	}
	if opts.CorrelationID == nil {
		opts.CorrelationID = func(context.Context) string { return "" }
	}
	return &Publisher{
		ch:            ch,
		seq:           seq,
		producer:      opts.Producer,
		correlationID: opts.CorrelationID,
		logger:        logger.Named("events"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func newEnvelope[T any](ctx context.Context, p *Publisher, name, partitionKey string, seq int64, payload T) EventEnvelope[T] {
	return EventEnvelope[T]{
		EventName:     name,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: p.correlationID(ctx),
		Producer:      p.producer,
		PartitionKey:  partitionKey,
		Sequence:      seq,
		OccurredAt:    p.now(),
		Payload:       payload,
	}
}

// CartChanged is partitioned by session so consumers see counts in order.
func (p *Publisher) CartChanged(ctx context.Context, sessionID string, count int) error {
	seq, err := p.seq.NextSequence(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}
	env := newEnvelope(ctx, p, EventTypeCartChanged, sessionID, seq, CartChangedPayload{
		SessionID: sessionID,
		ItemCount: count,
	})
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartChanged: %w", err)
	}
	return p.publishJSON(ctx, CartChangedRoutingKey, body)
}

func (p *Publisher) OrderPlaced(ctx context.Context, o order.Order) error {
	payload := OrderPlacedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		PlacedAt:    o.CreatedAt,
		Items:       make([]PlacedItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, PlacedItem{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.PriceAtPurchase,
		})
	}

	seq, err := p.seq.NextSequence(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}
	env := newEnvelope(ctx, p, EventTypeOrderPlaced, o.ID, seq, payload)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}
	return p.publishJSON(ctx, OrderPlacedRoutingKey, body)
}

// CartObserver announces every saved cart count for the session. Failures are
// logged and dropped.
func (p *Publisher) CartObserver(sessionID string) cart.CountObserver {
	return func(ctx context.Context, count int) {
		if err := p.CartChanged(ctx, sessionID, count); err != nil {
			p.logger.Warn("cart changed notification failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
