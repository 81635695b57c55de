package events

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const (
	EventsExchange        = "oslan.events"
	CartChangedRoutingKey = "cart.changed.v1"
	OrderPlacedRoutingKey = "order.placed.v1"
	EventTypeCartChanged  = "CartChanged"
	EventTypeOrderPlaced  = "OrderPlaced"
	defaultProducer       = "oslan-storefront"
	eventVersion          = 1
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

type CartChangedPayload struct {
	SessionID string `json:"sessionId"`
	ItemCount int    `json:"itemCount"`
}

type OrderPlacedPayload struct {
	OrderID     string          `json:"orderId"`
	UserID      string          `json:"userId,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []PlacedItem    `json:"items"`
	PlacedAt    time.Time       `json:"placedAt"`
}

type PlacedItem struct {
	ProductID string          `json:"productId"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CartChangedEvent = EventEnvelope[CartChangedPayload]
type OrderPlacedEvent = EventEnvelope[OrderPlacedPayload]
