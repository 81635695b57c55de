package events

import (
	"errors"
	"fmt"
	"time"
)

var errMalformedEnvelope = errors.New("malformed event envelope")

// EventEnvelope wraps every payload published on the events exchange.
// Sequence increases by one per PartitionKey.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       T         `json:"payload"`
}

// Validate checks the envelope identity a consumer relies on and reports
// every problem at once.
func (e EventEnvelope[T]) Validate(name string, version int) error {
	var problems []error
	if e.EventName != name {
		problems = append(problems, fmt.Errorf("event %q, want %q", e.EventName, name))
	}
	if e.EventVersion != version {
		problems = append(problems, fmt.Errorf("version %d, want %d", e.EventVersion, version))
	}
	if e.EventID == "" {
		problems = append(problems, errors.New("no event id"))
	}
	if e.PartitionKey == "" {
		problems = append(problems, errors.New("no partition key"))
	}
	if e.Sequence < 1 {
		problems = append(problems, fmt.Errorf("sequence %d is not positive", e.Sequence))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errMalformedEnvelope, errors.Join(problems...))
}
