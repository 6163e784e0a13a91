package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced = "order.placed"

	envelopeVersion = 1
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// Envelope is the stable wire structure written to every topic.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

type OrderPlacedItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	SubTotal  string `json:"subTotal"`
}

// OrderPlaced is published after a verified order commits.
type OrderPlaced struct {
	OrderID           uuid.UUID         `json:"id"`
	GatewayOrderID    string            `json:"orderId"`
	PaymentID         string            `json:"paymentId"`
	UserID            uuid.UUID         `json:"userId"`
	DeliveryAddressID uuid.UUID         `json:"deliveryAddress"`
	Quantity          int               `json:"quantity"`
	SubTotalAmount    string            `json:"subTotalAmt"`
	Items             []OrderPlacedItem `json:"items"`
	PlacedAt          time.Time         `json:"placedAt"`
}

func newEnvelope(eventType string, actor *ActorRef, data any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: now.UTC(),
		Actor:      actor,
		Data:       raw,
	}, nil
}
