package order

import (
	"encoding/json"
	"time"

	"github.com/example/plantshop/internal/domain"
)

const (
	EventOrderConfirmed = "OrderConfirmed"
	EventOrderFailed    = "OrderFailed"
)

// Event is the envelope published to Kafka for order lifecycle changes,
// keyed by order id so one order's events stay in sequence.
type Event struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type OrderConfirmed struct {
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	Items       []domain.OrderItem `json:"items"`
	Total       float64            `json:"total"`
	ConfirmedAt time.Time          `json:"confirmed_at"`
}

type OrderFailed struct {
	OrderID  string    `json:"order_id"`
	UserID   string    `json:"user_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

func newEvent(eventType, orderID string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:       eventType,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}
