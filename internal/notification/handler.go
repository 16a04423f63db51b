// Package notification turns order lifecycle events into customer email.
// Delivery is best-effort: a lost email never affects order state.
package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/plantshop/internal/email"
	"github.com/example/plantshop/internal/order"
	"github.com/example/plantshop/internal/repository"
)

type Handler struct {
	emailService *email.Service
	users        *repository.Users
	products     *repository.Products
}

func NewHandler(emailSvc *email.Service, users *repository.Users, products *repository.Products) *Handler {
	return &Handler{emailService: emailSvc, users: users, products: products}
}

// HandleEvent processes one event from Kafka. Unknown event types are skipped
// without error so new producers never wedge the consumer group.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event order.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] unmarshal event: %v", err)
		return err
	}

	switch event.Type {
	case order.EventOrderConfirmed:
		return h.handleOrderConfirmed(ctx, event)
	case order.EventOrderFailed:
		var e order.OrderFailed
		if err := json.Unmarshal(event.Data, &e); err == nil {
			log.Printf("[Notifier] order %s failed: %s", e.OrderID, e.Reason)
		}
		return nil
	default:
		return nil
	}
}

func (h *Handler) handleOrderConfirmed(ctx context.Context, event order.Event) error {
	var e order.OrderConfirmed
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] unmarshal OrderConfirmed: %v", err)
		return err
	}

	u, err := h.users.Get(ctx, e.UserID)
	if err != nil {
		// The buyer may not exist in dev fixtures; nothing to send.
		log.Printf("[Notifier] order %s: look up user %s: %v", e.OrderID, e.UserID, err)
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		name := item.ProductID
		if p, err := h.products.Get(ctx, item.ProductID); err == nil {
			name = p.Title
		}
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	if err := h.emailService.SendOrderConfirmation(u.Email, e.OrderID, e.Total, items); err != nil {
		log.Printf("[Notifier] send confirmation to %s for order %s: %v", u.Email, e.OrderID, err)
		return err
	}

	log.Printf("[Notifier] confirmation sent to %s for order %s", u.Email, e.OrderID)
	return nil
}
