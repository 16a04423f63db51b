// Package order coordinates order placement: the one workflow in the system
// that writes several collections (order, stock, delivery, finance, audit)
// without a multi-document transaction. It runs as an explicit state machine
// with a declared compensation step for each forward step, so any partial
// failure leaves the store consistent before the caller sees an error.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/plantshop/internal/audit"
	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/repository"
	"github.com/example/plantshop/internal/stock"
)

// ErrFulfillment wraps delivery/finance write failures that happen after stock
// was already reserved.
var ErrFulfillment = errors.New("fulfillment write failed")

// placementState names each stage of the workflow. Failure states are terminal
// for the attempt; the caller may retry the whole operation, which creates a
// new order identity.
type placementState string

const (
	stateInitiated           placementState = "initiated"
	stateStockReserved       placementState = "stock_reserved"
	stateFulfillmentRecorded placementState = "fulfillment_recorded"
	stateCompleted           placementState = "completed"
	stateStockFailed         placementState = "stock_failed"
	stateFulfillmentFailed   placementState = "fulfillment_failed"
)

// Publisher emits order lifecycle events. Publishing is best-effort.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	orders     *repository.Orders
	ledger     *stock.Ledger
	deliveries *repository.Deliveries
	finances   *repository.Finances
	recorder   *audit.Recorder
	publisher  Publisher // nil disables event publishing
}

func NewService(
	orders *repository.Orders,
	ledger *stock.Ledger,
	deliveries *repository.Deliveries,
	finances *repository.Finances,
	recorder *audit.Recorder,
	publisher Publisher,
) *Service {
	return &Service{
		orders:     orders,
		ledger:     ledger,
		deliveries: deliveries,
		finances:   finances,
		recorder:   recorder,
		publisher:  publisher,
	}
}

type PlaceOrderInput struct {
	UserID           string
	Items            []domain.OrderItem
	ShippingAddress  string
	ShippingLocation string
	ShippingCost     float64
	Tax              float64
	PaymentMethod    string
}

// PlaceOrder runs the placement workflow to a terminal state. On success the
// returned order is confirmed, a pending delivery and a sale finance record
// exist, and stock was decremented once per line item. On failure every
// decrement made in this attempt was restored and the order is marked failed.
// Repeated calls are independent: this service does not deduplicate.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if err := domain.ValidateOrderInput(in.UserID, in.Items); err != nil {
		return nil, err
	}

	created, err := s.orders.Create(ctx, domain.Order{
		UserID:           in.UserID,
		Items:            in.Items,
		Total:            domain.OrderTotal(in.Items, in.ShippingCost, in.Tax),
		ShippingAddress:  in.ShippingAddress,
		ShippingLocation: in.ShippingLocation,
		ShippingCost:     in.ShippingCost,
		Tax:              in.Tax,
	})
	if err != nil {
		// Nothing was written, nothing to compensate.
		return nil, fmt.Errorf("initiate order: %w", err)
	}

	p := &placement{svc: s, order: created, state: stateInitiated, paymentMethod: in.PaymentMethod}

	if err := p.reserveStock(ctx); err != nil {
		return nil, err
	}
	if err := p.recordFulfillment(ctx); err != nil {
		return nil, err
	}
	if err := p.complete(ctx); err != nil {
		return nil, err
	}
	return p.order, nil
}

// placement carries one attempt through the state machine. reserved tracks
// exactly which decrements succeeded so compensation issues one restore per
// decrement, never more.
type placement struct {
	svc           *Service
	order         *domain.Order
	reserved      []domain.OrderItem
	state         placementState
	paymentMethod string
}

// reserveStock decrements stock item by item, in line-item order. A failed
// item unwinds every earlier decrement of this attempt and marks the order
// failed before returning the ledger's error.
func (p *placement) reserveStock(ctx context.Context) error {
	for _, item := range p.order.Items {
		if _, err := p.svc.ledger.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
			p.fail(ctx, stateStockFailed, err)
			return err
		}
		p.reserved = append(p.reserved, item)
	}
	p.state = stateStockReserved
	return nil
}

// recordFulfillment creates the delivery and the sale finance record. Either
// write failing after reservation compensates the stock in full: stock
// correctness takes priority over fulfillment bookkeeping.
func (p *placement) recordFulfillment(ctx context.Context) error {
	if _, err := p.svc.deliveries.Create(ctx, domain.Delivery{
		OrderID: p.order.ID,
		Status:  domain.DeliveryStatusPending,
	}); err != nil {
		p.fail(ctx, stateFulfillmentFailed, err)
		return fmt.Errorf("%w: delivery record: %v", ErrFulfillment, err)
	}

	method := p.paymentMethod
	if method == "" {
		method = domain.PaymentMethodCOD
	}
	if _, err := p.svc.finances.Create(ctx, domain.FinanceRecord{
		OrderID:       p.order.ID,
		Amount:        p.order.Total,
		Type:          domain.FinanceTypeSale,
		Status:        domain.FinanceStatusPending,
		PaymentMethod: method,
	}); err != nil {
		p.fail(ctx, stateFulfillmentFailed, err)
		return fmt.Errorf("%w: finance record: %v", ErrFulfillment, err)
	}

	p.state = stateFulfillmentRecorded
	return nil
}

// complete confirms the order, then emits the audit entry and lifecycle event.
// Audit and publish failures never roll anything back.
func (p *placement) complete(ctx context.Context) error {
	if err := p.svc.orders.SetStatus(ctx, p.order.ID, domain.OrderStatusConfirmed); err != nil {
		// Delivery and finance records exist but the order cannot be
		// confirmed; treat like any fulfillment failure and give the
		// stock back.
		p.fail(ctx, stateFulfillmentFailed, err)
		return fmt.Errorf("%w: confirm order: %v", ErrFulfillment, err)
	}
	p.order.Status = domain.OrderStatusConfirmed
	p.state = stateCompleted

	if err := p.svc.recorder.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditOrderCreated,
		UserID:       p.order.UserID,
		ResourceID:   p.order.ID,
		ResourceType: "order",
		Details:      map[string]any{"total": p.order.Total},
	}); err != nil {
		log.Printf("[Orders] order %s confirmed but audit write failed: %v", p.order.ID, err)
	}

	p.svc.publish(ctx, EventOrderConfirmed, p.order.ID, OrderConfirmed{
		OrderID:     p.order.ID,
		UserID:      p.order.UserID,
		Items:       p.order.Items,
		Total:       p.order.Total,
		ConfirmedAt: time.Now().UTC(),
	})
	return nil
}

// fail is the compensation path: restore every reserved item in reverse order
// of decrement, then move the order to failed. Runs to the end even when
// individual restores error, logging each so reconciliation has a trail.
// The failure event is published only after compensation finishes.
func (p *placement) fail(ctx context.Context, terminal placementState, cause error) {
	for i := len(p.reserved) - 1; i >= 0; i-- {
		item := p.reserved[i]
		if _, err := p.svc.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[Orders] order %s: restoring %d x %s failed: %v",
				p.order.ID, item.Quantity, item.ProductID, err)
		}
	}
	p.reserved = nil

	if err := p.svc.orders.SetStatus(ctx, p.order.ID, domain.OrderStatusFailed); err != nil {
		log.Printf("[Orders] order %s: marking failed did not persist: %v", p.order.ID, err)
	}
	p.order.Status = domain.OrderStatusFailed
	p.state = terminal

	p.svc.publish(ctx, EventOrderFailed, p.order.ID, OrderFailed{
		OrderID:  p.order.ID,
		UserID:   p.order.UserID,
		Reason:   cause.Error(),
		FailedAt: time.Now().UTC(),
	})
}

func (s *Service) publish(ctx context.Context, eventType, orderID string, data any) {
	if s.publisher == nil {
		return
	}
	event, err := newEvent(eventType, orderID, data)
	if err != nil {
		log.Printf("[Orders] encode %s event for order %s: %v", eventType, orderID, err)
		return
	}
	if err := s.publisher.Publish(ctx, orderID, event); err != nil {
		log.Printf("[Orders] publish %s for order %s: %v", eventType, orderID, err)
	}
}
