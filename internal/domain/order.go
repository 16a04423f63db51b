package domain

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFailed    OrderStatus = "failed"
)

var (
	ErrEmptyOrder      = errors.New("order must have at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	ErrInvalidPrice    = errors.New("item price must not be negative")
	ErrMissingProduct  = errors.New("item product id is required")
	ErrMissingUser     = errors.New("order user id is required")

	ErrInvalidTransition = errors.New("invalid order status transition")
)

// validOrderTransitions defines allowed status transitions. Orders are never
// deleted; they only move forward to a terminal status.
var validOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusFailed},
	OrderStatusConfirmed: {},
	OrderStatusFailed:    {},
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	for _, s := range validOrderTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	Items            []OrderItem `json:"items"`
	Total            float64     `json:"total"`
	Status           OrderStatus `json:"status"`
	ShippingAddress  string      `json:"shipping_address"`
	ShippingLocation string      `json:"shipping_location"`
	ShippingCost     float64     `json:"shipping_cost"`
	Tax              float64     `json:"tax"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// OrderTotal is the sum of item subtotals plus shipping and tax.
func OrderTotal(items []OrderItem, shippingCost, tax float64) float64 {
	total := shippingCost + tax
	for _, it := range items {
		total += float64(it.Quantity) * it.Price
	}
	return total
}

// ValidateOrderInput rejects malformed order requests before any write happens.
func ValidateOrderInput(userID string, items []OrderItem) error {
	if userID == "" {
		return ErrMissingUser
	}
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for i, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("item %d: %w", i, ErrMissingProduct)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
		if it.Price < 0 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidPrice)
		}
	}
	return nil
}
