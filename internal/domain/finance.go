package domain

import "time"

type FinanceType string

const (
	FinanceTypeSale    FinanceType = "sale"
	FinanceTypeRefund  FinanceType = "refund"
	FinanceTypePayment FinanceType = "payment"
)

type FinanceStatus string

const (
	FinanceStatusPending   FinanceStatus = "pending"
	FinanceStatusCompleted FinanceStatus = "completed"
	FinanceStatusFailed    FinanceStatus = "failed"
	FinanceStatusRefunded  FinanceStatus = "refunded"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodStripe = "stripe"
)

// FinanceRecord is one money movement tied to an order. An order gets a sale
// record at placement and may accumulate refund/payment records later.
type FinanceRecord struct {
	ID            string        `json:"id"`
	OrderID       string        `json:"order_id"`
	Amount        float64       `json:"amount"`
	Type          FinanceType   `json:"type"`
	Status        FinanceStatus `json:"status"`
	PaymentMethod string        `json:"payment_method"`
	TransactionID string        `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
