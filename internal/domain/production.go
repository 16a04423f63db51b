package domain

import (
	"fmt"
	"time"
)

type ProductionActivity string

const (
	ProductionReceived ProductionActivity = "received"
	ProductionMoved    ProductionActivity = "moved"
	ProductionShipped  ProductionActivity = "shipped"
	ProductionDamaged  ProductionActivity = "damaged"
)

// ParseProductionActivity validates an activity coming from a request body.
func ParseProductionActivity(s string) (ProductionActivity, error) {
	switch ProductionActivity(s) {
	case ProductionReceived, ProductionMoved, ProductionShipped, ProductionDamaged:
		return ProductionActivity(s), nil
	}
	return "", fmt.Errorf("unknown production activity %q", s)
}

// ProductionRecord logs nursery floor movements for a product.
type ProductionRecord struct {
	ID        string             `json:"id"`
	ProductID string             `json:"product_id"`
	Activity  ProductionActivity `json:"activity"`
	Quantity  int                `json:"quantity"`
	Location  string             `json:"location"`
	Notes     string             `json:"notes,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
