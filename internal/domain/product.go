package domain

import "time"

// ProductStatus values match what the storefront publishes.
const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusArchived = "archived"
)

// ProductAttributes holds the growing-condition metadata shown on listings.
type ProductAttributes struct {
	USDAZone string `json:"usda_zone"`
	Light    string `json:"light"`
	Water    string `json:"water"`
}

// Product is a plant for sale. Stock is owned exclusively by the stock ledger:
// nothing else may write the stock field, and stock never goes below zero.
type Product struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	Price        float64           `json:"price"`
	Currency     string            `json:"currency"`
	Stock        int               `json:"stock"`
	Images       []string          `json:"images"`
	Status       string            `json:"status"`
	Attributes   ProductAttributes `json:"attributes"`
	SolutionTags []string          `json:"solution_tags"`
	Genus        string            `json:"genus"`
	CommonName   string            `json:"common_name"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

const DefaultCurrency = "BDT"
