package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CheckoutItem is one line of a point-of-sale checkout request.
type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Checkout is a validated point-of-sale sale ready to be persisted.
type Checkout struct {
	CompanyID     uuid.UUID
	CustomerID    *uuid.UUID
	SellerID      *uuid.UUID
	Items         []CheckoutItem
	Discount      float64
	PaymentMethod string

	// Rates resolved from company settings.
	CommissionRate       float64 // percent
	LoyaltyPointsPerUnit float64
}

type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Subtotal  float64   `json:"subtotal"`
}

type Order struct {
	ID            uuid.UUID   `json:"id"`
	CompanyID     uuid.UUID   `json:"company_id"`
	Code          string      `json:"code"`
	CustomerID    *uuid.UUID  `json:"customer_id,omitempty"`
	SellerID      *uuid.UUID  `json:"seller_id,omitempty"`
	Items         []OrderItem `json:"items"`
	Discount      float64     `json:"discount"`
	Total         float64     `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`
	Commission    float64     `json:"commission"`
	LoyaltyPoints int64       `json:"loyalty_points"`
	CreatedAt     time.Time   `json:"created_at"`
}

// PricedProduct is the stock/price snapshot a checkout reads under lock.
type PricedProduct struct {
	ID    uuid.UUID
	Name  string
	Price float64
	Stock int64
}

type CheckoutRepository interface {
	// Checkout runs the whole sale in one transaction. price computes the
	// order from the locked products so stock checks and totals see the
	// same snapshot.
	Checkout(ctx context.Context, c *Checkout, price func([]PricedProduct) (*Order, error)) (*Order, error)
}

// PaymentGateway is a company's connection to an external payment provider.
type PaymentGateway struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Provider    string    `json:"provider"`
	Credentials string    `json:"-"` // sealed by secrets.Vault
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GatewayRepository interface {
	Upsert(ctx context.Context, g *PaymentGateway) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*PaymentGateway, error)
	Active(ctx context.Context, companyID uuid.UUID) (*PaymentGateway, error)
}
