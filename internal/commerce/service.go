// Package commerce implements the point-of-sale checkout, charge creation and
// payment gateway connections. Provider API calls are out of scope: a
// gateway here is only a stored, sealed credential set.
package commerce

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/records"
	"github.com/evolutech/platform/internal/secrets"
)

// Company settings keys read at checkout.
const (
	SettingCommissionRate = "commission_rate"
	SettingLoyaltyPoints  = "loyalty_points_per_unit"
)

// Providers accepted by Connect.
//
//nolint:gochecknoglobals // static allow-list
var Providers = []string{"asaas", "mercadopago", "pagseguro", "stripe"}

// ManualGateway marks charges with no connected provider.
const ManualGateway = "manual"

// RecordWriter is the part of the records service commerce writes through.
type RecordWriter interface {
	Create(ctx context.Context, scope records.Scope, table string, input map[string]any) (domain.Record, error)
	Invalidate(ctx context.Context, companyID uuid.UUID, tables ...string)
}

// Auditor records who changed what.
type Auditor interface {
	Record(ctx context.Context, entry *domain.AuditEntry)
}

type Service struct {
	checkout  domain.CheckoutRepository
	gateways  domain.GatewayRepository
	companies domain.CompanyRepository
	records   RecordWriter
	vault     *secrets.Vault
	auditor   Auditor
}

func NewService(
	checkout domain.CheckoutRepository,
	gateways domain.GatewayRepository,
	companies domain.CompanyRepository,
	rw RecordWriter,
	vault *secrets.Vault,
	auditor Auditor,
) *Service {
	return &Service{
		checkout:  checkout,
		gateways:  gateways,
		companies: companies,
		records:   rw,
		vault:     vault,
		auditor:   auditor,
	}
}

// CheckoutInput is a point-of-sale sale as submitted by the register.
type CheckoutInput struct {
	CustomerID    *uuid.UUID
	SellerID      *uuid.UUID
	Items         []domain.CheckoutItem
	Discount      float64
	PaymentMethod string
}

// Checkout sells the items in one transaction: stock is checked and
// decremented, the order is written, and seller commission and customer
// loyalty points are recorded. The seller defaults to the caller.
func (s *Service) Checkout(ctx context.Context, scope records.Scope, in CheckoutInput) (*domain.Order, error) {
	items, err := mergeItems(in.Items)
	if err != nil {
		return nil, fmt.Errorf("commerce.Checkout: %w", err)
	}
	if in.Discount < 0 {
		return nil, fmt.Errorf("commerce.Checkout: %w", domain.Invalid("discount", "discount cannot be negative"))
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = "dinheiro"
	}

	company, err := s.companies.GetByID(ctx, scope.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("commerce.Checkout: %w", err)
	}

	c := &domain.Checkout{
		CompanyID:            scope.CompanyID,
		CustomerID:           in.CustomerID,
		SellerID:             in.SellerID,
		Items:                items,
		Discount:             in.Discount,
		PaymentMethod:        method,
		CommissionRate:       settingFloat(company.Settings, SettingCommissionRate, 0),
		LoyaltyPointsPerUnit: settingFloat(company.Settings, SettingLoyaltyPoints, 1),
	}
	if c.SellerID == nil && scope.ActorID != uuid.Nil {
		seller := scope.ActorID
		c.SellerID = &seller
	}

	order, err := s.checkout.Checkout(ctx, c, func(products []domain.PricedProduct) (*domain.Order, error) {
		return PriceOrder(c, products, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("commerce.Checkout: %w", err)
	}

	s.records.Invalidate(ctx, scope.CompanyID, "orders", "products", "commissions", "loyalty_transactions")
	s.audit(ctx, scope, domain.AuditActionCreate, "orders", order.ID.String(), map[string]any{
		"total": order.Total, "items": len(order.Items), "payment_method": order.PaymentMethod,
	})
	return order, nil
}

// PriceOrder builds the order for c from the locked product snapshot. It
// fails with domain.ErrInsufficientStock when any item exceeds stock.
func PriceOrder(c *domain.Checkout, products []domain.PricedProduct, now time.Time) (*domain.Order, error) {
	byID := make(map[uuid.UUID]domain.PricedProduct, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, domain.ErrNotFound)
		}
		if int64(it.Quantity) > p.Stock {
			return nil, fmt.Errorf("%w: %s has %d in stock, %d requested", domain.ErrInsufficientStock, p.Name, p.Stock, it.Quantity)
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Subtotal:  Round(p.Price * float64(it.Quantity)),
		})
	}

	id := uuid.New()
	o := &domain.Order{
		ID:            id,
		CompanyID:     c.CompanyID,
		Code:          "PDV-" + strings.ToUpper(id.String()[:8]),
		CustomerID:    c.CustomerID,
		SellerID:      c.SellerID,
		Items:         items,
		Discount:      Round(c.Discount),
		PaymentMethod: c.PaymentMethod,
		Status:        "completed",
		CreatedAt:     now,
	}
	o.Total = OrderTotal(items, c.Discount)
	if c.SellerID != nil {
		o.Commission = Commission(o.Total, c.CommissionRate)
	}
	if c.CustomerID != nil {
		o.LoyaltyPoints = LoyaltyPoints(o.Total, c.LoyaltyPointsPerUnit)
	}
	return o, nil
}

// ChargeInput is a request to bill a customer.
type ChargeInput struct {
	CustomerID  *uuid.UUID
	Description string
	Amount      float64
	DueDate     string // YYYY-MM-DD
}

// CreateCharge stores a pending charge against the company's connected
// gateway, or "manual" when none is connected.
func (s *Service) CreateCharge(ctx context.Context, scope records.Scope, in ChargeInput) (domain.Record, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("commerce.CreateCharge: %w", domain.Invalid("amount", "amount must be greater than zero"))
	}
	due, err := time.Parse(time.DateOnly, strings.TrimSpace(in.DueDate))
	if err != nil {
		return nil, fmt.Errorf("commerce.CreateCharge: %w", domain.Invalid("due_date", "due date must be YYYY-MM-DD"))
	}

	provider := ManualGateway
	gw, err := s.gateways.Active(ctx, scope.CompanyID)
	switch {
	case err == nil:
		provider = gw.Provider
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("commerce.CreateCharge: %w", err)
	}

	input := map[string]any{
		"description": in.Description,
		"amount":      Round(in.Amount),
		"due_date":    due,
		"gateway":     provider,
		"status":      "pending",
	}
	if in.CustomerID != nil {
		input["customer_id"] = *in.CustomerID
	}

	rec, err := s.records.Create(ctx, scope, "charges", input)
	if err != nil {
		return nil, fmt.Errorf("commerce.CreateCharge: %w", err)
	}
	return rec, nil
}

// Connect stores provider credentials for the company, replacing any earlier
// connection to the same provider.
func (s *Service) Connect(ctx context.Context, scope records.Scope, provider string, creds map[string]string) (*domain.PaymentGateway, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !slices.Contains(Providers, provider) {
		return nil, fmt.Errorf("commerce.Connect: %w", domain.Invalid("provider", fmt.Sprintf("unsupported provider %q", provider)))
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("commerce.Connect: %w", domain.Invalid("credentials", "credentials are required"))
	}

	sealed, err := s.vault.SealCredentials(scope.CompanyID, provider, creds)
	if err != nil {
		return nil, fmt.Errorf("commerce.Connect: %w", err)
	}

	now := time.Now()
	gw := &domain.PaymentGateway{
		ID:          uuid.New(),
		CompanyID:   scope.CompanyID,
		Provider:    provider,
		Credentials: sealed,
		Status:      "connected",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.gateways.Upsert(ctx, gw); err != nil {
		return nil, fmt.Errorf("commerce.Connect: %w", err)
	}

	s.audit(ctx, scope, domain.AuditActionUpdate, "payment_gateways", gw.ID.String(), map[string]any{"provider": provider})
	return gw, nil
}

// Gateways lists the company's connections. Credentials never leave the
// store in clear.
func (s *Service) Gateways(ctx context.Context, companyID uuid.UUID) ([]*domain.PaymentGateway, error) {
	list, err := s.gateways.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("commerce.Gateways: %w", err)
	}
	return list, nil
}

func (s *Service) audit(ctx context.Context, scope records.Scope, action, entity, id string, details map[string]any) {
	if s.auditor == nil {
		return
	}
	companyID := scope.CompanyID
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		CompanyID:  &companyID,
		Action:     action,
		EntityType: entity,
		EntityID:   id,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if scope.ActorID != uuid.Nil {
		actor := scope.ActorID
		entry.ActorID = &actor
	}
	s.auditor.Record(ctx, entry)
}

// mergeItems validates items and folds repeated products into one line,
// keeping first-seen order.
func mergeItems(items []domain.CheckoutItem) ([]domain.CheckoutItem, error) {
	if len(items) == 0 {
		return nil, domain.Invalid("items", "at least one item is required")
	}
	out := make([]domain.CheckoutItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		if it.ProductID == uuid.Nil {
			return nil, domain.Invalid("items", "product_id is required")
		}
		if it.Quantity <= 0 {
			return nil, domain.Invalid("items", "quantity must be greater than zero")
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

func settingFloat(settings map[string]any, key string, fallback float64) float64 {
	switch v := settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}
