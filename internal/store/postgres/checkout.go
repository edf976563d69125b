package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
)

// CheckoutRepo persists point-of-sale sales.
type CheckoutRepo struct {
	pool *pgxpool.Pool
}

func NewCheckoutRepo(pool *pgxpool.Pool) *CheckoutRepo {
	return &CheckoutRepo{pool: pool}
}

// Checkout locks the sold products, prices the order from that snapshot and
// writes the order, its items, the stock decrement, the seller commission and
// the customer's loyalty points before committing.
func (r *CheckoutRepo) Checkout(
	ctx context.Context,
	c *domain.Checkout,
	price func([]domain.PricedProduct) (*domain.Order, error),
) (*domain.Order, error) {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}

	var order *domain.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, ref := range checkoutReferences(c) {
			if err := ref.verify(ctx, tx, c.CompanyID); err != nil {
				return err
			}
		}

		rows, err := tx.Query(ctx,
			`SELECT id, name, price, stock FROM products
			 WHERE company_id = $1 AND id = ANY($2)
			 ORDER BY id
			 FOR UPDATE`,
			c.CompanyID, ids,
		)
		if err != nil {
			return err
		}
		products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PricedProduct, error) {
			var p domain.PricedProduct
			err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
			return p, err
		})
		if err != nil {
			return err
		}

		order, err = price(products)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		batch.Queue(
			`INSERT INTO orders (id, company_id, code, customer_id, seller_id, total, discount, payment_method, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
			order.ID, order.CompanyID, order.Code, order.CustomerID, order.SellerID,
			order.Total, order.Discount, order.PaymentMethod, order.Status, order.CreatedAt,
		)
		for _, it := range order.Items {
			batch.Queue(
				`INSERT INTO order_items (id, company_id, order_id, product_id, name, quantity, unit_price, subtotal)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.New(), order.CompanyID, order.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.Subtotal,
			)
			batch.Queue(
				`UPDATE products SET stock = stock - $1, updated_at = now() WHERE company_id = $2 AND id = $3`,
				it.Quantity, order.CompanyID, it.ProductID,
			)
		}
		if order.SellerID != nil && order.Commission > 0 {
			batch.Queue(
				`INSERT INTO commissions (id, company_id, user_id, order_id, amount, rate, status, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $7)`,
				uuid.New(), order.CompanyID, *order.SellerID, order.ID, order.Commission, c.CommissionRate, order.CreatedAt,
			)
		}
		if order.CustomerID != nil && order.LoyaltyPoints > 0 {
			batch.Queue(
				`INSERT INTO loyalty_transactions (id, company_id, customer_id, order_id, points, kind, description, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, 'earn', $6, $7, $7)`,
				uuid.New(), order.CompanyID, *order.CustomerID, order.ID, order.LoyaltyPoints, "Compra "+order.Code, order.CreatedAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, wrapErr("checkoutRepo.Checkout", err)
	}

	return order, nil
}

// reference is a row a company record points at, checked to belong to the
// same company.
type reference struct {
	table string
	field string
	id    uuid.UUID
}

func (ref reference) verify(ctx context.Context, tx pgx.Tx, companyID uuid.UUID) error {
	var ok bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+ref.table+` WHERE company_id = $1 AND id = $2)`,
		companyID, ref.id,
	).Scan(&ok)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Invalid(ref.field, ref.field+" does not belong to this company")
	}
	return nil
}

// checkoutReferences lists the customer and seller a sale names.
func checkoutReferences(c *domain.Checkout) []reference {
	var refs []reference
	if c.CustomerID != nil {
		refs = append(refs, reference{table: "customers", field: "customer_id", id: *c.CustomerID})
	}
	if c.SellerID != nil {
		refs = append(refs, reference{table: "users", field: "seller_id", id: *c.SellerID})
	}
	return refs
}
