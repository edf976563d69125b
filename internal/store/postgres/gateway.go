package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
)

const gatewayColumns = `id, company_id, provider, credentials, status, created_at, updated_at`

type GatewayRepo struct {
	pool *pgxpool.Pool
}

func NewGatewayRepo(pool *pgxpool.Pool) *GatewayRepo {
	return &GatewayRepo{pool: pool}
}

// Upsert stores g, replacing the credentials of an existing connection to the
// same provider. g.ID is updated to the stored row's id.
func (r *GatewayRepo) Upsert(ctx context.Context, g *domain.PaymentGateway) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payment_gateways (`+gatewayColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (company_id, provider) DO UPDATE
		 SET credentials = EXCLUDED.credentials, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		g.ID, g.CompanyID, g.Provider, g.Credentials, g.Status, g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID, &g.CreatedAt)
	return wrapErr("gatewayRepo.Upsert", err)
}

func (r *GatewayRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.PaymentGateway, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+gatewayColumns+` FROM payment_gateways WHERE company_id = $1 ORDER BY provider`,
		companyID,
	)
	if err != nil {
		return nil, wrapErr("gatewayRepo.ListByCompany", err)
	}
	defer rows.Close()

	var gateways []*domain.PaymentGateway
	for rows.Next() {
		g, err := scanGateway(rows)
		if err != nil {
			return nil, wrapErr("gatewayRepo.ListByCompany: scan", err)
		}
		gateways = append(gateways, g)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("gatewayRepo.ListByCompany: rows", err)
	}
	return gateways, nil
}

// Active returns the most recently connected gateway.
func (r *GatewayRepo) Active(ctx context.Context, companyID uuid.UUID) (*domain.PaymentGateway, error) {
	g, err := scanGateway(r.pool.QueryRow(ctx,
		`SELECT `+gatewayColumns+` FROM payment_gateways
		 WHERE company_id = $1 AND status = 'connected'
		 ORDER BY updated_at DESC LIMIT 1`,
		companyID,
	))
	if err != nil {
		return nil, wrapErr("gatewayRepo.Active", err)
	}
	return g, nil
}

func scanGateway(row pgx.Row) (*domain.PaymentGateway, error) {
	var g domain.PaymentGateway
	if err := row.Scan(&g.ID, &g.CompanyID, &g.Provider, &g.Credentials, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}
