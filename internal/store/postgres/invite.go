package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
)

const inviteColumns = `id, company_id, email, role, token, status, created_by, expires_at, created_at`

type InviteRepo struct {
	pool *pgxpool.Pool
}

func NewInviteRepo(pool *pgxpool.Pool) *InviteRepo {
	return &InviteRepo{pool: pool}
}

func (r *InviteRepo) Create(ctx context.Context, inv *domain.Invite) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invites (`+inviteColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.CompanyID, inv.Email, inv.Role, inv.Token, inv.Status, inv.CreatedBy, inv.ExpiresAt, inv.CreatedAt,
	)
	return wrapErr("inviteRepo.Create", err)
}

func (r *InviteRepo) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	inv, err := scanInvite(r.pool.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE token = $1`, token))
	if err != nil {
		return nil, wrapErr("inviteRepo.GetByToken", err)
	}
	return inv, nil
}

func (r *InviteRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Invite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE company_id = $1 ORDER BY created_at DESC, id LIMIT 500`,
		companyID,
	)
	if err != nil {
		return nil, wrapErr("inviteRepo.ListByCompany", err)
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, wrapErr("inviteRepo.ListByCompany: scan", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("inviteRepo.ListByCompany: rows", err)
	}
	return invites, nil
}

// Accept claims the pending invite and inserts the user in one transaction.
// A concurrent acceptance of the same invite loses with domain.ErrConflict.
func (r *InviteRepo) Accept(ctx context.Context, inv *domain.Invite, u *domain.User) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE invites SET status = $1 WHERE id = $2 AND status = $3 AND expires_at > now()`,
			domain.InviteStatusAccepted, inv.ID, domain.InviteStatusPending,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("invite already used: %w", domain.ErrConflict)
		}
		return insertUser(ctx, tx, u)
	})
	if err != nil {
		return wrapErr("inviteRepo.Accept", err)
	}
	inv.Status = domain.InviteStatusAccepted
	return nil
}

func scanInvite(row pgx.Row) (*domain.Invite, error) {
	var inv domain.Invite
	if err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Email, &inv.Role, &inv.Token, &inv.Status, &inv.CreatedBy, &inv.ExpiresAt, &inv.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}
