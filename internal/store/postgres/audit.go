package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, company_id, actor_id, action, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.CompanyID, entry.ActorID,
		entry.Action, entry.EntityType, entry.EntityID,
		details, entry.CreatedAt,
	)
	return wrapErr("auditRepo.Record", err)
}

// ListByCompany returns the company's entries newest first, with the total.
func (r *AuditRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, int64, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT count(*) FROM audit_log WHERE company_id = $1`, companyID)
	batch.Queue(
		`SELECT id, company_id, actor_id, action, entity_type, entity_id, details, created_at
		 FROM audit_log WHERE company_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		companyID, limit, offset,
	)
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var total int64
	if err := results.QueryRow().Scan(&total); err != nil {
		return nil, 0, wrapErr("auditRepo.ListByCompany: count", err)
	}

	rows, err := results.Query()
	if err != nil {
		return nil, 0, wrapErr("auditRepo.ListByCompany", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.ActorID, &e.Action,
			&e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt,
		); err != nil {
			return nil, 0, wrapErr("auditRepo.ListByCompany: scan", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("auditRepo.ListByCompany: rows", err)
	}

	return entries, total, nil
}
