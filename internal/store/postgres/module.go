package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
)

const moduleColumns = `id, code, name, description, is_core, price_monthly, status, created_at, updated_at`

type ModuleRepo struct {
	pool *pgxpool.Pool
}

func NewModuleRepo(pool *pgxpool.Pool) *ModuleRepo {
	return &ModuleRepo{pool: pool}
}

func (r *ModuleRepo) Create(ctx context.Context, m *domain.Module) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO modules (`+moduleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Code, m.Name, nilIfEmpty(m.Description), m.IsCore, m.PriceMonthly, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	return wrapErr("moduleRepo.Create", err)
}

func (r *ModuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Module, error) {
	m, err := scanModule(r.pool.QueryRow(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("moduleRepo.GetByID", err)
	}
	return m, nil
}

func (r *ModuleRepo) Update(ctx context.Context, m *domain.Module) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE modules SET code = $1, name = $2, description = $3, is_core = $4,
		 price_monthly = $5, status = $6, updated_at = now()
		 WHERE id = $7`,
		m.Code, m.Name, nilIfEmpty(m.Description), m.IsCore, m.PriceMonthly, m.Status, m.ID,
	)
	if err != nil {
		return wrapErr("moduleRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("moduleRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

func (r *ModuleRepo) List(ctx context.Context) ([]*domain.Module, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+moduleColumns+` FROM modules ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("moduleRepo.List", err)
	}
	defer rows.Close()

	modules, err := collectModules(rows)
	if err != nil {
		return nil, wrapErr("moduleRepo.List", err)
	}
	return modules, nil
}

func scanModule(row pgx.Row) (*domain.Module, error) {
	var m domain.Module
	var description *string
	if err := row.Scan(
		&m.ID, &m.Code, &m.Name, &description, &m.IsCore, &m.PriceMonthly, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.Description = derefStr(description)
	return &m, nil
}

func collectModules(rows pgx.Rows) ([]*domain.Module, error) {
	var modules []*domain.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// prefixed qualifies every column in a comma-separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
