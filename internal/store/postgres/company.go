package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/query"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar) //nolint:gochecknoglobals // immutable builder

const companyColumns = `id, name, slug, plan, status, monthly_revenue, sistema_base_id, settings, created_at, updated_at`

type CompanyRepo struct {
	pool *pgxpool.Pool
}

func NewCompanyRepo(pool *pgxpool.Pool) *CompanyRepo {
	return &CompanyRepo{pool: pool}
}

// Create inserts the company and its initial module set in one transaction.
func (r *CompanyRepo) Create(ctx context.Context, c *domain.Company, moduleIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO companies (`+companyColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, c.Name, c.Slug, c.Plan, c.Status, c.MonthlyRevenue,
			c.SistemaBaseID, settingsOrEmpty(c.Settings), c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return err
		}
		return insertCompanyModules(ctx, tx, c.ID, moduleIDs)
	})
	return wrapErr("companyRepo.Create", err)
}

func (r *CompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("companyRepo.GetByID", err)
	}
	return c, nil
}

func (r *CompanyRepo) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE slug = $1`, slug))
	if err != nil {
		return nil, wrapErr("companyRepo.GetBySlug", err)
	}
	return c, nil
}

func (r *CompanyRepo) Update(ctx context.Context, c *domain.Company) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE companies SET name = $1, slug = $2, plan = $3, monthly_revenue = $4,
		 sistema_base_id = $5, settings = $6, updated_at = now()
		 WHERE id = $7`,
		c.Name, c.Slug, c.Plan, c.MonthlyRevenue, c.SistemaBaseID, settingsOrEmpty(c.Settings), c.ID,
	)
	if err != nil {
		return wrapErr("companyRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("companyRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

func (r *CompanyRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.CompanyStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE companies SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return wrapErr("companyRepo.SetStatus", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("companyRepo.SetStatus", pgx.ErrNoRows)
	}
	return nil
}

// List returns one page of companies matching f and the total match count.
func (r *CompanyRepo) List(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int64, error) {
	where := companyWhere(f)

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("companies").Where(where).ToSql()
	if err != nil {
		return nil, 0, wrapErr("companyRepo.List", err)
	}
	pageSQL, pageArgs, err := psql.Select(companyColumns).From("companies").Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		Offset(uint64(max(f.Offset, 0))).
		ToSql()
	if err != nil {
		return nil, 0, wrapErr("companyRepo.List", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(countSQL, countArgs...)
	batch.Queue(pageSQL, pageArgs...)
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var total int64
	if err := results.QueryRow().Scan(&total); err != nil {
		return nil, 0, wrapErr("companyRepo.List: count", err)
	}

	rows, err := results.Query()
	if err != nil {
		return nil, 0, wrapErr("companyRepo.List: page", err)
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, wrapErr("companyRepo.List: scan", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("companyRepo.List: rows", err)
	}

	return companies, total, nil
}

// ActiveModules returns the modules switched on for the company, by name.
func (r *CompanyRepo) ActiveModules(ctx context.Context, companyID uuid.UUID) ([]*domain.Module, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+prefixed("m", moduleColumns)+`
		 FROM company_modules cm JOIN modules m ON m.id = cm.module_id
		 WHERE cm.company_id = $1 AND cm.active
		 ORDER BY m.name, m.id`,
		companyID,
	)
	if err != nil {
		return nil, wrapErr("companyRepo.ActiveModules", err)
	}
	defer rows.Close()

	modules, err := collectModules(rows)
	if err != nil {
		return nil, wrapErr("companyRepo.ActiveModules", err)
	}
	return modules, nil
}

// ReplaceModules makes moduleIDs the company's exact active set.
func (r *CompanyRepo) ReplaceModules(ctx context.Context, companyID uuid.UUID, moduleIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM company_modules WHERE company_id = $1`, companyID); err != nil {
			return err
		}
		return insertCompanyModules(ctx, tx, companyID, moduleIDs)
	})
	return wrapErr("companyRepo.ReplaceModules", err)
}

func insertCompanyModules(ctx context.Context, tx pgx.Tx, companyID uuid.UUID, moduleIDs []uuid.UUID) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, id := range moduleIDs {
		batch.Queue(
			`INSERT INTO company_modules (company_id, module_id, active) VALUES ($1, $2, true)
			 ON CONFLICT (company_id, module_id) DO UPDATE SET active = true`,
			companyID, id,
		)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// companyWhere matches the search term literally against name and slug.
func companyWhere(f domain.CompanyFilter) sq.And {
	where := sq.And{}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + query.EscapeLike(term) + "%"
		where = append(where, sq.Or{sq.ILike{"name": pattern}, sq.ILike{"slug": pattern}})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	return where
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	if err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Plan, &c.Status, &c.MonthlyRevenue,
		&c.SistemaBaseID, &c.Settings, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func settingsOrEmpty(s map[string]any) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s
}
