package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
)

const templateColumns = `id, name, niche, description, status, created_at, updated_at`

type TemplateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func (r *TemplateRepo) Create(ctx context.Context, t *domain.SystemTemplate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO system_templates (`+templateColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Niche, nilIfEmpty(t.Description), t.Status, t.CreatedAt, t.UpdatedAt,
	)
	return wrapErr("templateRepo.Create", err)
}

func (r *TemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SystemTemplate, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM system_templates WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("templateRepo.GetByID", err)
	}
	return t, nil
}

func (r *TemplateRepo) Update(ctx context.Context, t *domain.SystemTemplate) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE system_templates SET name = $1, niche = $2, description = $3, status = $4, updated_at = now()
		 WHERE id = $5`,
		t.Name, t.Niche, nilIfEmpty(t.Description), t.Status, t.ID,
	)
	if err != nil {
		return wrapErr("templateRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("templateRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

func (r *TemplateRepo) List(ctx context.Context) ([]*domain.SystemTemplate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM system_templates ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("templateRepo.List", err)
	}
	defer rows.Close()

	var templates []*domain.SystemTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, wrapErr("templateRepo.List: scan", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("templateRepo.List: rows", err)
	}
	return templates, nil
}

// Modules returns the template's modules, defaults first, then by name.
func (r *TemplateRepo) Modules(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateModule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+prefixed("m", moduleColumns)+`, tm.is_default
		 FROM system_template_modules tm JOIN modules m ON m.id = tm.module_id
		 WHERE tm.template_id = $1
		 ORDER BY tm.is_default DESC, m.name, m.id`,
		templateID,
	)
	if err != nil {
		return nil, wrapErr("templateRepo.Modules", err)
	}
	defer rows.Close()

	var out []*domain.TemplateModule
	for rows.Next() {
		var m domain.Module
		var description *string
		var tm domain.TemplateModule
		if err := rows.Scan(
			&m.ID, &m.Code, &m.Name, &description, &m.IsCore, &m.PriceMonthly, &m.Status, &m.CreatedAt, &m.UpdatedAt,
			&tm.IsDefault,
		); err != nil {
			return nil, wrapErr("templateRepo.Modules: scan", err)
		}
		m.Description = derefStr(description)
		tm.Module = &m
		out = append(out, &tm)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("templateRepo.Modules: rows", err)
	}
	return out, nil
}

// SetModules replaces the template's module links.
func (r *TemplateRepo) SetModules(ctx context.Context, templateID uuid.UUID, links []domain.TemplateModuleLink) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM system_template_modules WHERE template_id = $1`, templateID); err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, l := range links {
			batch.Queue(
				`INSERT INTO system_template_modules (template_id, module_id, is_default) VALUES ($1, $2, $3)`,
				templateID, l.ModuleID, l.IsDefault,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	return wrapErr("templateRepo.SetModules", err)
}

func scanTemplate(row pgx.Row) (*domain.SystemTemplate, error) {
	var t domain.SystemTemplate
	var description *string
	if err := row.Scan(&t.ID, &t.Name, &t.Niche, &description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = derefStr(description)
	return &t, nil
}
