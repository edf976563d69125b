package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar) //nolint:gochecknoglobals // immutable builder

// Statement is a ready-to-run SQL string and its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// ListPlan is the count and page statements for one list request. Both share
// the same WHERE clause.
type ListPlan struct {
	Count Statement
	Page  Statement
}

// List builds the count and page statements for q against spec, always
// scoped to companyID.
func List(spec *domain.TableSpec, companyID uuid.UUID, q ListQuery) (*ListPlan, error) {
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("query.List: %w: company id is required", domain.ErrForbidden)
	}

	where := Where(spec, companyID, q)

	countSQL, countArgs, err := psql.Select("count(*)").From(spec.Name).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("query.List: count: %w", err)
	}

	pageSQL, pageArgs, err := psql.Select("*").From(spec.Name).Where(where).
		OrderBy(orderClause(spec, q)...).
		Limit(q.Limit()).
		Offset(q.Offset()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("query.List: page: %w", err)
	}

	return &ListPlan{
		Count: Statement{SQL: countSQL, Args: countArgs},
		Page:  Statement{SQL: pageSQL, Args: pageArgs},
	}, nil
}

// Where returns the filter predicate for q: tenant scope, OR-combined
// substring search over the spec's search fields, exact status, active flag
// and an inclusive created_at range.
func Where(spec *domain.TableSpec, companyID uuid.UUID, q ListQuery) sq.And {
	where := sq.And{sq.Eq{domain.ColumnCompanyID: companyID}}

	if term := strings.TrimSpace(q.Search); term != "" && len(spec.SearchFields) > 0 {
		pattern := "%" + EscapeLike(term) + "%"
		or := make(sq.Or, 0, len(spec.SearchFields))
		for _, f := range spec.SearchFields {
			or = append(or, sq.ILike{f: pattern})
		}
		where = append(where, or)
	}
	if q.Status != "" && spec.HasColumn(domain.ColumnStatus) {
		where = append(where, sq.Eq{domain.ColumnStatus: q.Status})
	}
	if q.Active != nil && spec.HasColumn(domain.ColumnIsActive) {
		where = append(where, sq.Eq{domain.ColumnIsActive: *q.Active})
	}
	if q.DateFrom != nil {
		where = append(where, sq.GtOrEq{domain.ColumnCreatedAt: *q.DateFrom})
	}
	if q.DateTo != nil {
		where = append(where, sq.LtOrEq{domain.ColumnCreatedAt: *q.DateTo})
	}

	return where
}

func orderClause(spec *domain.TableSpec, q ListQuery) []string {
	col := q.OrderBy
	if col == "" || !spec.HasColumn(col) {
		col = spec.DefaultOrder
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	if col == domain.ColumnID {
		return []string{col + " " + dir}
	}
	return []string{col + " " + dir, domain.ColumnID + " " + dir}
}

// EscapeLike escapes LIKE wildcards so the search term matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Get selects one row by id within the company.
func Get(spec *domain.TableSpec, companyID, id uuid.UUID) (Statement, error) {
	sqlStr, args, err := psql.Select("*").From(spec.Name).
		Where(sq.Eq{domain.ColumnID: id, domain.ColumnCompanyID: companyID}).
		ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("query.Get: %w", err)
	}
	return Statement{SQL: sqlStr, Args: args}, nil
}

// Insert stamps companyID onto values and returns the inserted row.
func Insert(spec *domain.TableSpec, companyID uuid.UUID, values map[string]any) (Statement, error) {
	row := make(map[string]any, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	row[domain.ColumnCompanyID] = companyID

	sqlStr, args, err := psql.Insert(spec.Name).SetMap(row).Suffix("RETURNING *").ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("query.Insert: %w", err)
	}
	return Statement{SQL: sqlStr, Args: args}, nil
}

// Update writes values to the row id within companyID and bumps updated_at.
// company_id is never part of the SET list.
func Update(spec *domain.TableSpec, companyID, id uuid.UUID, values map[string]any) (Statement, error) {
	b := psql.Update(spec.Name)
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if k == domain.ColumnCompanyID || k == domain.ColumnID {
			continue
		}
		b = b.Set(k, values[k])
	}
	sqlStr, args, err := b.Set(domain.ColumnUpdatedAt, sq.Expr("now()")).
		Where(sq.Eq{domain.ColumnID: id, domain.ColumnCompanyID: companyID}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("query.Update: %w", err)
	}
	return Statement{SQL: sqlStr, Args: args}, nil
}

// Delete removes the row id within companyID.
func Delete(spec *domain.TableSpec, companyID, id uuid.UUID) (Statement, error) {
	sqlStr, args, err := psql.Delete(spec.Name).
		Where(sq.Eq{domain.ColumnID: id, domain.ColumnCompanyID: companyID}).
		ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("query.Delete: %w", err)
	}
	return Statement{SQL: sqlStr, Args: args}, nil
}
