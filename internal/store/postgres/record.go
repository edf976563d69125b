package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/query"
)

// RecordRepo runs the generic CRUD statements for the allow-listed tables.
type RecordRepo struct {
	pool *pgxpool.Pool
}

func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

// List sends the count and page statements in one batch round trip.
func (r *RecordRepo) List(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, q query.ListQuery) ([]domain.Record, int64, error) {
	plan, err := query.List(spec, companyID, q)
	if err != nil {
		return nil, 0, wrapErr("recordRepo.List", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(plan.Count.SQL, plan.Count.Args...)
	batch.Queue(plan.Page.SQL, plan.Page.Args...)
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var total int64
	if err := results.QueryRow().Scan(&total); err != nil {
		return nil, 0, wrapErr("recordRepo.List: count", err)
	}

	rows, err := results.Query()
	if err != nil {
		return nil, 0, wrapErr("recordRepo.List: page", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, 0, wrapErr("recordRepo.List: collect", err)
	}

	out := make([]domain.Record, 0, len(maps))
	for _, m := range maps {
		out = append(out, toRecord(m))
	}
	return out, total, nil
}

func (r *RecordRepo) Get(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) (domain.Record, error) {
	st, err := query.Get(spec, companyID, id)
	if err != nil {
		return nil, wrapErr("recordRepo.Get", err)
	}
	return r.one(ctx, "recordRepo.Get", st)
}

func (r *RecordRepo) Insert(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, values map[string]any) (domain.Record, error) {
	st, err := query.Insert(spec, companyID, values)
	if err != nil {
		return nil, wrapErr("recordRepo.Insert", err)
	}
	return r.one(ctx, "recordRepo.Insert", st)
}

func (r *RecordRepo) Update(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID, values map[string]any) (domain.Record, error) {
	st, err := query.Update(spec, companyID, id, values)
	if err != nil {
		return nil, wrapErr("recordRepo.Update", err)
	}
	return r.one(ctx, "recordRepo.Update", st)
}

func (r *RecordRepo) Delete(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) error {
	st, err := query.Delete(spec, companyID, id)
	if err != nil {
		return wrapErr("recordRepo.Delete", err)
	}
	tag, err := r.pool.Exec(ctx, st.SQL, st.Args...)
	if err != nil {
		return wrapErr("recordRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("recordRepo.Delete", pgx.ErrNoRows)
	}
	return nil
}

func (r *RecordRepo) one(ctx context.Context, op string, st query.Statement) (domain.Record, error) {
	rows, err := r.pool.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return toRecord(m), nil
}

// toRecord turns driver-native values into JSON-friendly ones: uuid columns
// decode as [16]byte and numeric columns as pgtype.Numeric when scanned into
// any.
func toRecord(m map[string]any) domain.Record {
	rec := make(domain.Record, len(m))
	for k, v := range m {
		rec[k] = normalizeValue(v)
	}
	return rec
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x)
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return v
}
