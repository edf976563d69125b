package records_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/query"
	"github.com/evolutech/platform/internal/records"
	redisstore "github.com/evolutech/platform/internal/store/redis"
)

// --- mocks ---

type mockRepo struct {
	listFunc   func(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, q query.ListQuery) ([]domain.Record, int64, error)
	getFunc    func(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) (domain.Record, error)
	insertFunc func(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, values map[string]any) (domain.Record, error)
	updateFunc func(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID, values map[string]any) (domain.Record, error)
	deleteFunc func(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) error
}

func (m *mockRepo) List(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, q query.ListQuery) ([]domain.Record, int64, error) {
	return m.listFunc(ctx, spec, companyID, q)
}

func (m *mockRepo) Get(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) (domain.Record, error) {
	return m.getFunc(ctx, spec, companyID, id)
}

func (m *mockRepo) Insert(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, values map[string]any) (domain.Record, error) {
	return m.insertFunc(ctx, spec, companyID, values)
}

func (m *mockRepo) Update(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID, values map[string]any) (domain.Record, error) {
	return m.updateFunc(ctx, spec, companyID, id, values)
}

func (m *mockRepo) Delete(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) error {
	return m.deleteFunc(ctx, spec, companyID, id)
}

// memCache is an in-memory records.Cache.
type memCache struct {
	mu       sync.Mutex
	versions map[string]int64
	pages    map[string][]byte
	failBump bool
}

func newMemCache() *memCache {
	return &memCache{versions: map[string]int64{}, pages: map[string][]byte{}}
}

func (c *memCache) Version(_ context.Context, companyID uuid.UUID, table string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[redisstore.VersionKey(companyID, table)], nil
}

func (c *memCache) GetPage(_ context.Context, companyID uuid.UUID, table string, version int64, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.pages[redisstore.PageKey(companyID, table, version, key)]
	return data, ok, nil
}

func (c *memCache) SetPage(_ context.Context, companyID uuid.UUID, table string, version int64, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[redisstore.PageKey(companyID, table, version, key)] = data
	return nil
}

func (c *memCache) Bump(_ context.Context, companyID uuid.UUID, table string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failBump {
		return errors.New("redis down")
	}
	c.versions[redisstore.VersionKey(companyID, table)]++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []redisstore.CompanyEvent
}

func (p *recordingPublisher) PublishCompany(_ context.Context, _ uuid.UUID, event redisstore.CompanyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (a *recordingAuditor) Record(_ context.Context, entry *domain.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func scope() records.Scope {
	return records.Scope{CompanyID: uuid.New(), ActorID: uuid.New()}
}

// ---------------------------------------------------------------------------
// 1. Create
// ---------------------------------------------------------------------------

func TestCreate_CustomerNameOnly(t *testing.T) {
	t.Parallel()

	sc := scope()
	newID := uuid.New()
	var gotValues map[string]any
	var gotCompany uuid.UUID

	repo := &mockRepo{
		insertFunc: func(_ context.Context, spec *domain.TableSpec, companyID uuid.UUID, values map[string]any) (domain.Record, error) {
			assert.Equal(t, "customers", spec.Name)
			gotCompany = companyID
			gotValues = values
			rec := domain.Record{"id": newID, "company_id": companyID}
			for k, v := range values {
				rec[k] = v
			}
			return rec, nil
		},
	}
	pub := &recordingPublisher{}
	aud := &recordingAuditor{}
	svc := records.NewService(repo, newMemCache(), pub, aud)

	rec, err := svc.Create(context.Background(), sc, "customers", map[string]any{"name": "Jane Doe"})
	require.NoError(t, err)

	assert.Equal(t, sc.CompanyID, gotCompany)
	assert.Equal(t, map[string]any{"name": "Jane Doe", "is_active": true}, gotValues)
	assert.Equal(t, true, rec["is_active"])
	assert.Equal(t, sc.CompanyID, rec["company_id"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, redisstore.CompanyEvent{
		Type: redisstore.EventRecordsChanged, Table: "customers", Action: domain.AuditActionCreate, ID: newID.String(),
	}, pub.events[0])

	require.Len(t, aud.entries, 1)
	assert.Equal(t, "customers", aud.entries[0].EntityType)
	assert.Equal(t, newID.String(), aud.entries[0].EntityID)
	require.NotNil(t, aud.entries[0].ActorID)
	assert.Equal(t, sc.ActorID, *aud.entries[0].ActorID)
	assert.Equal(t, map[string]any{"columns": []string{"is_active", "name"}}, aud.entries[0].Details)
}

func TestCreate_ClientCannotChooseCompany(t *testing.T) {
	t.Parallel()

	sc := scope()
	repo := &mockRepo{
		insertFunc: func(_ context.Context, _ *domain.TableSpec, companyID uuid.UUID, values map[string]any) (domain.Record, error) {
			assert.Equal(t, sc.CompanyID, companyID)
			assert.NotContains(t, values, "company_id")
			return domain.Record{"id": uuid.New()}, nil
		},
	}
	svc := records.NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), sc, "customers", map[string]any{
		"name":       "Jane",
		"company_id": uuid.NewString(),
	})
	require.NoError(t, err)
}

func TestCreate_ValidationStopsBeforeRepo(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		insertFunc: func(context.Context, *domain.TableSpec, uuid.UUID, map[string]any) (domain.Record, error) {
			t.Fatal("insert must not be called")
			return nil, nil
		},
	}
	svc := records.NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), scope(), "customers", map[string]any{"email": "x@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---------------------------------------------------------------------------
// 2. Table allow-list and scope
// ---------------------------------------------------------------------------

func TestUnknownTableRejected(t *testing.T) {
	t.Parallel()

	svc := records.NewService(&mockRepo{}, nil, nil, nil)

	_, err := svc.List(context.Background(), scope(), "users", query.ListQuery{})
	assert.ErrorIs(t, err, domain.ErrUnknownTable)

	_, err = svc.Create(context.Background(), scope(), "pg_catalog.pg_user", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrUnknownTable)

	err = svc.Remove(context.Background(), scope(), "companies", uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnknownTable)
}

func TestMissingCompanyForbidden(t *testing.T) {
	t.Parallel()

	svc := records.NewService(&mockRepo{}, nil, nil, nil)

	_, err := svc.List(context.Background(), records.Scope{}, "customers", query.ListQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ---------------------------------------------------------------------------
// 3. Remove
// ---------------------------------------------------------------------------

func TestRemove_ReferencedProductSurfacesDatabaseMessage(t *testing.T) {
	t.Parallel()

	const msg = `update or delete on table "products" violates foreign key constraint "order_items_product_id_fkey" on table "order_items"`

	repo := &mockRepo{
		deleteFunc: func(context.Context, *domain.TableSpec, uuid.UUID, uuid.UUID) error {
			return fmt.Errorf("recordRepo.Delete: %w", &domain.ConstraintError{Code: "23503", Message: msg})
		},
	}
	pub := &recordingPublisher{}
	svc := records.NewService(repo, nil, pub, nil)

	err := svc.Remove(context.Background(), scope(), "products", uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var ce *domain.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, msg, ce.Message)
	assert.Empty(t, pub.events, "failed delete must not notify")
}

func TestRemove_NotifiesAndAudits(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	repo := &mockRepo{
		deleteFunc: func(_ context.Context, _ *domain.TableSpec, _ uuid.UUID, got uuid.UUID) error {
			assert.Equal(t, id, got)
			return nil
		},
	}
	pub := &recordingPublisher{}
	aud := &recordingAuditor{}
	svc := records.NewService(repo, nil, pub, aud)

	require.NoError(t, svc.Remove(context.Background(), scope(), "products", id))
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.AuditActionDelete, pub.events[0].Action)
	require.Len(t, aud.entries, 1)
	assert.Nil(t, aud.entries[0].Details)
}

// ---------------------------------------------------------------------------
// 4. List, pagination and cache
// ---------------------------------------------------------------------------

func TestList_PageMetadata(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		listFunc: func(_ context.Context, _ *domain.TableSpec, _ uuid.UUID, q query.ListQuery) ([]domain.Record, int64, error) {
			if q.Page == 6 {
				return nil, 47, nil
			}
			return []domain.Record{{"name": "a"}}, 47, nil
		},
	}
	svc := records.NewService(repo, nil, nil, nil)

	page, err := svc.List(context.Background(), scope(), "customers", query.ListQuery{Pagination: query.Pagination{Page: 5}})
	require.NoError(t, err)
	assert.Equal(t, 5, page.LastPage)
	assert.Equal(t, query.DefaultPageSize, page.PageSize)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)

	page, err = svc.List(context.Background(), scope(), "customers", query.ListQuery{Pagination: query.Pagination{Page: 6}})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.False(t, page.HasNext)
}

func TestList_CachedUntilMutation(t *testing.T) {
	t.Parallel()

	sc := scope()
	var calls int
	repo := &mockRepo{
		listFunc: func(context.Context, *domain.TableSpec, uuid.UUID, query.ListQuery) ([]domain.Record, int64, error) {
			calls++
			return []domain.Record{{"name": "Jane"}}, 1, nil
		},
		insertFunc: func(context.Context, *domain.TableSpec, uuid.UUID, map[string]any) (domain.Record, error) {
			return domain.Record{"id": uuid.New()}, nil
		},
	}
	svc := records.NewService(repo, newMemCache(), nil, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, sc, "customers", query.ListQuery{})
	require.NoError(t, err)
	page, err := svc.List(ctx, sc, "customers", query.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second read must come from cache")
	assert.Equal(t, int64(1), page.TotalCount)

	_, err = svc.Create(ctx, sc, "customers", map[string]any{"name": "John"})
	require.NoError(t, err)

	_, err = svc.List(ctx, sc, "customers", query.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "mutation must invalidate cached pages")
}

func TestList_CacheIsPerCompany(t *testing.T) {
	t.Parallel()

	var calls int
	repo := &mockRepo{
		listFunc: func(context.Context, *domain.TableSpec, uuid.UUID, query.ListQuery) ([]domain.Record, int64, error) {
			calls++
			return nil, 0, nil
		},
	}
	svc := records.NewService(repo, newMemCache(), nil, nil)

	_, err := svc.List(context.Background(), scope(), "customers", query.ListQuery{})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), scope(), "customers", query.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCreate_CacheFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	cache := newMemCache()
	cache.failBump = true
	repo := &mockRepo{
		insertFunc: func(context.Context, *domain.TableSpec, uuid.UUID, map[string]any) (domain.Record, error) {
			return domain.Record{"id": uuid.New()}, nil
		},
	}
	svc := records.NewService(repo, cache, nil, nil)

	_, err := svc.Create(context.Background(), scope(), "customers", map[string]any{"name": "Jane"})
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// 5. Update
// ---------------------------------------------------------------------------

func TestUpdate_NoDefaultsAndNoCompany(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	repo := &mockRepo{
		updateFunc: func(_ context.Context, _ *domain.TableSpec, _ uuid.UUID, got uuid.UUID, values map[string]any) (domain.Record, error) {
			assert.Equal(t, id, got)
			assert.Equal(t, map[string]any{"stock": int64(4)}, values)
			return domain.Record{"id": id, "stock": int64(4)}, nil
		},
	}
	svc := records.NewService(repo, nil, nil, nil)

	rec, err := svc.Update(context.Background(), scope(), "products", id, map[string]any{"stock": 4.0, "company_id": uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec["stock"])
}

func TestUpdate_NotFoundPassesThrough(t *testing.T) {
	t.Parallel()

	repo := &mockRepo{
		updateFunc: func(context.Context, *domain.TableSpec, uuid.UUID, uuid.UUID, map[string]any) (domain.Record, error) {
			return nil, fmt.Errorf("recordRepo.Update: %w", domain.ErrNotFound)
		},
	}
	svc := records.NewService(repo, nil, nil, nil)

	_, err := svc.Update(context.Background(), scope(), "products", uuid.New(), map[string]any{"name": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
