// Package records is the tenant-scoped data access surface over the
// allow-listed domain tables. Every read and write is pinned to the caller's
// company.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/query"
	redisstore "github.com/evolutech/platform/internal/store/redis"
)

// Repository executes tenant-scoped statements against one table.
type Repository interface {
	List(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, q query.ListQuery) ([]domain.Record, int64, error)
	Get(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) (domain.Record, error)
	Insert(ctx context.Context, spec *domain.TableSpec, companyID uuid.UUID, values map[string]any) (domain.Record, error)
	Update(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID, values map[string]any) (domain.Record, error)
	Delete(ctx context.Context, spec *domain.TableSpec, companyID, id uuid.UUID) error
}

// Cache stores rendered list pages under a per-table generation.
type Cache interface {
	Version(ctx context.Context, companyID uuid.UUID, table string) (int64, error)
	GetPage(ctx context.Context, companyID uuid.UUID, table string, version int64, queryKey string) ([]byte, bool, error)
	SetPage(ctx context.Context, companyID uuid.UUID, table string, version int64, queryKey string, data []byte) error
	Bump(ctx context.Context, companyID uuid.UUID, table string) error
}

// Publisher pushes change events to a company's connected clients.
type Publisher interface {
	PublishCompany(ctx context.Context, companyID uuid.UUID, event redisstore.CompanyEvent) error
}

// Auditor records who changed what. Failures are the auditor's concern.
type Auditor interface {
	Record(ctx context.Context, entry *domain.AuditEntry)
}

// Scope identifies the caller. CompanyID is mandatory.
type Scope struct {
	CompanyID uuid.UUID
	ActorID   uuid.UUID
}

// Page is one page of a list result with its navigation metadata.
type Page struct {
	Data       []domain.Record `json:"data"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	LastPage   int             `json:"last_page"`
	HasNext    bool            `json:"has_next"`
	HasPrev    bool            `json:"has_prev"`
}

type Service struct {
	repo    Repository
	cache   Cache
	events  Publisher
	auditor Auditor
}

// NewService wires the records service. cache, events and auditor may be nil.
func NewService(repo Repository, cache Cache, events Publisher, auditor Auditor) *Service {
	return &Service{repo: repo, cache: cache, events: events, auditor: auditor}
}

// List returns one page of table for the caller's company. A page past the
// last one is an empty page, not an error.
func (s *Service) List(ctx context.Context, scope Scope, table string, q query.ListQuery) (*Page, error) {
	spec, err := s.resolve(scope, table)
	if err != nil {
		return nil, fmt.Errorf("records.List: %w", err)
	}
	q.Pagination = q.Normalize()

	version, cacheable := s.cacheVersion(ctx, scope.CompanyID, table)
	if cacheable {
		if page, ok := s.cachedPage(ctx, scope.CompanyID, table, version, q.Key()); ok {
			return page, nil
		}
	}

	rows, total, err := s.repo.List(ctx, spec, scope.CompanyID, q)
	if err != nil {
		return nil, fmt.Errorf("records.List: %w", err)
	}
	if rows == nil {
		rows = []domain.Record{}
	}

	page := &Page{
		Data:       rows,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		LastPage:   query.LastPage(total, q.PageSize),
		HasNext:    q.HasNext(total),
		HasPrev:    q.HasPrev(),
	}

	if cacheable {
		s.storePage(ctx, scope.CompanyID, table, version, q.Key(), page)
	}

	return page, nil
}

// Get returns one record of the caller's company.
func (s *Service) Get(ctx context.Context, scope Scope, table string, id uuid.UUID) (domain.Record, error) {
	spec, err := s.resolve(scope, table)
	if err != nil {
		return nil, fmt.Errorf("records.Get: %w", err)
	}

	rec, err := s.repo.Get(ctx, spec, scope.CompanyID, id)
	if err != nil {
		return nil, fmt.Errorf("records.Get: %w", err)
	}
	return rec, nil
}

// Create inserts input into table. Table defaults fill missing columns and the
// caller's company id is stamped on the row.
func (s *Service) Create(ctx context.Context, scope Scope, table string, input map[string]any) (domain.Record, error) {
	spec, err := s.resolve(scope, table)
	if err != nil {
		return nil, fmt.Errorf("records.Create: %w", err)
	}

	values, err := spec.Normalize(input, true)
	if err != nil {
		return nil, fmt.Errorf("records.Create: %w", err)
	}

	rec, err := s.repo.Insert(ctx, spec, scope.CompanyID, values)
	if err != nil {
		return nil, fmt.Errorf("records.Create: %w", err)
	}

	s.changed(ctx, scope, table, domain.AuditActionCreate, recordID(rec), values)
	return rec, nil
}

// Update applies a partial change to one record. company_id is never
// writable.
func (s *Service) Update(ctx context.Context, scope Scope, table string, id uuid.UUID, input map[string]any) (domain.Record, error) {
	spec, err := s.resolve(scope, table)
	if err != nil {
		return nil, fmt.Errorf("records.Update: %w", err)
	}

	values, err := spec.Normalize(input, false)
	if err != nil {
		return nil, fmt.Errorf("records.Update: %w", err)
	}

	rec, err := s.repo.Update(ctx, spec, scope.CompanyID, id, values)
	if err != nil {
		return nil, fmt.Errorf("records.Update: %w", err)
	}

	s.changed(ctx, scope, table, domain.AuditActionUpdate, id.String(), values)
	return rec, nil
}

// Remove deletes one record. Rows still referenced elsewhere fail with the
// database's constraint error.
func (s *Service) Remove(ctx context.Context, scope Scope, table string, id uuid.UUID) error {
	spec, err := s.resolve(scope, table)
	if err != nil {
		return fmt.Errorf("records.Remove: %w", err)
	}

	if err := s.repo.Delete(ctx, spec, scope.CompanyID, id); err != nil {
		return fmt.Errorf("records.Remove: %w", err)
	}

	s.changed(ctx, scope, table, domain.AuditActionDelete, id.String(), nil)
	return nil
}

// Invalidate drops every cached page of table for companyID and notifies its
// clients. Used by writers outside this service, such as checkout.
func (s *Service) Invalidate(ctx context.Context, companyID uuid.UUID, tables ...string) {
	for _, table := range tables {
		s.bump(ctx, companyID, table)
		s.publish(ctx, companyID, redisstore.CompanyEvent{Type: redisstore.EventRecordsChanged, Table: table})
	}
}

func (s *Service) resolve(scope Scope, table string) (*domain.TableSpec, error) {
	if scope.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("%w: no company in scope", domain.ErrForbidden)
	}
	return domain.LookupTable(table)
}

func (s *Service) changed(ctx context.Context, scope Scope, table, action, id string, values map[string]any) {
	s.bump(ctx, scope.CompanyID, table)
	s.publish(ctx, scope.CompanyID, redisstore.CompanyEvent{
		Type:   redisstore.EventRecordsChanged,
		Table:  table,
		Action: action,
		ID:     id,
	})

	if s.auditor == nil {
		return
	}
	companyID := scope.CompanyID
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		CompanyID:  &companyID,
		Action:     action,
		EntityType: table,
		EntityID:   id,
		Details:    auditDetails(values),
		CreatedAt:  time.Now(),
	}
	if scope.ActorID != uuid.Nil {
		actor := scope.ActorID
		entry.ActorID = &actor
	}
	s.auditor.Record(ctx, entry)
}

func (s *Service) bump(ctx context.Context, companyID uuid.UUID, table string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, companyID, table); err != nil {
		log.Warn().Err(err).Str("table", table).Str("company_id", companyID.String()).Msg("records: cache invalidation failed")
	}
}

func (s *Service) publish(ctx context.Context, companyID uuid.UUID, event redisstore.CompanyEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishCompany(ctx, companyID, event); err != nil {
		log.Warn().Err(err).Str("table", event.Table).Msg("records: publish change failed")
	}
}

func (s *Service) cacheVersion(ctx context.Context, companyID uuid.UUID, table string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, err := s.cache.Version(ctx, companyID, table)
	if err != nil {
		log.Warn().Err(err).Str("table", table).Msg("records: cache version lookup failed")
		return 0, false
	}
	return v, true
}

func (s *Service) cachedPage(ctx context.Context, companyID uuid.UUID, table string, version int64, key string) (*Page, bool) {
	data, ok, err := s.cache.GetPage(ctx, companyID, table, version, key)
	if err != nil {
		log.Warn().Err(err).Str("table", table).Msg("records: cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		log.Warn().Err(err).Str("table", table).Msg("records: cached page is corrupt")
		return nil, false
	}
	return &page, true
}

func (s *Service) storePage(ctx context.Context, companyID uuid.UUID, table string, version int64, key string, page *Page) {
	data, err := json.Marshal(page)
	if err != nil {
		log.Warn().Err(err).Str("table", table).Msg("records: encode page for cache")
		return
	}
	if err := s.cache.SetPage(ctx, companyID, table, version, key, data); err != nil {
		log.Warn().Err(err).Str("table", table).Msg("records: cache write failed")
	}
}

func recordID(rec domain.Record) string {
	switch id := rec[domain.ColumnID].(type) {
	case uuid.UUID:
		return id.String()
	case string:
		return id
	}
	return ""
}

// auditDetails keeps the written column names, not their values.
func auditDetails(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	return map[string]any{"columns": slices.Sorted(maps.Keys(values))}
}
