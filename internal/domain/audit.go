package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	CompanyID  *uuid.UUID     `json:"company_id,omitempty"` // nil for platform-level actions
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"` // table name, "company", "module", ...
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*AuditEntry, int64, error)
}
