package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ModuleStatus string

const (
	ModuleStatusActive   ModuleStatus = "active"
	ModuleStatusInactive ModuleStatus = "inactive"
)

// Module is a togglable feature unit from the global catalogue. Its Code gates
// navigation entries for the companies that have it active.
type Module struct {
	ID           uuid.UUID    `json:"id"`
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	IsCore       bool         `json:"is_core"`
	PriceMonthly float64      `json:"price_monthly"`
	Status       ModuleStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type ModuleRepository interface {
	Create(ctx context.Context, m *Module) error
	GetByID(ctx context.Context, id uuid.UUID) (*Module, error)
	Update(ctx context.Context, m *Module) error
	List(ctx context.Context) ([]*Module, error)
}

// ModuleCodes returns the codes of modules in order.
func ModuleCodes(modules []*Module) []string {
	codes := make([]string, 0, len(modules))
	for _, m := range modules {
		codes = append(codes, m.Code)
	}
	return codes
}

// ModuleIDs returns the ids of modules in order.
func ModuleIDs(modules []*Module) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
	}
	return ids
}
