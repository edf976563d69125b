package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusInactive  CompanyStatus = "inactive"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Valid reports whether s is one of the known company statuses.
func (s CompanyStatus) Valid() bool {
	switch s {
	case CompanyStatusActive, CompanyStatusInactive, CompanyStatusSuspended:
		return true
	}
	return false
}

// Company is a tenant. Companies are never removed, only deactivated.
type Company struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Plan           string         `json:"plan"`
	Status         CompanyStatus  `json:"status"`
	MonthlyRevenue float64        `json:"monthly_revenue"`
	SistemaBaseID  *uuid.UUID     `json:"sistema_base_id,omitempty"`
	Settings       map[string]any `json:"settings,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CompanyFilter narrows operator company listings.
type CompanyFilter struct {
	Search string
	Status CompanyStatus
	Limit  int
	Offset int
}

type CompanyRepository interface {
	Create(ctx context.Context, c *Company, moduleIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetBySlug(ctx context.Context, slug string) (*Company, error)
	Update(ctx context.Context, c *Company) error
	SetStatus(ctx context.Context, id uuid.UUID, status CompanyStatus) error
	List(ctx context.Context, f CompanyFilter) ([]*Company, int64, error)

	// Module association.
	ActiveModules(ctx context.Context, companyID uuid.UUID) ([]*Module, error)
	ReplaceModules(ctx context.Context, companyID uuid.UUID, moduleIDs []uuid.UUID) error
}
