package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemTemplate ("sistema base") is a named preset of modules used to seed a
// new company's module set.
type SystemTemplate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Niche       string    `json:"niche"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateModule links a module to a template.
type TemplateModule struct {
	Module    *Module `json:"module"`
	IsDefault bool    `json:"is_default"`
}

// TemplateModuleLink is the write side of TemplateModule.
type TemplateModuleLink struct {
	ModuleID  uuid.UUID `json:"module_id"`
	IsDefault bool      `json:"is_default"`
}

type TemplateRepository interface {
	Create(ctx context.Context, t *SystemTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*SystemTemplate, error)
	Update(ctx context.Context, t *SystemTemplate) error
	List(ctx context.Context) ([]*SystemTemplate, error)

	Modules(ctx context.Context, templateID uuid.UUID) ([]*TemplateModule, error)
	SetModules(ctx context.Context, templateID uuid.UUID, links []TemplateModuleLink) error
}
