package tenancy

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/domain"
)

var moduleCode = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`) //nolint:gochecknoglobals // compiled once

// Catalog manages the global module catalogue and the system templates built
// from it. Only platform operators reach it.
type Catalog struct {
	modules   domain.ModuleRepository
	templates domain.TemplateRepository
	auditor   Auditor
}

func NewCatalog(modules domain.ModuleRepository, templates domain.TemplateRepository, auditor Auditor) *Catalog {
	return &Catalog{modules: modules, templates: templates, auditor: auditor}
}

// ModuleInput is the editable part of a module.
type ModuleInput struct {
	Code         string
	Name         string
	Description  string
	IsCore       bool
	PriceMonthly float64
	Status       domain.ModuleStatus
}

func (in *ModuleInput) normalize() error {
	in.Code = strings.ToLower(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if in.Status == "" {
		in.Status = domain.ModuleStatusActive
	}
	switch {
	case !moduleCode.MatchString(in.Code):
		return domain.Invalid("code", "code must be lower case letters, digits, '_' or '-'")
	case in.Name == "":
		return domain.Invalid("name", "name is required")
	case in.PriceMonthly < 0:
		return domain.Invalid("price_monthly", "price cannot be negative")
	case in.Status != domain.ModuleStatusActive && in.Status != domain.ModuleStatusInactive:
		return domain.Invalid("status", fmt.Sprintf("unknown status %q", in.Status))
	}
	return nil
}

func (c *Catalog) Modules(ctx context.Context) ([]*domain.Module, error) {
	list, err := c.modules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Modules: %w", err)
	}
	return list, nil
}

func (c *Catalog) CreateModule(ctx context.Context, actorID uuid.UUID, in ModuleInput) (*domain.Module, error) {
	if err := in.normalize(); err != nil {
		return nil, fmt.Errorf("tenancy.CreateModule: %w", err)
	}
	now := time.Now()
	m := &domain.Module{
		ID:           uuid.New(),
		Code:         in.Code,
		Name:         in.Name,
		Description:  in.Description,
		IsCore:       in.IsCore,
		PriceMonthly: in.PriceMonthly,
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.modules.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("tenancy.CreateModule: %w", err)
	}
	c.audit(ctx, actorID, domain.AuditActionCreate, "module", m.ID, map[string]any{"code": m.Code})
	return m, nil
}

func (c *Catalog) UpdateModule(ctx context.Context, actorID, id uuid.UUID, in ModuleInput) (*domain.Module, error) {
	if err := in.normalize(); err != nil {
		return nil, fmt.Errorf("tenancy.UpdateModule: %w", err)
	}
	m, err := c.modules.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.UpdateModule: %w", err)
	}
	m.Code, m.Name, m.Description = in.Code, in.Name, in.Description
	m.IsCore, m.PriceMonthly, m.Status = in.IsCore, in.PriceMonthly, in.Status
	m.UpdatedAt = time.Now()
	if err := c.modules.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("tenancy.UpdateModule: %w", err)
	}
	c.audit(ctx, actorID, domain.AuditActionUpdate, "module", m.ID, map[string]any{"code": m.Code})
	return m, nil
}

// TemplateInput is the editable part of a system template.
type TemplateInput struct {
	Name        string
	Niche       string
	Description string
	Status      string
}

func (in *TemplateInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Niche = strings.TrimSpace(in.Niche)
	if in.Status == "" {
		in.Status = "active"
	}
	if in.Name == "" {
		return domain.Invalid("name", "name is required")
	}
	return nil
}

func (c *Catalog) Templates(ctx context.Context) ([]*domain.SystemTemplate, error) {
	list, err := c.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Templates: %w", err)
	}
	return list, nil
}

func (c *Catalog) Template(ctx context.Context, id uuid.UUID) (*domain.SystemTemplate, error) {
	t, err := c.templates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Template: %w", err)
	}
	return t, nil
}

func (c *Catalog) CreateTemplate(ctx context.Context, actorID uuid.UUID, in TemplateInput) (*domain.SystemTemplate, error) {
	if err := in.normalize(); err != nil {
		return nil, fmt.Errorf("tenancy.CreateTemplate: %w", err)
	}
	now := time.Now()
	t := &domain.SystemTemplate{
		ID:          uuid.New(),
		Name:        in.Name,
		Niche:       in.Niche,
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.templates.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("tenancy.CreateTemplate: %w", err)
	}
	c.audit(ctx, actorID, domain.AuditActionCreate, "system_template", t.ID, nil)
	return t, nil
}

func (c *Catalog) UpdateTemplate(ctx context.Context, actorID, id uuid.UUID, in TemplateInput) (*domain.SystemTemplate, error) {
	if err := in.normalize(); err != nil {
		return nil, fmt.Errorf("tenancy.UpdateTemplate: %w", err)
	}
	t, err := c.templates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.UpdateTemplate: %w", err)
	}
	t.Name, t.Niche, t.Description, t.Status = in.Name, in.Niche, in.Description, in.Status
	t.UpdatedAt = time.Now()
	if err := c.templates.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("tenancy.UpdateTemplate: %w", err)
	}
	c.audit(ctx, actorID, domain.AuditActionUpdate, "system_template", t.ID, nil)
	return t, nil
}

func (c *Catalog) TemplateModules(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateModule, error) {
	list, err := c.templates.Modules(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("tenancy.TemplateModules: %w", err)
	}
	return list, nil
}

// SetTemplateModules replaces the template's module links. A module listed
// twice keeps its first entry.
func (c *Catalog) SetTemplateModules(ctx context.Context, actorID, templateID uuid.UUID, links []domain.TemplateModuleLink) error {
	if _, err := c.templates.GetByID(ctx, templateID); err != nil {
		return fmt.Errorf("tenancy.SetTemplateModules: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(links))
	out := make([]domain.TemplateModuleLink, 0, len(links))
	for _, l := range links {
		if l.ModuleID == uuid.Nil {
			return fmt.Errorf("tenancy.SetTemplateModules: %w", domain.Invalid("module_id", "module_id is required"))
		}
		if seen[l.ModuleID] {
			continue
		}
		seen[l.ModuleID] = true
		out = append(out, l)
	}

	if err := c.templates.SetModules(ctx, templateID, out); err != nil {
		return fmt.Errorf("tenancy.SetTemplateModules: %w", err)
	}
	c.audit(ctx, actorID, domain.AuditActionUpdate, "system_template_modules", templateID, map[string]any{"modules": len(out)})
	return nil
}

func (c *Catalog) audit(ctx context.Context, actorID uuid.UUID, action, entity string, id uuid.UUID, details map[string]any) {
	if c.auditor == nil {
		return
	}
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entity,
		EntityID:   id.String(),
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if actorID != uuid.Nil {
		entry.ActorID = &actorID
	}
	c.auditor.Record(ctx, entry)
}
