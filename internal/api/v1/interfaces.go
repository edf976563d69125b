package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/auth"
	"github.com/evolutech/platform/internal/commerce"
	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/query"
	"github.com/evolutech/platform/internal/records"
	"github.com/evolutech/platform/internal/tenancy"
)

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	AcceptInvite(ctx context.Context, token string, in auth.AcceptInviteInput) (*auth.Session, error)
}

// TenancyService abstracts company provisioning. *tenancy.Service satisfies
// this interface.
type TenancyService interface {
	InitialSelection(ctx context.Context, companyID, templateID *uuid.UUID) (*tenancy.Selection, error)
	CreateCompany(ctx context.Context, actorID uuid.UUID, in tenancy.CreateCompanyInput) (*tenancy.CreateCompanyResult, error)
	Company(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	Companies(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int64, error)
	CompanyModules(ctx context.Context, companyID uuid.UUID) ([]*domain.Module, error)
	UpdateCompany(ctx context.Context, actorID, id uuid.UUID, patch tenancy.CompanyPatch) (*domain.Company, error)
	SetStatus(ctx context.Context, actorID, id uuid.UUID, status domain.CompanyStatus) error
	UpdateCompanyModules(ctx context.Context, actorID, companyID uuid.UUID, ids []uuid.UUID) (*tenancy.Selection, error)
	Invite(ctx context.Context, companyID, actorID uuid.UUID, email, role string) (*domain.Invite, error)
	Invites(ctx context.Context, companyID uuid.UUID) ([]*domain.Invite, error)
}

// CatalogService abstracts the module and template catalogue.
// *tenancy.Catalog satisfies this interface.
type CatalogService interface {
	Modules(ctx context.Context) ([]*domain.Module, error)
	CreateModule(ctx context.Context, actorID uuid.UUID, in tenancy.ModuleInput) (*domain.Module, error)
	UpdateModule(ctx context.Context, actorID, id uuid.UUID, in tenancy.ModuleInput) (*domain.Module, error)
	Templates(ctx context.Context) ([]*domain.SystemTemplate, error)
	Template(ctx context.Context, id uuid.UUID) (*domain.SystemTemplate, error)
	CreateTemplate(ctx context.Context, actorID uuid.UUID, in tenancy.TemplateInput) (*domain.SystemTemplate, error)
	UpdateTemplate(ctx context.Context, actorID, id uuid.UUID, in tenancy.TemplateInput) (*domain.SystemTemplate, error)
	TemplateModules(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateModule, error)
	SetTemplateModules(ctx context.Context, actorID, templateID uuid.UUID, links []domain.TemplateModuleLink) error
}

// RecordsService abstracts tenant-scoped CRUD. *records.Service satisfies
// this interface.
type RecordsService interface {
	List(ctx context.Context, scope records.Scope, table string, q query.ListQuery) (*records.Page, error)
	Get(ctx context.Context, scope records.Scope, table string, id uuid.UUID) (domain.Record, error)
	Create(ctx context.Context, scope records.Scope, table string, input map[string]any) (domain.Record, error)
	Update(ctx context.Context, scope records.Scope, table string, id uuid.UUID, input map[string]any) (domain.Record, error)
	Remove(ctx context.Context, scope records.Scope, table string, id uuid.UUID) error
}

// CommerceService abstracts the point of sale and billing.
// *commerce.Service satisfies this interface.
type CommerceService interface {
	Checkout(ctx context.Context, scope records.Scope, in commerce.CheckoutInput) (*domain.Order, error)
	CreateCharge(ctx context.Context, scope records.Scope, in commerce.ChargeInput) (domain.Record, error)
	Connect(ctx context.Context, scope records.Scope, provider string, creds map[string]string) (*domain.PaymentGateway, error)
	Gateways(ctx context.Context, companyID uuid.UUID) ([]*domain.PaymentGateway, error)
}

// AuditLister reads a company's audit trail. *audit.Recorder satisfies this
// interface.
type AuditLister interface {
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, int64, error)
}
