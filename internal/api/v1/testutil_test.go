package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/auth"
	"github.com/evolutech/platform/internal/commerce"
	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/query"
	"github.com/evolutech/platform/internal/records"
	"github.com/evolutech/platform/internal/server/middleware"
	"github.com/evolutech/platform/internal/tenancy"
)

// ---------------------------------------------------------------------------
// Context helpers — inject company/user/role into context for DoCtx
// ---------------------------------------------------------------------------

func companyCtx(companyID, userID uuid.UUID, role string) context.Context {
	return middleware.WithIdentity(context.Background(), &companyID, userID, role)
}

func ownerCtx(companyID uuid.UUID) context.Context {
	return companyCtx(companyID, uuid.New(), domain.RoleOwner)
}

func employeeCtx(companyID uuid.UUID) context.Context {
	return companyCtx(companyID, uuid.New(), domain.RoleEmployee)
}

func operatorCtx(userID uuid.UUID) context.Context {
	return middleware.WithIdentity(context.Background(), nil, userID, domain.RoleSuperAdmin)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc        func(ctx context.Context, email, password string) (*auth.Session, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
	getUserFunc      func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	acceptInviteFunc func(ctx context.Context, token string, in auth.AcceptInviteInput) (*auth.Session, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.getUserFunc(ctx, userID)
}

func (m *mockAuthService) AcceptInvite(ctx context.Context, token string, in auth.AcceptInviteInput) (*auth.Session, error) {
	return m.acceptInviteFunc(ctx, token, in)
}

// ---------------------------------------------------------------------------
// Mock RecordsService
// ---------------------------------------------------------------------------

type mockRecords struct {
	listFunc   func(ctx context.Context, scope records.Scope, table string, q query.ListQuery) (*records.Page, error)
	getFunc    func(ctx context.Context, scope records.Scope, table string, id uuid.UUID) (domain.Record, error)
	createFunc func(ctx context.Context, scope records.Scope, table string, input map[string]any) (domain.Record, error)
	updateFunc func(ctx context.Context, scope records.Scope, table string, id uuid.UUID, input map[string]any) (domain.Record, error)
	removeFunc func(ctx context.Context, scope records.Scope, table string, id uuid.UUID) error
}

func (m *mockRecords) List(ctx context.Context, scope records.Scope, table string, q query.ListQuery) (*records.Page, error) {
	return m.listFunc(ctx, scope, table, q)
}

func (m *mockRecords) Get(ctx context.Context, scope records.Scope, table string, id uuid.UUID) (domain.Record, error) {
	return m.getFunc(ctx, scope, table, id)
}

func (m *mockRecords) Create(ctx context.Context, scope records.Scope, table string, input map[string]any) (domain.Record, error) {
	return m.createFunc(ctx, scope, table, input)
}

func (m *mockRecords) Update(ctx context.Context, scope records.Scope, table string, id uuid.UUID, input map[string]any) (domain.Record, error) {
	return m.updateFunc(ctx, scope, table, id, input)
}

func (m *mockRecords) Remove(ctx context.Context, scope records.Scope, table string, id uuid.UUID) error {
	return m.removeFunc(ctx, scope, table, id)
}

// ---------------------------------------------------------------------------
// Mock TenancyService
// ---------------------------------------------------------------------------

type mockTenancy struct {
	initialSelectionFunc     func(ctx context.Context, companyID, templateID *uuid.UUID) (*tenancy.Selection, error)
	createCompanyFunc        func(ctx context.Context, actorID uuid.UUID, in tenancy.CreateCompanyInput) (*tenancy.CreateCompanyResult, error)
	companyFunc              func(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	companiesFunc            func(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int64, error)
	companyModulesFunc       func(ctx context.Context, companyID uuid.UUID) ([]*domain.Module, error)
	updateCompanyFunc        func(ctx context.Context, actorID, id uuid.UUID, patch tenancy.CompanyPatch) (*domain.Company, error)
	setStatusFunc            func(ctx context.Context, actorID, id uuid.UUID, status domain.CompanyStatus) error
	updateCompanyModulesFunc func(ctx context.Context, actorID, companyID uuid.UUID, ids []uuid.UUID) (*tenancy.Selection, error)
	inviteFunc               func(ctx context.Context, companyID, actorID uuid.UUID, email, role string) (*domain.Invite, error)
	invitesFunc              func(ctx context.Context, companyID uuid.UUID) ([]*domain.Invite, error)
}

func (m *mockTenancy) InitialSelection(ctx context.Context, companyID, templateID *uuid.UUID) (*tenancy.Selection, error) {
	return m.initialSelectionFunc(ctx, companyID, templateID)
}

func (m *mockTenancy) CreateCompany(ctx context.Context, actorID uuid.UUID, in tenancy.CreateCompanyInput) (*tenancy.CreateCompanyResult, error) {
	return m.createCompanyFunc(ctx, actorID, in)
}

func (m *mockTenancy) Company(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	return m.companyFunc(ctx, id)
}

func (m *mockTenancy) Companies(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int64, error) {
	return m.companiesFunc(ctx, f)
}

func (m *mockTenancy) CompanyModules(ctx context.Context, companyID uuid.UUID) ([]*domain.Module, error) {
	return m.companyModulesFunc(ctx, companyID)
}

func (m *mockTenancy) UpdateCompany(ctx context.Context, actorID, id uuid.UUID, patch tenancy.CompanyPatch) (*domain.Company, error) {
	return m.updateCompanyFunc(ctx, actorID, id, patch)
}

func (m *mockTenancy) SetStatus(ctx context.Context, actorID, id uuid.UUID, status domain.CompanyStatus) error {
	return m.setStatusFunc(ctx, actorID, id, status)
}

func (m *mockTenancy) UpdateCompanyModules(ctx context.Context, actorID, companyID uuid.UUID, ids []uuid.UUID) (*tenancy.Selection, error) {
	return m.updateCompanyModulesFunc(ctx, actorID, companyID, ids)
}

func (m *mockTenancy) Invite(ctx context.Context, companyID, actorID uuid.UUID, email, role string) (*domain.Invite, error) {
	return m.inviteFunc(ctx, companyID, actorID, email, role)
}

func (m *mockTenancy) Invites(ctx context.Context, companyID uuid.UUID) ([]*domain.Invite, error) {
	return m.invitesFunc(ctx, companyID)
}

// ---------------------------------------------------------------------------
// Mock CatalogService
// ---------------------------------------------------------------------------

type mockCatalog struct {
	modulesFunc            func(ctx context.Context) ([]*domain.Module, error)
	createModuleFunc       func(ctx context.Context, actorID uuid.UUID, in tenancy.ModuleInput) (*domain.Module, error)
	updateModuleFunc       func(ctx context.Context, actorID, id uuid.UUID, in tenancy.ModuleInput) (*domain.Module, error)
	templatesFunc          func(ctx context.Context) ([]*domain.SystemTemplate, error)
	templateFunc           func(ctx context.Context, id uuid.UUID) (*domain.SystemTemplate, error)
	createTemplateFunc     func(ctx context.Context, actorID uuid.UUID, in tenancy.TemplateInput) (*domain.SystemTemplate, error)
	updateTemplateFunc     func(ctx context.Context, actorID, id uuid.UUID, in tenancy.TemplateInput) (*domain.SystemTemplate, error)
	templateModulesFunc    func(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateModule, error)
	setTemplateModulesFunc func(ctx context.Context, actorID, templateID uuid.UUID, links []domain.TemplateModuleLink) error
}

func (m *mockCatalog) Modules(ctx context.Context) ([]*domain.Module, error) {
	return m.modulesFunc(ctx)
}

func (m *mockCatalog) CreateModule(ctx context.Context, actorID uuid.UUID, in tenancy.ModuleInput) (*domain.Module, error) {
	return m.createModuleFunc(ctx, actorID, in)
}

func (m *mockCatalog) UpdateModule(ctx context.Context, actorID, id uuid.UUID, in tenancy.ModuleInput) (*domain.Module, error) {
	return m.updateModuleFunc(ctx, actorID, id, in)
}

func (m *mockCatalog) Templates(ctx context.Context) ([]*domain.SystemTemplate, error) {
	return m.templatesFunc(ctx)
}

func (m *mockCatalog) Template(ctx context.Context, id uuid.UUID) (*domain.SystemTemplate, error) {
	return m.templateFunc(ctx, id)
}

func (m *mockCatalog) CreateTemplate(ctx context.Context, actorID uuid.UUID, in tenancy.TemplateInput) (*domain.SystemTemplate, error) {
	return m.createTemplateFunc(ctx, actorID, in)
}

func (m *mockCatalog) UpdateTemplate(ctx context.Context, actorID, id uuid.UUID, in tenancy.TemplateInput) (*domain.SystemTemplate, error) {
	return m.updateTemplateFunc(ctx, actorID, id, in)
}

func (m *mockCatalog) TemplateModules(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateModule, error) {
	return m.templateModulesFunc(ctx, templateID)
}

func (m *mockCatalog) SetTemplateModules(ctx context.Context, actorID, templateID uuid.UUID, links []domain.TemplateModuleLink) error {
	return m.setTemplateModulesFunc(ctx, actorID, templateID, links)
}

// ---------------------------------------------------------------------------
// Mock CommerceService
// ---------------------------------------------------------------------------

type mockCommerce struct {
	checkoutFunc     func(ctx context.Context, scope records.Scope, in commerce.CheckoutInput) (*domain.Order, error)
	createChargeFunc func(ctx context.Context, scope records.Scope, in commerce.ChargeInput) (domain.Record, error)
	connectFunc      func(ctx context.Context, scope records.Scope, provider string, creds map[string]string) (*domain.PaymentGateway, error)
	gatewaysFunc     func(ctx context.Context, companyID uuid.UUID) ([]*domain.PaymentGateway, error)
}

func (m *mockCommerce) Checkout(ctx context.Context, scope records.Scope, in commerce.CheckoutInput) (*domain.Order, error) {
	return m.checkoutFunc(ctx, scope, in)
}

func (m *mockCommerce) CreateCharge(ctx context.Context, scope records.Scope, in commerce.ChargeInput) (domain.Record, error) {
	return m.createChargeFunc(ctx, scope, in)
}

func (m *mockCommerce) Connect(ctx context.Context, scope records.Scope, provider string, creds map[string]string) (*domain.PaymentGateway, error) {
	return m.connectFunc(ctx, scope, provider, creds)
}

func (m *mockCommerce) Gateways(ctx context.Context, companyID uuid.UUID) ([]*domain.PaymentGateway, error) {
	return m.gatewaysFunc(ctx, companyID)
}

// ---------------------------------------------------------------------------
// Mock AuditLister
// ---------------------------------------------------------------------------

type mockAudit struct {
	listFunc func(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, int64, error)
}

func (m *mockAudit) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, int64, error) {
	return m.listFunc(ctx, companyID, limit, offset)
}
