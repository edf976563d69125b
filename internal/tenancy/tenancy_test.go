package tenancy_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolutech/platform/internal/domain"
	redisstore "github.com/evolutech/platform/internal/store/redis"
	"github.com/evolutech/platform/internal/tenancy"
)

// --- mocks ---

type mockCompanies struct {
	createFunc         func(ctx context.Context, c *domain.Company, moduleIDs []uuid.UUID) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	updateFunc         func(ctx context.Context, c *domain.Company) error
	setStatusFunc      func(ctx context.Context, id uuid.UUID, status domain.CompanyStatus) error
	activeModulesFunc  func(ctx context.Context, companyID uuid.UUID) ([]*domain.Module, error)
	replaceModulesFunc func(ctx context.Context, companyID uuid.UUID, moduleIDs []uuid.UUID) error
}

func (m *mockCompanies) Create(ctx context.Context, c *domain.Company, moduleIDs []uuid.UUID) error {
	return m.createFunc(ctx, c, moduleIDs)
}

func (m *mockCompanies) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockCompanies) GetBySlug(context.Context, string) (*domain.Company, error) {
	return nil, domain.ErrNotFound
}

func (m *mockCompanies) Update(ctx context.Context, c *domain.Company) error {
	return m.updateFunc(ctx, c)
}

func (m *mockCompanies) SetStatus(ctx context.Context, id uuid.UUID, status domain.CompanyStatus) error {
	return m.setStatusFunc(ctx, id, status)
}

func (m *mockCompanies) List(context.Context, domain.CompanyFilter) ([]*domain.Company, int64, error) {
	return nil, 0, nil
}

func (m *mockCompanies) ActiveModules(ctx context.Context, companyID uuid.UUID) ([]*domain.Module, error) {
	return m.activeModulesFunc(ctx, companyID)
}

func (m *mockCompanies) ReplaceModules(ctx context.Context, companyID uuid.UUID, moduleIDs []uuid.UUID) error {
	return m.replaceModulesFunc(ctx, companyID, moduleIDs)
}

type mockTemplates struct {
	modulesFunc func(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateModule, error)
}

func (m *mockTemplates) Create(context.Context, *domain.SystemTemplate) error { return nil }
func (m *mockTemplates) GetByID(context.Context, uuid.UUID) (*domain.SystemTemplate, error) {
	return nil, domain.ErrNotFound
}
func (m *mockTemplates) Update(context.Context, *domain.SystemTemplate) error { return nil }
func (m *mockTemplates) List(context.Context) ([]*domain.SystemTemplate, error) {
	return nil, nil
}

func (m *mockTemplates) Modules(ctx context.Context, templateID uuid.UUID) ([]*domain.TemplateModule, error) {
	return m.modulesFunc(ctx, templateID)
}

func (m *mockTemplates) SetModules(context.Context, uuid.UUID, []domain.TemplateModuleLink) error {
	return nil
}

type mockUsers struct {
	count int
}

func (m *mockUsers) Create(context.Context, *domain.User) error { return nil }
func (m *mockUsers) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (m *mockUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (m *mockUsers) Update(context.Context, *domain.User) error { return nil }
func (m *mockUsers) ListByCompany(context.Context, uuid.UUID) ([]*domain.User, error) {
	return nil, nil
}
func (m *mockUsers) CountByCompany(context.Context, uuid.UUID) (int, error) { return m.count, nil }

type mockInvites struct {
	created []*domain.Invite
	err     error
}

func (m *mockInvites) Create(_ context.Context, inv *domain.Invite) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, inv)
	return nil
}

func (m *mockInvites) GetByToken(context.Context, string) (*domain.Invite, error) {
	return nil, domain.ErrNotFound
}

func (m *mockInvites) ListByCompany(context.Context, uuid.UUID) ([]*domain.Invite, error) {
	return m.created, nil
}

func (m *mockInvites) Accept(context.Context, *domain.Invite, *domain.User) error { return nil }

type recordingPublisher struct {
	events []redisstore.CompanyEvent
}

func (p *recordingPublisher) PublishCompany(_ context.Context, _ uuid.UUID, e redisstore.CompanyEvent) error {
	p.events = append(p.events, e)
	return nil
}

type recordingAuditor struct {
	entries []*domain.AuditEntry
}

func (a *recordingAuditor) Record(_ context.Context, e *domain.AuditEntry) {
	a.entries = append(a.entries, e)
}

func modules(ids ...uuid.UUID) []*domain.Module {
	out := make([]*domain.Module, 0, len(ids))
	for _, id := range ids {
		out = append(out, &domain.Module{ID: id, Code: "m-" + id.String()[:4]})
	}
	return out
}

func templateModules(ids ...uuid.UUID) []*domain.TemplateModule {
	out := make([]*domain.TemplateModule, 0, len(ids))
	for i, id := range ids {
		out = append(out, &domain.TemplateModule{Module: &domain.Module{ID: id}, IsDefault: i == 0})
	}
	return out
}

// ---------------------------------------------------------------------------
// 1. Selection
// ---------------------------------------------------------------------------

func TestSelection_Toggle(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	sel := tenancy.NewSelection(a, b, a)

	assert.Equal(t, []uuid.UUID{a, b}, sel.IDs(), "duplicates are dropped")

	assert.True(t, sel.Toggle(c))
	assert.True(t, sel.Contains(c))
	assert.Equal(t, []uuid.UUID{a, b, c}, sel.IDs())

	assert.False(t, sel.Toggle(a))
	assert.False(t, sel.Contains(a))
	assert.Equal(t, []uuid.UUID{b, c}, sel.IDs())
	assert.Equal(t, 2, sel.Len())
}

func TestSelection_IDsIsACopy(t *testing.T) {
	t.Parallel()

	a := uuid.New()
	sel := tenancy.NewSelection(a)
	ids := sel.IDs()
	ids[0] = uuid.Nil

	assert.True(t, sel.Contains(a))
	assert.NotNil(t, tenancy.NewSelection().IDs())
}

// ---------------------------------------------------------------------------
// 2. InitialSelection
// ---------------------------------------------------------------------------

func TestInitialSelection_EditModeIgnoresTemplate(t *testing.T) {
	t.Parallel()

	active := []uuid.UUID{uuid.New(), uuid.New()}
	companies := &mockCompanies{
		activeModulesFunc: func(context.Context, uuid.UUID) ([]*domain.Module, error) {
			return modules(active...), nil
		},
	}
	templates := &mockTemplates{
		modulesFunc: func(context.Context, uuid.UUID) ([]*domain.TemplateModule, error) {
			t.Fatal("template lookup must be bypassed in edit mode")
			return nil, nil
		},
	}
	svc := tenancy.NewService(companies, templates, &mockUsers{}, &mockInvites{})

	companyID, templateID := uuid.New(), uuid.New()
	sel, err := svc.InitialSelection(context.Background(), &companyID, &templateID)
	require.NoError(t, err)
	assert.Equal(t, active, sel.IDs())
}

func TestInitialSelection_TemplatePreselectsAll(t *testing.T) {
	t.Parallel()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	templates := &mockTemplates{
		modulesFunc: func(context.Context, uuid.UUID) ([]*domain.TemplateModule, error) {
			return templateModules(ids...), nil
		},
	}
	svc := tenancy.NewService(&mockCompanies{}, templates, &mockUsers{}, &mockInvites{})

	templateID := uuid.New()
	sel, err := svc.InitialSelection(context.Background(), nil, &templateID)
	require.NoError(t, err)
	assert.Equal(t, ids, sel.IDs(), "every template module is selected, not only defaults")
}

func TestInitialSelection_Empty(t *testing.T) {
	t.Parallel()

	svc := tenancy.NewService(&mockCompanies{}, &mockTemplates{}, &mockUsers{}, &mockInvites{})

	sel, err := svc.InitialSelection(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Len())
}

// ---------------------------------------------------------------------------
// 3. CreateCompany
// ---------------------------------------------------------------------------

func TestCreateCompany_FromTemplateWithOwnerInvite(t *testing.T) {
	t.Parallel()

	templateIDs := []uuid.UUID{uuid.New(), uuid.New()}
	var stored *domain.Company
	var storedModules []uuid.UUID

	companies := &mockCompanies{
		createFunc: func(_ context.Context, c *domain.Company, ids []uuid.UUID) error {
			stored, storedModules = c, ids
			return nil
		},
		getByIDFunc: func(context.Context, uuid.UUID) (*domain.Company, error) { return stored, nil },
	}
	templates := &mockTemplates{
		modulesFunc: func(context.Context, uuid.UUID) ([]*domain.TemplateModule, error) {
			return templateModules(templateIDs...), nil
		},
	}
	invites := &mockInvites{}
	aud := &recordingAuditor{}
	svc := tenancy.NewService(companies, templates, &mockUsers{}, invites, tenancy.WithAuditor(aud))

	templateID := uuid.New()
	actor := uuid.New()
	res, err := svc.CreateCompany(context.Background(), actor, tenancy.CreateCompanyInput{
		Name:          "  Barbearia São João ",
		SistemaBaseID: &templateID,
		OwnerEmail:    "Dono@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Barbearia São João", stored.Name)
	assert.Equal(t, "barbearia-sao-joao", stored.Slug)
	assert.Equal(t, "starter", stored.Plan)
	assert.Equal(t, domain.CompanyStatusActive, stored.Status)
	assert.Equal(t, templateIDs, storedModules)
	assert.Equal(t, templateIDs, res.ModuleIDs)

	require.NotNil(t, res.OwnerInvite)
	assert.Equal(t, "dono@example.com", res.OwnerInvite.Email)
	assert.Equal(t, domain.RoleOwner, res.OwnerInvite.Role)
	assert.Len(t, res.OwnerInvite.Token, 64)
	assert.True(t, res.OwnerInvite.Usable(time.Now()))
	require.Len(t, invites.created, 1)

	require.Len(t, aud.entries, 1)
	assert.Equal(t, "company", aud.entries[0].EntityType)
}

func TestCreateCompany_OwnerInviteFailureKeepsCompany(t *testing.T) {
	t.Parallel()

	var stored *domain.Company
	companies := &mockCompanies{
		createFunc: func(_ context.Context, c *domain.Company, _ []uuid.UUID) error {
			stored = c
			return nil
		},
		getByIDFunc: func(context.Context, uuid.UUID) (*domain.Company, error) { return stored, nil },
	}
	invites := &mockInvites{err: errors.New("connection reset")}
	aud := &recordingAuditor{}
	svc := tenancy.NewService(companies, &mockTemplates{}, &mockUsers{}, invites, tenancy.WithAuditor(aud))

	res, err := svc.CreateCompany(context.Background(), uuid.New(), tenancy.CreateCompanyInput{
		Name:       "Ótica Central",
		ModuleIDs:  []uuid.UUID{},
		OwnerEmail: "dono@otica.com",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Company)
	assert.Equal(t, stored.ID, res.Company.ID)
	assert.Nil(t, res.OwnerInvite)
	require.Error(t, res.OwnerInviteErr)
	assert.Contains(t, res.OwnerInviteErr.Error(), "connection reset")
	require.Len(t, aud.entries, 1)
}

func TestCreateCompany_ExplicitModulesWin(t *testing.T) {
	t.Parallel()

	explicit := []uuid.UUID{uuid.New()}
	var storedModules []uuid.UUID
	companies := &mockCompanies{
		createFunc: func(_ context.Context, _ *domain.Company, ids []uuid.UUID) error {
			storedModules = ids
			return nil
		},
	}
	templates := &mockTemplates{
		modulesFunc: func(context.Context, uuid.UUID) ([]*domain.TemplateModule, error) {
			t.Fatal("template must not be consulted when modules are explicit")
			return nil, nil
		},
	}
	svc := tenancy.NewService(companies, templates, &mockUsers{}, &mockInvites{})

	templateID := uuid.New()
	_, err := svc.CreateCompany(context.Background(), uuid.New(), tenancy.CreateCompanyInput{
		Name:          "Acme",
		SistemaBaseID: &templateID,
		ModuleIDs:     append(explicit, explicit[0]),
	})
	require.NoError(t, err)
	assert.Equal(t, explicit, storedModules)
}

func TestCreateCompany_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    tenancy.CreateCompanyInput
		field string
	}{
		{name: "blank name", in: tenancy.CreateCompanyInput{Name: "   "}, field: "name"},
		{name: "unknown plan", in: tenancy.CreateCompanyInput{Name: "Acme", Plan: "gold"}, field: "plan"},
		{name: "unsluggable", in: tenancy.CreateCompanyInput{Name: "!!!"}, field: "slug"},
		{name: "bad owner email", in: tenancy.CreateCompanyInput{Name: "Acme", OwnerEmail: "nope"}, field: "owner_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := tenancy.NewService(&mockCompanies{}, &mockTemplates{}, &mockUsers{}, &mockInvites{})
			_, err := svc.CreateCompany(context.Background(), uuid.New(), tt.in)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateCompany_DuplicateSlugPassesConstraintThrough(t *testing.T) {
	t.Parallel()

	companies := &mockCompanies{
		createFunc: func(context.Context, *domain.Company, []uuid.UUID) error {
			return fmt.Errorf("companyRepo.Create: %w", &domain.ConstraintError{Code: "23505", Message: "duplicate key value violates unique constraint \"companies_slug_key\""})
		},
	}
	svc := tenancy.NewService(companies, &mockTemplates{}, &mockUsers{}, &mockInvites{})

	_, err := svc.CreateCompany(context.Background(), uuid.New(), tenancy.CreateCompanyInput{Name: "Acme", ModuleIDs: []uuid.UUID{}})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---------------------------------------------------------------------------
// 4. Modules, status, invites
// ---------------------------------------------------------------------------

func TestUpdateCompanyModules_ReplacesAndNotifies(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	var replaced []uuid.UUID
	companies := &mockCompanies{
		replaceModulesFunc: func(_ context.Context, _ uuid.UUID, ids []uuid.UUID) error {
			replaced = ids
			return nil
		},
	}
	pub := &recordingPublisher{}
	svc := tenancy.NewService(companies, &mockTemplates{}, &mockUsers{}, &mockInvites{}, tenancy.WithPublisher(pub))

	sel, err := svc.UpdateCompanyModules(context.Background(), uuid.New(), uuid.New(), []uuid.UUID{a, b, b})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, replaced)
	assert.Equal(t, 2, sel.Len())
	require.Len(t, pub.events, 1)
	assert.Equal(t, redisstore.EventModulesChanged, pub.events[0].Type)
}

func TestSetStatus_RejectsUnknown(t *testing.T) {
	t.Parallel()

	svc := tenancy.NewService(&mockCompanies{}, &mockTemplates{}, &mockUsers{}, &mockInvites{})

	err := svc.SetStatus(context.Background(), uuid.New(), uuid.New(), "deleted")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInvite_PlanLimit(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	companies := &mockCompanies{
		getByIDFunc: func(context.Context, uuid.UUID) (*domain.Company, error) {
			return &domain.Company{ID: companyID, Plan: "starter"}, nil
		},
	}
	invites := &mockInvites{}
	svc := tenancy.NewService(companies, &mockTemplates{}, &mockUsers{count: 3}, invites)

	_, err := svc.Invite(context.Background(), companyID, uuid.New(), "new@example.com", domain.RoleEmployee)
	assert.ErrorIs(t, err, domain.ErrPlanLimit)
	assert.Empty(t, invites.created)
}

func TestInvite_RejectsOperatorRole(t *testing.T) {
	t.Parallel()

	svc := tenancy.NewService(&mockCompanies{}, &mockTemplates{}, &mockUsers{}, &mockInvites{})

	_, err := svc.Invite(context.Background(), uuid.New(), uuid.New(), "new@example.com", domain.RoleSuperAdmin)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "role", ve.Field)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Clínica Estética Ânima": "clinica-estetica-anima",
		"  Pet & Shop  ":         "pet-shop",
		"ACME-2024":              "acme-2024",
		"---":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, tenancy.Slugify(in), "input %q", in)
	}
}
