// Package tenancy provisions companies: creation from a system template,
// module selection, status changes and user invites.
package tenancy

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/plan"
	redisstore "github.com/evolutech/platform/internal/store/redis"
)

const defaultInviteTTL = 7 * 24 * time.Hour

// Publisher pushes change events to a company's connected clients.
type Publisher interface {
	PublishCompany(ctx context.Context, companyID uuid.UUID, event redisstore.CompanyEvent) error
}

// Auditor records who changed what.
type Auditor interface {
	Record(ctx context.Context, entry *domain.AuditEntry)
}

type Service struct {
	companies domain.CompanyRepository
	templates domain.TemplateRepository
	users     domain.UserRepository
	invites   domain.InviteRepository
	events    Publisher
	auditor   Auditor
	inviteTTL time.Duration
}

// Option configures optional collaborators.
type Option func(*Service)

func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

func WithAuditor(a Auditor) Option { return func(s *Service) { s.auditor = a } }

func WithInviteTTL(d time.Duration) Option { return func(s *Service) { s.inviteTTL = d } }

func NewService(
	companies domain.CompanyRepository,
	templates domain.TemplateRepository,
	users domain.UserRepository,
	invites domain.InviteRepository,
	opts ...Option,
) *Service {
	s := &Service{
		companies: companies,
		templates: templates,
		users:     users,
		invites:   invites,
		inviteTTL: defaultInviteTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitialSelection returns the module set a company form starts with. With a
// company id (edit mode) it is the company's active modules and the template
// is ignored. With only a template id it is every module of the template.
// With neither it is empty.
func (s *Service) InitialSelection(ctx context.Context, companyID, templateID *uuid.UUID) (*Selection, error) {
	if companyID != nil {
		mods, err := s.companies.ActiveModules(ctx, *companyID)
		if err != nil {
			return nil, fmt.Errorf("tenancy.InitialSelection: %w", err)
		}
		return NewSelection(domain.ModuleIDs(mods)...), nil
	}

	if templateID != nil {
		links, err := s.templates.Modules(ctx, *templateID)
		if err != nil {
			return nil, fmt.Errorf("tenancy.InitialSelection: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(links))
		for _, l := range links {
			ids = append(ids, l.Module.ID)
		}
		return NewSelection(ids...), nil
	}

	return NewSelection(), nil
}

// CreateCompanyInput is an operator's request to provision a company.
type CreateCompanyInput struct {
	Name           string
	Slug           string
	Plan           string
	MonthlyRevenue float64
	SistemaBaseID  *uuid.UUID
	// ModuleIDs, when non-nil, is the exact module set. When nil the
	// template's modules are used.
	ModuleIDs  []uuid.UUID
	OwnerEmail string
}

type CreateCompanyResult struct {
	Company     *domain.Company
	ModuleIDs   []uuid.UUID
	OwnerInvite *domain.Invite
	// OwnerInviteErr is set when the company was created but its owner
	// invite could not be issued. The operator re-sends it from the company.
	OwnerInviteErr error
}

// CreateCompany inserts the company with its module set in one transaction
// and, when an owner email is given, issues an owner invite. A failed invite
// does not undo the company; it is reported in OwnerInviteErr.
func (s *Service) CreateCompany(ctx context.Context, actorID uuid.UUID, in CreateCompanyInput) (*CreateCompanyResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("tenancy.CreateCompany: %w", domain.Invalid("name", "name is required"))
	}
	planName := in.Plan
	if planName == "" {
		planName = string(plan.Starter)
	}
	if !plan.Valid(planName) {
		return nil, fmt.Errorf("tenancy.CreateCompany: %w", domain.Invalid("plan", fmt.Sprintf("unknown plan %q", planName)))
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, fmt.Errorf("tenancy.CreateCompany: %w", domain.Invalid("slug", "slug is required"))
	}
	if in.OwnerEmail != "" {
		if _, err := mail.ParseAddress(in.OwnerEmail); err != nil {
			return nil, fmt.Errorf("tenancy.CreateCompany: %w", domain.Invalid("owner_email", "owner email is invalid"))
		}
	}

	var sel *Selection
	if in.ModuleIDs != nil {
		sel = NewSelection(in.ModuleIDs...)
	} else {
		var err error
		sel, err = s.InitialSelection(ctx, nil, in.SistemaBaseID)
		if err != nil {
			return nil, fmt.Errorf("tenancy.CreateCompany: %w", err)
		}
	}

	now := time.Now()
	c := &domain.Company{
		ID:             uuid.New(),
		Name:           name,
		Slug:           slug,
		Plan:           planName,
		Status:         domain.CompanyStatusActive,
		MonthlyRevenue: in.MonthlyRevenue,
		SistemaBaseID:  in.SistemaBaseID,
		Settings:       map[string]any{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.companies.Create(ctx, c, sel.IDs()); err != nil {
		return nil, fmt.Errorf("tenancy.CreateCompany: %w", err)
	}

	res := &CreateCompanyResult{Company: c, ModuleIDs: sel.IDs()}

	if in.OwnerEmail != "" {
		inv, err := s.newInvite(ctx, c.ID, actorID, in.OwnerEmail, domain.RoleOwner)
		if err != nil {
			log.Warn().Err(err).Str("company_id", c.ID.String()).Msg("tenancy: owner invite failed")
			res.OwnerInviteErr = fmt.Errorf("tenancy.CreateCompany: owner invite: %w", err)
		}
		res.OwnerInvite = inv
	}

	s.audit(ctx, &c.ID, actorID, domain.AuditActionCreate, "company", c.ID.String(), map[string]any{
		"slug": c.Slug, "plan": c.Plan, "modules": len(res.ModuleIDs),
	})
	return res, nil
}

// Company returns one company.
func (s *Service) Company(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Company: %w", err)
	}
	return c, nil
}

// Companies lists companies for the operator console with the total count.
func (s *Service) Companies(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("tenancy.Companies: %w", domain.Invalid("status", fmt.Sprintf("unknown status %q", f.Status)))
	}
	list, total, err := s.companies.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("tenancy.Companies: %w", err)
	}
	return list, total, nil
}

// CompanyModules returns the company's active modules.
func (s *Service) CompanyModules(ctx context.Context, companyID uuid.UUID) ([]*domain.Module, error) {
	mods, err := s.companies.ActiveModules(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("tenancy.CompanyModules: %w", err)
	}
	return mods, nil
}

// CompanyPatch carries the editable company fields. Nil means unchanged.
type CompanyPatch struct {
	Name           *string
	Plan           *string
	MonthlyRevenue *float64
	SistemaBaseID  *uuid.UUID
	Settings       map[string]any
}

// UpdateCompany applies patch to the company. Last write wins.
func (s *Service) UpdateCompany(ctx context.Context, actorID, id uuid.UUID, patch CompanyPatch) (*domain.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.UpdateCompany: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("tenancy.UpdateCompany: %w", domain.Invalid("name", "name is required"))
		}
		c.Name = name
	}
	if patch.Plan != nil {
		if !plan.Valid(*patch.Plan) {
			return nil, fmt.Errorf("tenancy.UpdateCompany: %w", domain.Invalid("plan", fmt.Sprintf("unknown plan %q", *patch.Plan)))
		}
		c.Plan = *patch.Plan
	}
	if patch.MonthlyRevenue != nil {
		c.MonthlyRevenue = *patch.MonthlyRevenue
	}
	if patch.SistemaBaseID != nil {
		c.SistemaBaseID = patch.SistemaBaseID
	}
	if patch.Settings != nil {
		c.Settings = patch.Settings
	}

	if err := s.companies.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("tenancy.UpdateCompany: %w", err)
	}

	s.audit(ctx, &c.ID, actorID, domain.AuditActionUpdate, "company", c.ID.String(), nil)
	return c, nil
}

// SetStatus activates, deactivates or suspends a company.
func (s *Service) SetStatus(ctx context.Context, actorID, id uuid.UUID, status domain.CompanyStatus) error {
	if !status.Valid() {
		return fmt.Errorf("tenancy.SetStatus: %w", domain.Invalid("status", fmt.Sprintf("unknown status %q", status)))
	}
	if err := s.companies.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("tenancy.SetStatus: %w", err)
	}
	s.audit(ctx, &id, actorID, domain.AuditActionUpdate, "company", id.String(), map[string]any{"status": string(status)})
	return nil
}

// UpdateCompanyModules replaces the company's active module set.
func (s *Service) UpdateCompanyModules(ctx context.Context, actorID, companyID uuid.UUID, ids []uuid.UUID) (*Selection, error) {
	sel := NewSelection(ids...)
	if err := s.companies.ReplaceModules(ctx, companyID, sel.IDs()); err != nil {
		return nil, fmt.Errorf("tenancy.UpdateCompanyModules: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishCompany(ctx, companyID, redisstore.CompanyEvent{Type: redisstore.EventModulesChanged}); err != nil {
			log.Warn().Err(err).Str("company_id", companyID.String()).Msg("tenancy: publish modules change failed")
		}
	}
	s.audit(ctx, &companyID, actorID, domain.AuditActionUpdate, "company_modules", companyID.String(), map[string]any{"modules": sel.Len()})
	return sel, nil
}

// Invite issues an invite for email to join companyID with role. The
// company's plan must leave room for one more user.
func (s *Service) Invite(ctx context.Context, companyID, actorID uuid.UUID, email, role string) (*domain.Invite, error) {
	inv, err := s.newInvite(ctx, companyID, actorID, email, role)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Invite: %w", err)
	}
	s.audit(ctx, &companyID, actorID, domain.AuditActionCreate, "invite", inv.ID.String(), map[string]any{"role": role})
	return inv, nil
}

// Invites lists the company's invites, newest first.
func (s *Service) Invites(ctx context.Context, companyID uuid.UUID) ([]*domain.Invite, error) {
	list, err := s.invites.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("tenancy.Invites: %w", err)
	}
	return list, nil
}

func (s *Service) newInvite(ctx context.Context, companyID, actorID uuid.UUID, email, role string) (*domain.Invite, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, domain.Invalid("email", "email is invalid")
	}
	if !domain.IsCompanyRole(role) {
		return nil, domain.Invalid("role", fmt.Sprintf("role %q cannot be invited", role))
	}

	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	count, err := s.users.CountByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := plan.CheckUserLimit(company.Plan, count); err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &domain.Invite{
		ID:        uuid.New(),
		CompanyID: companyID,
		Email:     strings.ToLower(addr.Address),
		Role:      role,
		Token:     token,
		Status:    domain.InviteStatusPending,
		ExpiresAt: now.Add(s.inviteTTL),
		CreatedAt: now,
	}
	if actorID != uuid.Nil {
		inv.CreatedBy = &actorID
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) audit(ctx context.Context, companyID *uuid.UUID, actorID uuid.UUID, action, entity, entityID string, details map[string]any) {
	if s.auditor == nil {
		return
	}
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		CompanyID:  companyID,
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if actorID != uuid.Nil {
		entry.ActorID = &actorID
	}
	s.auditor.Record(ctx, entry)
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Slugify turns a company name into a URL slug: accents stripped, lower
// case, runs of anything else collapsed to a single "-".
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
