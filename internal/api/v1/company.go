package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/navigation"
	"github.com/evolutech/platform/internal/notice"
	"github.com/evolutech/platform/internal/server/middleware"
)

type NavigationInput struct {
	Locale
}

type NavigationOutput struct {
	Body struct {
		Role    string             `json:"role"`
		Modules []string           `json:"modules"`
		Entries []navigation.Entry `json:"entries"`
	}
}

type ListInvitesInput struct {
	Locale
}

type ListInvitesOutput struct {
	Body []*domain.Invite
}

type CreateInviteInput struct {
	Locale
	Body struct {
		Email string `json:"email" minLength:"3" maxLength:"255" doc:"Invitee email"`
		Role  string `json:"role,omitempty" enum:"dono_empresa,funcionario_empresa" default:"funcionario_empresa" doc:"Role granted on acceptance"`
	}
}

type CreateInviteOutput struct {
	Body struct {
		Invite  *domain.Invite `json:"invite"`
		Token   string         `json:"token" doc:"Share as the acceptance link; not shown again"`
		Message string         `json:"message"`
	}
}

type ListAuditInput struct {
	Locale
	Page     int `query:"page" minimum:"1" default:"1"`
	PageSize int `query:"pageSize" minimum:"1" maximum:"100" default:"20"`
}

type ListAuditOutput struct {
	Body struct {
		Data       []*domain.AuditEntry `json:"data"`
		TotalCount int64                `json:"total_count"`
	}
}

// RegisterCompanyRoutes registers the company dashboard endpoints that are
// not plain table CRUD.
func RegisterCompanyRoutes(api huma.API, tenancySvc TenancyService, auditLog AuditLister) {
	huma.Register(api, huma.Operation{
		OperationID: "company-navigation",
		Method:      http.MethodGet,
		Path:        "/company/navigation",
		Summary:     "Sidebar entries visible to the caller",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, input *NavigationInput) (*NavigationOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}
		role, _ := middleware.RoleFromContext(ctx)

		mods, err := tenancySvc.CompanyModules(ctx, scope.CompanyID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		codes := domain.ModuleCodes(mods)

		out := &NavigationOutput{}
		out.Body.Role = role
		out.Body.Modules = codes
		out.Body.Entries = navigation.Filter(role, codes)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invites",
		Method:      http.MethodGet,
		Path:        "/company/invites",
		Summary:     "List the company's invites",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, input *ListInvitesInput) (*ListInvitesOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireOwner(ctx, input.Locale); err != nil {
			return nil, err
		}

		list, err := tenancySvc.Invites(ctx, scope.CompanyID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		return &ListInvitesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-invite",
		Method:        http.MethodPost,
		Path:          "/company/invites",
		Summary:       "Invite a user to the company",
		Tags:          []string{"Company"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateInviteInput) (*CreateInviteOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireOwner(ctx, input.Locale); err != nil {
			return nil, err
		}

		inv, err := tenancySvc.Invite(ctx, scope.CompanyID, scope.ActorID, input.Body.Email, input.Body.Role)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordCreateFailed, err)
		}

		out := &CreateInviteOutput{}
		out.Body.Invite = inv
		out.Body.Token = inv.Token
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.InviteSent, inv.Email)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/company/audit-logs",
		Summary:     "The company's audit trail, newest first",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireOwner(ctx, input.Locale); err != nil {
			return nil, err
		}

		limit := max(input.PageSize, 1)
		offset := (max(input.Page, 1) - 1) * limit
		entries, total, err := auditLog.List(ctx, scope.CompanyID, limit, offset)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if entries == nil {
			entries = []*domain.AuditEntry{}
		}

		out := &ListAuditOutput{}
		out.Body.Data = entries
		out.Body.TotalCount = total
		return out, nil
	})
}
