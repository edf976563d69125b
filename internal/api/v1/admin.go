package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/notice"
	"github.com/evolutech/platform/internal/tenancy"
)

type ListCompaniesInput struct {
	Locale
	Search   string `query:"search" maxLength:"200"`
	Status   string `query:"status" enum:"active,inactive,suspended"`
	Page     int    `query:"page" minimum:"1" default:"1"`
	PageSize int    `query:"pageSize" minimum:"1" maximum:"100" default:"20"`
}

type ListCompaniesOutput struct {
	Body struct {
		Data       []*domain.Company `json:"data"`
		TotalCount int64             `json:"total_count"`
	}
}

type CreateCompanyInput struct {
	Locale
	Body struct {
		Name           string      `json:"name" minLength:"1" maxLength:"255"`
		Slug           string      `json:"slug,omitempty" maxLength:"63" doc:"Derived from the name when omitted"`
		Plan           string      `json:"plan,omitempty" enum:"starter,professional,enterprise" doc:"Defaults to starter"`
		MonthlyRevenue float64     `json:"monthly_revenue,omitempty" minimum:"0"`
		SistemaBaseID  *uuid.UUID  `json:"sistema_base_id,omitempty" doc:"System template"`
		ModuleIDs      []uuid.UUID `json:"module_ids,omitempty" doc:"Exact module set; the template's modules when omitted"`
		OwnerEmail     string      `json:"owner_email,omitempty" maxLength:"255" doc:"Sends an owner invite"`
	}
}

type CreateCompanyOutput struct {
	Body struct {
		Company     *domain.Company `json:"company"`
		ModuleIDs   []uuid.UUID     `json:"module_ids"`
		OwnerInvite *domain.Invite  `json:"owner_invite,omitempty"`
		InviteToken string          `json:"invite_token,omitempty"`
		Message     string          `json:"message"`
		Warning     string          `json:"warning,omitempty" doc:"Set when the company exists but the owner invite failed"`
	}
}

type CompanyIDInput struct {
	Locale
	ID uuid.UUID `path:"id" doc:"Company ID"`
}

type CompanyOutput struct {
	Body *domain.Company
}

type UpdateCompanyInput struct {
	Locale
	ID   uuid.UUID `path:"id" doc:"Company ID"`
	Body struct {
		Name           *string        `json:"name,omitempty" maxLength:"255"`
		Plan           *string        `json:"plan,omitempty" enum:"starter,professional,enterprise"`
		MonthlyRevenue *float64       `json:"monthly_revenue,omitempty" minimum:"0"`
		SistemaBaseID  *uuid.UUID     `json:"sistema_base_id,omitempty"`
		Settings       map[string]any `json:"settings,omitempty" doc:"Replaces the settings object"`
	}
}

type SetCompanyStatusInput struct {
	Locale
	ID   uuid.UUID `path:"id" doc:"Company ID"`
	Body struct {
		Status domain.CompanyStatus `json:"status" enum:"active,inactive,suspended"`
	}
}

type ModulesOutput struct {
	Body []*domain.Module
}

type SetCompanyModulesInput struct {
	Locale
	ID   uuid.UUID `path:"id" doc:"Company ID"`
	Body struct {
		ModuleIDs []uuid.UUID `json:"module_ids" doc:"The complete active set"`
	}
}

type SelectionOutput struct {
	Body struct {
		ModuleIDs []uuid.UUID `json:"module_ids"`
		Message   string      `json:"message,omitempty"`
	}
}

type ModuleSelectionInput struct {
	Locale
	CompanyID  string `query:"company_id" doc:"Edit mode: load this company's active modules"`
	TemplateID string `query:"template_id" doc:"Create mode: preselect this template's modules"`
}

// RegisterAdminRoutes registers the operator endpoints for companies.
func RegisterAdminRoutes(api huma.API, svc TenancyService) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-list-companies",
		Method:      http.MethodGet,
		Path:        "/admin/companies",
		Summary:     "List companies",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ListCompaniesInput) (*ListCompaniesOutput, error) {
		limit := max(input.PageSize, 1)
		list, total, err := svc.Companies(ctx, domain.CompanyFilter{
			Search: input.Search,
			Status: domain.CompanyStatus(input.Status),
			Limit:  limit,
			Offset: (max(input.Page, 1) - 1) * limit,
		})
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if list == nil {
			list = []*domain.Company{}
		}

		out := &ListCompaniesOutput{}
		out.Body.Data = list
		out.Body.TotalCount = total
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "admin-create-company",
		Method:        http.MethodPost,
		Path:          "/admin/companies",
		Summary:       "Provision a company",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateCompanyInput) (*CreateCompanyOutput, error) {
		res, err := svc.CreateCompany(ctx, actor(ctx), tenancy.CreateCompanyInput{
			Name:           input.Body.Name,
			Slug:           input.Body.Slug,
			Plan:           input.Body.Plan,
			MonthlyRevenue: input.Body.MonthlyRevenue,
			SistemaBaseID:  input.Body.SistemaBaseID,
			ModuleIDs:      input.Body.ModuleIDs,
			OwnerEmail:     input.Body.OwnerEmail,
		})
		if err != nil {
			return nil, problem(input.Locale, notice.RecordCreateFailed, err)
		}

		out := &CreateCompanyOutput{}
		out.Body.Company = res.Company
		out.Body.ModuleIDs = res.ModuleIDs
		if res.OwnerInvite != nil {
			out.Body.OwnerInvite = res.OwnerInvite
			out.Body.InviteToken = res.OwnerInvite.Token
		}
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.CompanyCreated, res.Company.Name)
		if res.OwnerInviteErr != nil {
			out.Body.Warning = notice.Localize(input.AcceptLanguage, notice.OwnerInviteFailed)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-get-company",
		Method:      http.MethodGet,
		Path:        "/admin/companies/{id}",
		Summary:     "Get a company",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *CompanyIDInput) (*CompanyOutput, error) {
		c, err := svc.Company(ctx, input.ID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		return &CompanyOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-update-company",
		Method:      http.MethodPut,
		Path:        "/admin/companies/{id}",
		Summary:     "Update a company",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *UpdateCompanyInput) (*CompanyOutput, error) {
		c, err := svc.UpdateCompany(ctx, actor(ctx), input.ID, tenancy.CompanyPatch{
			Name:           input.Body.Name,
			Plan:           input.Body.Plan,
			MonthlyRevenue: input.Body.MonthlyRevenue,
			SistemaBaseID:  input.Body.SistemaBaseID,
			Settings:       input.Body.Settings,
		})
		if err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}
		return &CompanyOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-set-company-status",
		Method:      http.MethodPut,
		Path:        "/admin/companies/{id}/status",
		Summary:     "Activate, deactivate or suspend a company",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *SetCompanyStatusInput) (*CompanyOutput, error) {
		if err := svc.SetStatus(ctx, actor(ctx), input.ID, input.Body.Status); err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}
		c, err := svc.Company(ctx, input.ID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		return &CompanyOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-company-modules",
		Method:      http.MethodGet,
		Path:        "/admin/companies/{id}/modules",
		Summary:     "The company's active modules",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *CompanyIDInput) (*ModulesOutput, error) {
		mods, err := svc.CompanyModules(ctx, input.ID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if mods == nil {
			mods = []*domain.Module{}
		}
		return &ModulesOutput{Body: mods}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-set-company-modules",
		Method:      http.MethodPut,
		Path:        "/admin/companies/{id}/modules",
		Summary:     "Replace the company's active modules",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *SetCompanyModulesInput) (*SelectionOutput, error) {
		sel, err := svc.UpdateCompanyModules(ctx, actor(ctx), input.ID, input.Body.ModuleIDs)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}

		out := &SelectionOutput{}
		out.Body.ModuleIDs = sel.IDs()
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.ModulesUpdated)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-module-selection",
		Method:      http.MethodGet,
		Path:        "/admin/module-selection",
		Summary:     "Initial module selection for the company form",
		Description: "With company_id the company's active modules are loaded and template_id is ignored. With only template_id every template module is preselected.",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ModuleSelectionInput) (*SelectionOutput, error) {
		companyID, err := optionalUUID("company_id", input.CompanyID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		templateID, err := optionalUUID("template_id", input.TemplateID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}

		sel, err := svc.InitialSelection(ctx, companyID, templateID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}

		out := &SelectionOutput{}
		out.Body.ModuleIDs = sel.IDs()
		return out, nil
	})
}

func optionalUUID(field, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent parameter
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, domain.Invalid(field, field+" must be a UUID")
	}
	return &id, nil
}
