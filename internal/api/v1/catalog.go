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

type ModuleBody struct {
	Code         string              `json:"code" minLength:"1" maxLength:"63"`
	Name         string              `json:"name" minLength:"1" maxLength:"255"`
	Description  string              `json:"description,omitempty" maxLength:"2000"`
	IsCore       bool                `json:"is_core,omitempty"`
	PriceMonthly float64             `json:"price_monthly,omitempty" minimum:"0"`
	Status       domain.ModuleStatus `json:"status,omitempty" enum:"active,inactive"`
}

func (b ModuleBody) input() tenancy.ModuleInput {
	return tenancy.ModuleInput{
		Code:         b.Code,
		Name:         b.Name,
		Description:  b.Description,
		IsCore:       b.IsCore,
		PriceMonthly: b.PriceMonthly,
		Status:       b.Status,
	}
}

type ListModulesInput struct {
	Locale
}

type CreateModuleInput struct {
	Locale
	Body ModuleBody
}

type UpdateModuleInput struct {
	Locale
	ID   uuid.UUID `path:"id" doc:"Module ID"`
	Body ModuleBody
}

type ModuleOutput struct {
	Body *domain.Module
}

type TemplateBody struct {
	Name        string `json:"name" minLength:"1" maxLength:"255"`
	Niche       string `json:"niche,omitempty" maxLength:"255"`
	Description string `json:"description,omitempty" maxLength:"2000"`
	Status      string `json:"status,omitempty" enum:"active,inactive"`
}

func (b TemplateBody) input() tenancy.TemplateInput {
	return tenancy.TemplateInput{Name: b.Name, Niche: b.Niche, Description: b.Description, Status: b.Status}
}

type ListTemplatesInput struct {
	Locale
}

type ListTemplatesOutput struct {
	Body []*domain.SystemTemplate
}

type TemplateIDInput struct {
	Locale
	ID uuid.UUID `path:"id" doc:"System template ID"`
}

type CreateTemplateInput struct {
	Locale
	Body TemplateBody
}

type UpdateTemplateInput struct {
	Locale
	ID   uuid.UUID `path:"id" doc:"System template ID"`
	Body TemplateBody
}

type TemplateOutput struct {
	Body *domain.SystemTemplate
}

type TemplateModulesOutput struct {
	Body []*domain.TemplateModule
}

type SetTemplateModulesInput struct {
	Locale
	ID   uuid.UUID `path:"id" doc:"System template ID"`
	Body struct {
		Modules []domain.TemplateModuleLink `json:"modules" doc:"The complete module list"`
	}
}

// RegisterCatalogRoutes registers the operator endpoints for the module
// catalogue and system templates (sistemas base).
func RegisterCatalogRoutes(api huma.API, svc CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-list-modules",
		Method:      http.MethodGet,
		Path:        "/admin/modules",
		Summary:     "List modules",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *ListModulesInput) (*ModulesOutput, error) {
		list, err := svc.Modules(ctx)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if list == nil {
			list = []*domain.Module{}
		}
		return &ModulesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "admin-create-module",
		Method:        http.MethodPost,
		Path:          "/admin/modules",
		Summary:       "Create a module",
		Tags:          []string{"Catalog"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateModuleInput) (*ModuleOutput, error) {
		m, err := svc.CreateModule(ctx, actor(ctx), input.Body.input())
		if err != nil {
			return nil, problem(input.Locale, notice.RecordCreateFailed, err)
		}
		return &ModuleOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-update-module",
		Method:      http.MethodPut,
		Path:        "/admin/modules/{id}",
		Summary:     "Update a module",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *UpdateModuleInput) (*ModuleOutput, error) {
		m, err := svc.UpdateModule(ctx, actor(ctx), input.ID, input.Body.input())
		if err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}
		return &ModuleOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-templates",
		Method:      http.MethodGet,
		Path:        "/sistemas-base",
		Summary:     "List system templates",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *ListTemplatesInput) (*ListTemplatesOutput, error) {
		list, err := svc.Templates(ctx)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if list == nil {
			list = []*domain.SystemTemplate{}
		}
		return &ListTemplatesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-template",
		Method:        http.MethodPost,
		Path:          "/sistemas-base",
		Summary:       "Create a system template",
		Tags:          []string{"Catalog"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTemplateInput) (*TemplateOutput, error) {
		tpl, err := svc.CreateTemplate(ctx, actor(ctx), input.Body.input())
		if err != nil {
			return nil, problem(input.Locale, notice.RecordCreateFailed, err)
		}
		return &TemplateOutput{Body: tpl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template",
		Method:      http.MethodGet,
		Path:        "/sistemas-base/{id}",
		Summary:     "Get a system template",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *TemplateIDInput) (*TemplateOutput, error) {
		tpl, err := svc.Template(ctx, input.ID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		return &TemplateOutput{Body: tpl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-template",
		Method:      http.MethodPut,
		Path:        "/sistemas-base/{id}",
		Summary:     "Update a system template",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *UpdateTemplateInput) (*TemplateOutput, error) {
		tpl, err := svc.UpdateTemplate(ctx, actor(ctx), input.ID, input.Body.input())
		if err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}
		return &TemplateOutput{Body: tpl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-template-modules",
		Method:      http.MethodGet,
		Path:        "/sistemas-base/{id}/modulos",
		Summary:     "Modules of a system template",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *TemplateIDInput) (*TemplateModulesOutput, error) {
		list, err := svc.TemplateModules(ctx, input.ID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if list == nil {
			list = []*domain.TemplateModule{}
		}
		return &TemplateModulesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-template-modules",
		Method:      http.MethodPut,
		Path:        "/sistemas-base/{id}/modulos",
		Summary:     "Replace the modules of a system template",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *SetTemplateModulesInput) (*TemplateModulesOutput, error) {
		if err := svc.SetTemplateModules(ctx, actor(ctx), input.ID, input.Body.Modules); err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}

		list, err := svc.TemplateModules(ctx, input.ID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if list == nil {
			list = []*domain.TemplateModule{}
		}
		return &TemplateModulesOutput{Body: list}, nil
	})
}
