package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/evolutech/platform/internal/api/v1"
	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/tenancy"
)

func TestCreateModule(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCatalogRoutes(api, &mockCatalog{
			createModuleFunc: func(_ context.Context, _ uuid.UUID, in tenancy.ModuleInput) (*domain.Module, error) {
				assert.Equal(t, "pdv", in.Code)
				assert.True(t, in.IsCore)
				return &domain.Module{ID: uuid.New(), Code: in.Code, Name: in.Name, IsCore: true, Status: domain.ModuleStatus("active")}, nil
			},
		})

		resp := api.PostCtx(operatorCtx(uuid.New()), "/admin/modules",
			map[string]any{"code": "pdv", "name": "Ponto de Venda", "is_core": true, "price_monthly": 49.9})
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Contains(t, resp.Body.String(), `"code":"pdv"`)
	})

	t.Run("duplicate_code", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCatalogRoutes(api, &mockCatalog{
			createModuleFunc: func(_ context.Context, _ uuid.UUID, _ tenancy.ModuleInput) (*domain.Module, error) {
				return nil, &domain.ConstraintError{Code: "23505", Constraint: "modules_code_key", Message: "duplicate key"}
			},
		})

		resp := api.PostCtx(operatorCtx(uuid.New()), "/admin/modules", map[string]any{"code": "pdv", "name": "PDV"})
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("negative_price", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCatalogRoutes(api, &mockCatalog{})

		resp := api.PostCtx(operatorCtx(uuid.New()), "/admin/modules", map[string]any{"code": "pdv", "name": "PDV", "price_monthly": -1})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestListModules(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	v1.RegisterCatalogRoutes(api, &mockCatalog{
		modulesFunc: func(_ context.Context) ([]*domain.Module, error) { return nil, nil },
	})

	resp := api.GetCtx(operatorCtx(uuid.New()), "/admin/modules")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestTemplateModules(t *testing.T) {
	t.Parallel()

	t.Run("replace_then_reload", func(t *testing.T) {
		t.Parallel()

		templateID := uuid.New()
		a, b := uuid.New(), uuid.New()
		var stored []domain.TemplateModuleLink

		_, api := humatest.New(t)
		v1.RegisterCatalogRoutes(api, &mockCatalog{
			setTemplateModulesFunc: func(_ context.Context, _, tid uuid.UUID, links []domain.TemplateModuleLink) error {
				assert.Equal(t, templateID, tid)
				stored = links
				return nil
			},
			templateModulesFunc: func(_ context.Context, _ uuid.UUID) ([]*domain.TemplateModule, error) {
				out := make([]*domain.TemplateModule, 0, len(stored))
				for _, l := range stored {
					out = append(out, &domain.TemplateModule{Module: &domain.Module{ID: l.ModuleID}, IsDefault: l.IsDefault})
				}
				return out, nil
			},
		})

		resp := api.PutCtx(operatorCtx(uuid.New()), "/sistemas-base/"+templateID.String()+"/modulos", map[string]any{
			"modules": []map[string]any{
				{"module_id": a, "is_default": true},
				{"module_id": b, "is_default": false},
			},
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var body []domain.TemplateModule
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, a, body[0].Module.ID)
		assert.True(t, body[0].IsDefault)
		assert.False(t, body[1].IsDefault)
	})

	t.Run("unknown_template", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCatalogRoutes(api, &mockCatalog{
			templateFunc: func(_ context.Context, _ uuid.UUID) (*domain.SystemTemplate, error) {
				return nil, domain.ErrNotFound
			},
		})

		resp := api.GetCtx(operatorCtx(uuid.New()), "/sistemas-base/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
