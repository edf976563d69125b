package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/evolutech/platform/internal/api/v1"
	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/navigation"
)

func paths(entries []navigation.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

// ---------------------------------------------------------------------------
// GET /company/navigation
// ---------------------------------------------------------------------------

func TestNavigation(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	tenancySvc := &mockTenancy{
		companyModulesFunc: func(_ context.Context, id uuid.UUID) ([]*domain.Module, error) {
			assert.Equal(t, companyID, id)
			return []*domain.Module{{Code: "pedidos"}, {Code: "pdv_basico"}}, nil
		},
	}

	type navBody struct {
		Role    string             `json:"role"`
		Modules []string           `json:"modules"`
		Entries []navigation.Entry `json:"entries"`
	}

	t.Run("owner", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, tenancySvc, &mockAudit{})

		resp := api.GetCtx(ownerCtx(companyID), "/company/navigation")
		require.Equal(t, http.StatusOK, resp.Code)

		var body navBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.RoleOwner, body.Role)
		assert.Equal(t, []string{"pedidos", "pdv_basico"}, body.Modules)

		got := paths(body.Entries)
		assert.Contains(t, got, "/empresa/dashboard")
		assert.Contains(t, got, "/empresa/clientes")
		assert.Contains(t, got, "/empresa/pedidos")
		assert.Contains(t, got, "/empresa/pdv")
		assert.Contains(t, got, "/empresa/equipe")
		assert.NotContains(t, got, "/empresa/agendamentos")
	})

	t.Run("employee", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, tenancySvc, &mockAudit{})

		resp := api.GetCtx(employeeCtx(companyID), "/company/navigation")
		require.Equal(t, http.StatusOK, resp.Code)

		var body navBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		got := paths(body.Entries)
		assert.Equal(t, []string{navigation.AppPath, "/empresa/pedidos", "/empresa/pdv"}, got)
	})
}

// ---------------------------------------------------------------------------
// /company/invites
// ---------------------------------------------------------------------------

func TestInvites(t *testing.T) {
	t.Parallel()

	t.Run("owner_creates_invite", func(t *testing.T) {
		t.Parallel()

		companyID := uuid.New()
		userID := uuid.New()
		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{
			inviteFunc: func(_ context.Context, cid, actorID uuid.UUID, email, role string) (*domain.Invite, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, userID, actorID)
				assert.Equal(t, "caio@loja.com.br", email)
				assert.Equal(t, domain.RoleEmployee, role)
				return &domain.Invite{
					ID: uuid.New(), CompanyID: cid, Email: email, Role: role, Token: "secret-token",
					Status: domain.InviteStatusPending, ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
				}, nil
			},
		}, &mockAudit{})

		resp := api.PostCtx(companyCtx(companyID, userID, domain.RoleOwner), "/company/invites",
			map[string]any{"email": "caio@loja.com.br"})
		require.Equal(t, http.StatusCreated, resp.Code)

		var body struct {
			Token   string `json:"token"`
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "secret-token", body.Token)
		assert.Equal(t, "Convite enviado para caio@loja.com.br", body.Message)
	})

	t.Run("employee_cannot_invite", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{}, &mockAudit{})

		resp := api.PostCtx(employeeCtx(uuid.New()), "/company/invites", map[string]any{"email": "x@y.com"})
		assert.Equal(t, http.StatusForbidden, resp.Code)

		resp = api.GetCtx(employeeCtx(uuid.New()), "/company/invites")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("plan_limit", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{
			inviteFunc: func(_ context.Context, _, _ uuid.UUID, _, _ string) (*domain.Invite, error) {
				return nil, domain.ErrPlanLimit
			},
		}, &mockAudit{})

		resp := api.PostCtx(ownerCtx(uuid.New()), "/company/invites", map[string]any{"email": "x@y.com"})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("bad_role", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{}, &mockAudit{})

		resp := api.PostCtx(ownerCtx(uuid.New()), "/company/invites",
			map[string]any{"email": "x@y.com", "role": domain.RoleSuperAdmin})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("explicit_owner_role", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{
			inviteFunc: func(_ context.Context, cid, _ uuid.UUID, email, role string) (*domain.Invite, error) {
				assert.Equal(t, domain.RoleOwner, role)
				return &domain.Invite{ID: uuid.New(), CompanyID: cid, Email: email, Role: role, Token: "t"}, nil
			},
		}, &mockAudit{})

		resp := api.PostCtx(ownerCtx(uuid.New()), "/company/invites",
			map[string]any{"email": "socio@loja.com.br", "role": domain.RoleOwner})
		assert.Equal(t, http.StatusCreated, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /company/audit-logs
// ---------------------------------------------------------------------------

func TestAuditLogs(t *testing.T) {
	t.Parallel()

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		companyID := uuid.New()
		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{}, &mockAudit{
			listFunc: func(_ context.Context, cid uuid.UUID, limit, offset int) ([]*domain.AuditEntry, int64, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, 5, limit)
				assert.Equal(t, 10, offset)
				return []*domain.AuditEntry{{ID: uuid.New(), Action: "delete", EntityType: "products"}}, 11, nil
			},
		})

		resp := api.GetCtx(ownerCtx(companyID), "/company/audit-logs?page=3&pageSize=5")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Data       []*domain.AuditEntry `json:"data"`
			TotalCount int64                `json:"total_count"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.EqualValues(t, 11, body.TotalCount)
		require.Len(t, body.Data, 1)
		assert.Equal(t, "products", body.Data[0].EntityType)
	})

	t.Run("empty_is_array", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{}, &mockAudit{
			listFunc: func(_ context.Context, _ uuid.UUID, _, _ int) ([]*domain.AuditEntry, int64, error) {
				return nil, 0, nil
			},
		})

		resp := api.GetCtx(ownerCtx(uuid.New()), "/company/audit-logs")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"data":[]`)
	})

	t.Run("employee_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCompanyRoutes(api, &mockTenancy{}, &mockAudit{})

		resp := api.GetCtx(employeeCtx(uuid.New()), "/company/audit-logs")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
