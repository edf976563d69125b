package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	v1 "github.com/evolutech/platform/internal/api/v1"
	"github.com/evolutech/platform/internal/api/ws"
)

// newAPI mounts a huma API on one chi group. Each group publishes its own
// OpenAPI document under /api/openapi/<name>.
func newAPI(r chi.Router, name, title string) huma.API {
	cfg := huma.DefaultConfig(title, "1.0.0")
	cfg.Servers = []*huma.Server{{URL: "/api"}}
	cfg.OpenAPIPath = "/openapi/" + name
	cfg.DocsPath = "/docs/" + name
	cfg.SchemasPath = "/schemas/" + name
	return humachi.New(r, cfg)
}

func registerPublicRoutes(api huma.API, deps Deps) {
	v1.RegisterAuthRoutes(api, deps.Auth)
}

func registerSessionRoutes(api huma.API, deps Deps) {
	v1.RegisterSessionRoutes(api, deps.Auth)
}

func registerOperatorRoutes(api huma.API, deps Deps) {
	v1.RegisterAdminRoutes(api, deps.Tenancy)
	v1.RegisterCatalogRoutes(api, deps.Catalog)
}

func registerCompanyRoutes(api huma.API, deps Deps) {
	// Fixed paths before the generic /company/{table} routes.
	v1.RegisterCompanyRoutes(api, deps.Tenancy, deps.Audit)
	v1.RegisterCommerceRoutes(api, deps.Commerce)
	v1.RegisterRecordRoutes(api, deps.Records)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/company", hub.ServeCompany)
}
