// Package navigation decides which sidebar entries a user may see from their
// role and the company's active module codes.
package navigation

import (
	"slices"
	"strings"

	"github.com/evolutech/platform/internal/domain"
)

// AppPath is the company app landing page, shown to every company role.
const AppPath = "/empresa/app"

// Entry is one sidebar link.
type Entry struct {
	Icon       string `json:"icon"`
	Label      string `json:"label"`
	Path       string `json:"path"`
	ModuleCode string `json:"module_code,omitempty"`
	OwnerOnly  bool   `json:"owner_only,omitempty"`
	AlwaysShow bool   `json:"always_show,omitempty"`
}

// CompanyEntries is the company sidebar in display order.
//
//nolint:gochecknoglobals // static menu
var CompanyEntries = []Entry{
	{Icon: "layout-dashboard", Label: "Dashboard", Path: "/empresa/dashboard", AlwaysShow: true},
	{Icon: "app-window", Label: "Meu App", Path: AppPath, AlwaysShow: true},
	{Icon: "users", Label: "Clientes", Path: "/empresa/clientes", ModuleCode: "customers"},
	{Icon: "package", Label: "Produtos", Path: "/empresa/produtos", ModuleCode: "products"},
	{Icon: "shopping-cart", Label: "Pedidos", Path: "/empresa/pedidos", ModuleCode: "orders"},
	{Icon: "calendar", Label: "Agendamentos", Path: "/empresa/agendamentos", ModuleCode: "appointments"},
	{Icon: "monitor", Label: "PDV", Path: "/empresa/pdv", ModuleCode: "pdv"},
	{Icon: "wallet", Label: "Financeiro", Path: "/empresa/financeiro", ModuleCode: "finance"},
	{Icon: "receipt", Label: "Cobranças", Path: "/empresa/cobrancas", ModuleCode: "billing"},
	{Icon: "percent", Label: "Comissões", Path: "/empresa/comissoes", ModuleCode: "commissions"},
	{Icon: "gift", Label: "Fidelidade", Path: "/empresa/fidelidade", ModuleCode: "loyalty"},
	{Icon: "life-buoy", Label: "Suporte", Path: "/empresa/suporte", ModuleCode: "support"},
	{Icon: "graduation-cap", Label: "Treinamentos", Path: "/empresa/treinamentos", ModuleCode: "trainings"},
	{Icon: "bar-chart", Label: "Relatórios", Path: "/empresa/relatorios", ModuleCode: "reports"},
	{Icon: "user-plus", Label: "Equipe", Path: "/empresa/equipe", OwnerOnly: true},
	{Icon: "credit-card", Label: "Gateways", Path: "/empresa/gateways", OwnerOnly: true},
	{Icon: "scroll", Label: "Auditoria", Path: "/empresa/auditoria", OwnerOnly: true},
	{Icon: "settings", Label: "Configurações", Path: "/empresa/configuracoes", OwnerOnly: true},
}

// AdminEntries is the operator sidebar.
//
//nolint:gochecknoglobals // static menu
var AdminEntries = []Entry{
	{Icon: "layout-dashboard", Label: "Dashboard", Path: "/admin-evolutech"},
	{Icon: "building", Label: "Empresas", Path: "/admin-evolutech/empresas"},
	{Icon: "boxes", Label: "Módulos", Path: "/admin-evolutech/modulos"},
	{Icon: "layers", Label: "Sistemas Base", Path: "/admin-evolutech/sistemas-base"},
	{Icon: "scroll", Label: "Logs", Path: "/admin-evolutech/logs"},
}

// Module codes drifted between English and Portuguese, singular and plural.
// Each canonical code lists every spelling that satisfies it.
//
//nolint:gochecknoglobals // static table
var aliases = map[string][]string{
	"customers":    {"customers", "customer", "clientes", "cliente", "crm"},
	"products":     {"products", "product", "produtos", "produto", "estoque", "inventory"},
	"orders":       {"orders", "order", "pedidos", "pedido"},
	"appointments": {"appointments", "appointment", "agendamentos", "agendamento", "agenda"},
	"pdv":          {"pdv", "caixa", "pos"},
	"finance":      {"finance", "financial", "financeiro"},
	"billing":      {"billing", "cobrancas", "cobranca", "charges"},
	"commissions":  {"commissions", "commission", "comissoes", "comissao"},
	"loyalty":      {"loyalty", "fidelidade"},
	"support":      {"support", "suporte", "tickets"},
	"trainings":    {"trainings", "training", "treinamentos", "treinamento"},
	"reports":      {"reports", "report", "relatorios", "relatorio"},
}

// Owners always see these modules, active or not.
//
//nolint:gochecknoglobals // static set
var defaultOwnerModules = []string{"customers", "reports"}

// Aliases returns every spelling accepted for code, including code itself.
func Aliases(code string) []string {
	if a, ok := aliases[code]; ok {
		return a
	}
	return []string{code}
}

// Matches reports whether active module code satisfies alias: equal, or
// prefixed by alias followed by "_" or "-". Case is ignored.
func Matches(code, alias string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	alias = strings.ToLower(alias)
	return code == alias || strings.HasPrefix(code, alias+"_") || strings.HasPrefix(code, alias+"-")
}

// Satisfies reports whether any of activeCodes satisfies moduleCode through
// its aliases.
func Satisfies(moduleCode string, activeCodes []string) bool {
	for _, alias := range Aliases(moduleCode) {
		for _, code := range activeCodes {
			if Matches(code, alias) {
				return true
			}
		}
	}
	return false
}

// Filter returns the entries role may see given the company's active module
// codes, in declaration order. It has no side effects.
func Filter(role string, activeCodes []string) []Entry {
	if domain.IsOperatorRole(role) {
		return slices.Clone(AdminEntries)
	}

	owner := role == domain.RoleOwner
	out := make([]Entry, 0, len(CompanyEntries))
	for _, e := range CompanyEntries {
		if visible(e, owner, activeCodes) {
			out = append(out, e)
		}
	}
	return out
}

func visible(e Entry, owner bool, activeCodes []string) bool {
	if e.OwnerOnly && !owner {
		return false
	}
	if e.AlwaysShow {
		return owner || e.Path == AppPath
	}
	if e.ModuleCode == "" {
		return true
	}
	if owner && slices.Contains(defaultOwnerModules, e.ModuleCode) {
		return true
	}
	return Satisfies(e.ModuleCode, activeCodes)
}
