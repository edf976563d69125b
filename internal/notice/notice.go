// Package notice holds the user-facing success and error messages shown by
// the company dashboard, in Brazilian Portuguese (default) and English.
package notice

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Key identifies a catalog message.
type Key string

const (
	RecordCreated      Key = "record.created"
	RecordUpdated      Key = "record.updated"
	RecordDeleted      Key = "record.deleted"
	RecordLoadFailed   Key = "record.load_failed"
	RecordCreateFailed Key = "record.create_failed"
	RecordUpdateFailed Key = "record.update_failed"
	RecordDeleteFailed Key = "record.delete_failed"
	UnknownTable       Key = "record.unknown_table"
	NotFound           Key = "common.not_found"
	Forbidden          Key = "common.forbidden"
	Unauthorized       Key = "common.unauthorized"
	InvalidCredentials Key = "auth.invalid_credentials"
	PlanLimit          Key = "plan.limit"
	InsufficientStock  Key = "pdv.insufficient_stock"
	CheckoutDone       Key = "pdv.checkout_done"
	InviteSent         Key = "invite.sent"
	InviteInvalid      Key = "invite.invalid"
	GatewayConnected   Key = "gateway.connected"
	CompanyCreated     Key = "company.created"
	OwnerInviteFailed  Key = "company.owner_invite_failed"
	ModulesUpdated     Key = "company.modules_updated"
	InternalError      Key = "common.internal"
)

//nolint:gochecknoglobals // message catalog
var catalog = map[Key][2]string{
	RecordCreated:      {"Registro criado com sucesso!", "Record created successfully!"},
	RecordUpdated:      {"Registro atualizado com sucesso!", "Record updated successfully!"},
	RecordDeleted:      {"Registro excluído com sucesso!", "Record deleted successfully!"},
	RecordLoadFailed:   {"Erro ao carregar dados: %s", "Failed to load data: %s"},
	RecordCreateFailed: {"Erro ao criar registro: %s", "Failed to create record: %s"},
	RecordUpdateFailed: {"Erro ao atualizar registro: %s", "Failed to update record: %s"},
	RecordDeleteFailed: {"Erro ao excluir registro: %s", "Failed to delete record: %s"},
	UnknownTable:       {"Tabela desconhecida: %s", "Unknown table: %s"},
	NotFound:           {"Registro não encontrado", "Record not found"},
	Forbidden:          {"Acesso negado", "Access denied"},
	Unauthorized:       {"Sessão inválida ou expirada", "Invalid or expired session"},
	InvalidCredentials: {"E-mail ou senha inválidos", "Invalid email or password"},
	PlanLimit:          {"Limite do plano atingido: %s", "Plan limit reached: %s"},
	InsufficientStock:  {"Estoque insuficiente: %s", "Insufficient stock: %s"},
	CheckoutDone:       {"Venda finalizada com sucesso!", "Sale completed successfully!"},
	InviteSent:         {"Convite enviado para %s", "Invite sent to %s"},
	InviteInvalid:      {"Convite inválido ou expirado", "Invalid or expired invite"},
	GatewayConnected:   {"Gateway %s conectado", "Gateway %s connected"},
	CompanyCreated:     {"Empresa %s criada com sucesso!", "Company %s created successfully!"},
	OwnerInviteFailed:  {"O convite do proprietário não pôde ser enviado. Envie um novo convite.", "The owner invite could not be sent. Send a new invite."},
	ModulesUpdated:     {"Módulos atualizados", "Modules updated"},
	InternalError:      {"Erro interno. Tente novamente.", "Internal error. Please try again."},
}

//nolint:gochecknoglobals // supported tags, default first
var (
	supported = []language.Tag{language.BrazilianPortuguese, language.English}
	matcher   = language.NewMatcher(supported)
)

func init() {
	for key, texts := range catalog {
		for i, tag := range supported {
			if err := message.SetString(tag, string(key), texts[i]); err != nil {
				panic(err)
			}
		}
	}
}

// Default is the language used when nothing better matches.
func Default() language.Tag { return supported[0] }

// Match picks the supported language for an Accept-Language header value.
func Match(acceptLanguage string) language.Tag {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

// Text renders key in tag with args.
func Text(tag language.Tag, key Key, args ...any) string {
	return message.NewPrinter(tag).Sprintf(string(key), args...)
}

// Localize is Text with the language taken from an Accept-Language value.
func Localize(acceptLanguage string, key Key, args ...any) string {
	return Text(Match(acceptLanguage), key, args...)
}
