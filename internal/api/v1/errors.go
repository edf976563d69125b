package v1

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/evolutech/platform/internal/auth"
	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/notice"
	"github.com/evolutech/platform/internal/records"
	"github.com/evolutech/platform/internal/server/middleware"
)

// Locale is embedded in inputs whose errors are shown to end users.
type Locale struct {
	AcceptLanguage string `header:"Accept-Language" doc:"Preferred language for messages (pt-BR default, en)"`
}

// problem maps a service error to an RFC 7807 response. Constraint errors keep
// the database's own message behind the localized prefix named by op.
func problem(loc Locale, op notice.Key, err error) error {
	tag := notice.Match(loc.AcceptLanguage)

	var ce *domain.ConstraintError
	if errors.As(err, &ce) {
		return huma.Error409Conflict(notice.Text(tag, op, ce.Message))
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return huma.Error422UnprocessableEntity(ve.Message, &huma.ErrorDetail{
			Message:  ve.Message,
			Location: "body." + ve.Field,
		})
	}

	switch {
	case errors.Is(err, domain.ErrUnknownTable):
		return huma.Error404NotFound(notice.Text(tag, notice.UnknownTable, after(err, domain.ErrUnknownTable)))
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(notice.Text(tag, notice.NotFound))
	case errors.Is(err, domain.ErrPlanLimit):
		return huma.Error403Forbidden(notice.Text(tag, notice.PlanLimit, after(err, domain.ErrPlanLimit)))
	case errors.Is(err, domain.ErrInsufficientStock):
		return huma.Error409Conflict(notice.Text(tag, notice.InsufficientStock, after(err, domain.ErrInsufficientStock)))
	case errors.Is(err, auth.ErrInvalidCredentials):
		return huma.Error401Unauthorized(notice.Text(tag, notice.InvalidCredentials))
	case errors.Is(err, auth.ErrInviteUnusable):
		return huma.Error410Gone(notice.Text(tag, notice.InviteInvalid))
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUserNotFound), errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized(notice.Text(tag, notice.Unauthorized))
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden(notice.Text(tag, notice.Forbidden))
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(notice.Text(tag, op, err.Error()))
	}

	log.Error().Err(err).Str("op", string(op)).Msg("api: unexpected error")
	return huma.Error500InternalServerError(notice.Text(tag, notice.InternalError))
}

// after returns the text following sentinel's message in err, which is where
// the services put the specifics ("... insufficient stock: Coffee has 2").
func after(err, sentinel error) string {
	_, rest, ok := strings.Cut(err.Error(), sentinel.Error()+": ")
	if !ok {
		return ""
	}
	return rest
}

// companyScope reads the caller's company and user from context. The company
// routes sit behind RequireTenant, so a miss here means a wiring bug.
func companyScope(ctx context.Context) (records.Scope, error) {
	companyID, ok := middleware.CompanyIDFromContext(ctx)
	if !ok || companyID == uuid.Nil {
		return records.Scope{}, huma.Error403Forbidden("missing company context")
	}
	userID, _ := middleware.UserIDFromContext(ctx)
	return records.Scope{CompanyID: companyID, ActorID: userID}, nil
}

// actor is the authenticated user id, uuid.Nil when absent.
func actor(ctx context.Context) uuid.UUID {
	id, _ := middleware.UserIDFromContext(ctx)
	return id
}

func requireOwner(ctx context.Context, loc Locale) error {
	if role, _ := middleware.RoleFromContext(ctx); role != domain.RoleOwner {
		return huma.Error403Forbidden(notice.Localize(loc.AcceptLanguage, notice.Forbidden))
	}
	return nil
}
