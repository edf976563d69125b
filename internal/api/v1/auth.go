package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/evolutech/platform/internal/auth"
	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/notice"
	"github.com/evolutech/platform/internal/server/middleware"
)

type LoginInput struct {
	Locale
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type SessionOutput struct {
	Body *auth.Session
}

type RefreshInput struct {
	Locale
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"token"` //nolint:gosec // G117: auth response DTO
	}
}

type MeInput struct {
	Locale
}

type MeOutput struct {
	Body *domain.User
}

type AcceptInviteInput struct {
	Locale
	Token string `path:"token" minLength:"1" doc:"Invite token"`
	Body  struct {
		Name                 string `json:"name,omitempty" maxLength:"255" doc:"Display name"`
		Password             string `json:"password,omitempty" maxLength:"128" doc:"Password"`
		PasswordConfirmation string `json:"password_confirmation,omitempty" maxLength:"128" doc:"Password repeated"`
	}
}

// RegisterAuthRoutes registers the public authentication endpoints.
func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
		session, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, problem(input.Locale, notice.InvalidCredentials, err)
		}
		return &SessionOutput{Body: session}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		accessToken, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized(notice.Localize(input.AcceptLanguage, notice.Unauthorized))
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = accessToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-invite",
		Method:      http.MethodPost,
		Path:        "/invites/{token}/accept",
		Summary:     "Accept an invite and create the account",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *AcceptInviteInput) (*SessionOutput, error) {
		session, err := authSvc.AcceptInvite(ctx, input.Token, auth.AcceptInviteInput{
			Name:                 input.Body.Name,
			Password:             input.Body.Password,
			PasswordConfirmation: input.Body.PasswordConfirmation,
		})
		if err != nil {
			return nil, problem(input.Locale, notice.InviteInvalid, err)
		}
		return &SessionOutput{Body: session}, nil
	})
}

// RegisterSessionRoutes registers endpoints for any authenticated user.
func RegisterSessionRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Current user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *MeInput) (*MeOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized(notice.Localize(input.AcceptLanguage, notice.Unauthorized))
		}

		user, err := authSvc.GetUser(ctx, userID)
		if err != nil {
			return nil, problem(input.Locale, notice.Unauthorized, err)
		}
		return &MeOutput{Body: user}, nil
	})
}
