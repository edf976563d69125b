package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/evolutech/platform/internal/auth"
)

// Auth accepts an access token from the Authorization header only.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, extractBearer)
}

// AuthWS is Auth for WebSocket upgrades. Browsers cannot set headers on the
// upgrade request, so the access_token query parameter is accepted as well.
func AuthWS(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, func(r *http.Request) string {
		if tok := extractBearer(r); tok != "" {
			return tok
		}
		return r.URL.Query().Get("access_token")
	})
}

func authenticate(jwtSecret string, extract func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := extract(r); tok != "" {
				ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret)
				if ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string) (context.Context, bool) {
	claims, err := auth.ValidateToken(secret, tokenStr)
	if err != nil {
		return ctx, false
	}
	// Refresh tokens only buy new access tokens.
	if claims.TokenType != "access" {
		return ctx, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ctx, false
	}

	companyID, err := claims.CompanyID()
	if err != nil {
		log.Debug().Err(err).Str("user_id", claims.UserID).Msg("auth: bad tenant claim")
		return ctx, false
	}

	return WithIdentity(ctx, companyID, userID, claims.Role), true
}
