package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/api/responses"
	pkgAuth "github.com/urbancart/urbancart-backend/pkg/auth"
	"github.com/urbancart/urbancart-backend/pkg/auth/session"
	"github.com/urbancart/urbancart-backend/pkg/config"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "access_token"

// Auth validates the access token and seeds the request context with the
// claims. The Authorization header wins over the cookie.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication credentials were not provided."))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithSuperuser(ctx, claims.IsSuperuser)
			ctx = WithAccessID(ctx, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessToken extracts the raw access token from the bearer header or, failing
// that, the access_token cookie.
func AccessToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			raw = strings.TrimSpace(raw[7:])
		}
		if raw != "" {
			return raw
		}
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// SuperuserChecker reports the stored superuser flag for an account.
type SuperuserChecker interface {
	IsSuperuser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireSuperuser rejects callers whose token lacks the superuser claim, then
// confirms the flag against accounts so a demoted admin is locked out at once.
// A nil accounts trusts the claim alone.
func RequireSuperuser(accounts SuperuserChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !IsSuperuserFromContext(ctx) {
				responses.WriteError(ctx, logg, w, errNotSuperuser())
				return
			}
			if accounts != nil {
				userID, err := uuid.Parse(UserIDFromContext(ctx))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
					return
				}
				ok, err := accounts.IsSuperuser(ctx, userID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check superuser"))
					return
				}
				if !ok {
					responses.WriteError(ctx, logg, w, errNotSuperuser())
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func errNotSuperuser() error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "You do not have permission to perform this action.")
}
