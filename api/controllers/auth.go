package controllers

import (
	"net/http"
	"strings"

	"github.com/urbancart/urbancart-backend/api/middleware"
	"github.com/urbancart/urbancart-backend/api/responses"
	"github.com/urbancart/urbancart-backend/api/validators"
	"github.com/urbancart/urbancart-backend/internal/auth"
	pkgAuth "github.com/urbancart/urbancart-backend/pkg/auth"
	"github.com/urbancart/urbancart-backend/pkg/config"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

const (
	msgLoggedOut      = "Logout successful"
	msgAccountDeleted = "Account deleted successfully"
	msgTokenRefreshed = "Token refreshed"
)

// cookieOp sets or clears the auth cookies ahead of the body.
type cookieOp func(w http.ResponseWriter)

type authEndpoint func(r *http.Request) (any, cookieOp, error)

func serveAuth(logg *logger.Logger, status int, ready bool, fn authEndpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}
		data, cookies, err := fn(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if cookies != nil {
			cookies(w)
		}
		responses.WriteSuccessStatus(w, status, data)
	}
}

func issueCookies(cfg *config.Config, accessToken, refreshToken string) cookieOp {
	return func(w http.ResponseWriter) { setAuthCookies(w, cfg, accessToken, refreshToken) }
}

func dropCookies(cfg *config.Config) cookieOp {
	return func(w http.ResponseWriter) { clearAuthCookies(w, cfg) }
}

// AuthRegister creates an account and signs the new user in.
func AuthRegister(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return serveAuth(logg, http.StatusCreated, svc != nil, func(r *http.Request) (any, cookieOp, error) {
		body, err := decodeBody[auth.RegisterRequest](r)
		if err != nil {
			return nil, nil, err
		}
		res, err := svc.Register(r.Context(), body)
		if err != nil {
			return nil, nil, err
		}
		return res, issueCookies(cfg, res.AccessToken, res.RefreshToken), nil
	})
}

func AuthLogin(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return serveAuth(logg, http.StatusOK, svc != nil, func(r *http.Request) (any, cookieOp, error) {
		body, err := decodeBody[auth.LoginRequest](r)
		if err != nil {
			return nil, nil, err
		}
		res, err := svc.Login(r.Context(), body)
		if err != nil {
			return nil, nil, err
		}
		return res, issueCookies(cfg, res.AccessToken, res.RefreshToken), nil
	})
}

type refreshResponse struct {
	Message string `json:"message"`
	auth.TokenPair
}

// AuthRefresh rotates the session. The refresh cookie wins over the body;
// the access token may come from the body, the bearer header or its cookie.
func AuthRefresh(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return serveAuth(logg, http.StatusOK, svc != nil, func(r *http.Request) (any, cookieOp, error) {
		var body auth.RefreshRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			return nil, nil, err
		}
		if c := cookieValue(r, refreshTokenCookie); c != "" {
			body.RefreshToken = c
		}
		if strings.TrimSpace(body.AccessToken) == "" {
			body.AccessToken = middleware.AccessToken(r)
		}

		pair, err := svc.Refresh(r.Context(), body)
		if err != nil {
			return nil, nil, err
		}
		return refreshResponse{Message: msgTokenRefreshed, TokenPair: *pair}, issueCookies(cfg, pair.AccessToken, pair.RefreshToken), nil
	})
}

// AuthLogout revokes the session named by the presented access token,
// expired or not.
func AuthLogout(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return serveAuth(logg, http.StatusOK, svc != nil, func(r *http.Request) (any, cookieOp, error) {
		token := middleware.AccessToken(r)
		if token == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
		}
		claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg.JWT, token)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
		}
		if claims.ID == "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
		}

		if err := svc.Logout(r.Context(), claims.UserID, claims.ID); err != nil {
			return nil, nil, err
		}
		return message(msgLoggedOut), dropCookies(cfg), nil
	})
}

func AuthDeleteAccount(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return serveAuth(logg, http.StatusOK, svc != nil, func(r *http.Request) (any, cookieOp, error) {
		userID, err := requireUser(r)
		if err != nil {
			return nil, nil, err
		}
		if err := svc.DeleteAccount(r.Context(), userID); err != nil {
			return nil, nil, err
		}
		return message(msgAccountDeleted), dropCookies(cfg), nil
	})
}

// AuthPasswordReset answers identically whether or not the email is
// registered.
func AuthPasswordReset(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "auth", svc != nil, func(r *http.Request) (any, error) {
		body, err := decodeBody[auth.PasswordResetRequest](r)
		if err != nil {
			return nil, err
		}
		if err := svc.RequestPasswordReset(r.Context(), body); err != nil {
			return nil, err
		}
		return message(auth.ResetRequestedMessage), nil
	})
}

func AuthPasswordResetConfirm(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "auth", svc != nil, func(r *http.Request) (any, error) {
		body, err := decodeBody[auth.PasswordResetConfirm](r)
		if err != nil {
			return nil, err
		}
		if err := svc.ConfirmPasswordReset(r.Context(), body); err != nil {
			return nil, err
		}
		return message(auth.ResetCompletedMessage), nil
	})
}
