package controllers

import (
	"net/http"
	"time"

	"github.com/urbancart/urbancart-backend/api/middleware"
	"github.com/urbancart/urbancart-backend/pkg/config"
)

const refreshTokenCookie = "refresh_token"

// cookieAttrs relaxes Secure and SameSite in debug so a plain-http frontend
// on another port still receives the cookies.
func cookieAttrs(cfg *config.Config) (bool, http.SameSite) {
	if cfg.App.Debug {
		return false, http.SameSiteLaxMode
	}
	return true, http.SameSiteNoneMode
}

func setAuthCookies(w http.ResponseWriter, cfg *config.Config, accessToken, refreshToken string) {
	secure, sameSite := cookieAttrs(cfg)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(cfg.JWT.AccessTTL() / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(cfg.JWT.RefreshTokenTTL() / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func clearAuthCookies(w http.ResponseWriter, cfg *config.Config) {
	secure, sameSite := cookieAttrs(cfg)
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: sameSite,
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
