package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/urbancart/urbancart-backend/api/responses"
	"github.com/urbancart/urbancart-backend/pkg/config"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

const maxPeekBody = 64 << 10

type counterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// RateLimitPolicy throttles one account endpoint. Attempts are counted per
// client IP and per email found in the JSON body; a zero limit disables that
// counter.
type RateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

// AuthPolicies returns the login, register and password-reset policies.
func AuthPolicies(cfg config.AuthRateLimitConfig) (login, register, reset RateLimitPolicy) {
	login = RateLimitPolicy{Name: "login", Window: cfg.LoginWindow, IPLimit: cfg.LoginIPLimit, EmailLimit: cfg.LoginEmailLimit}
	register = RateLimitPolicy{Name: "register", Window: cfg.RegisterWindow, IPLimit: cfg.RegisterIPLimit, EmailLimit: cfg.RegisterEmailLimit}
	reset = RateLimitPolicy{Name: "reset", Window: cfg.ResetWindow, IPLimit: cfg.ResetIPLimit, EmailLimit: cfg.ResetEmailLimit}
	return login, register, reset
}

func (p RateLimitPolicy) active() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

type counter struct {
	scope string
	value string
	limit int
}

// RateLimit rejects requests over any of the policy's counters with 429 and
// a Retry-After of the full window. A nil store turns it off.
func RateLimit(policy RateLimitPolicy, store counterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			counters, err := countersFor(policy, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			for _, c := range counters {
				n, err := store.IncrWithTTL(ctx, store.RateLimitKey(policy.Name, c.scope, c.value), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if n > int64(c.limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   policy.Name,
							"scope":    c.scope,
							"attempts": n,
							"limit":    c.limit,
						}), "auth.rate_limited")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts. Please try again later."))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// countersFor lists the counters that apply to r. The body is restored so
// the handler can decode it again.
func countersFor(policy RateLimitPolicy, r *http.Request) ([]counter, error) {
	var out []counter
	if policy.IPLimit > 0 {
		if ip := clientIP(r); ip != "" {
			out = append(out, counter{scope: "ip", value: ip, limit: policy.IPLimit})
		}
	}
	if policy.EmailLimit <= 0 || r.Body == nil {
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body")
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}

	var peek struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &peek) == nil {
		if email := strings.ToLower(strings.TrimSpace(peek.Email)); email != "" {
			// emails are hashed so they never land in redis keys or logs
			sum := sha256.Sum256([]byte(email))
			out = append(out, counter{scope: "email", value: hex.EncodeToString(sum[:]), limit: policy.EmailLimit})
		}
	}
	return out, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
