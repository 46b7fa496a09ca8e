package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbancart/urbancart-backend/internal/admin"
	"github.com/urbancart/urbancart-backend/internal/cart"
	"github.com/urbancart/urbancart-backend/internal/products"
	"github.com/urbancart/urbancart-backend/internal/users"
	pkgAuth "github.com/urbancart/urbancart-backend/pkg/auth"
	"github.com/urbancart/urbancart-backend/pkg/auth/session"
	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubProducts struct {
	products.Service
	filters products.ListFilters
}

func (s *stubProducts) List(_ context.Context, f products.ListFilters) ([]products.ProductSummary, error) {
	s.filters = f
	return []products.ProductSummary{{Name: "Linen Shirt", Slug: "linen-shirt"}}, nil
}

func (s *stubProducts) GetBySlug(_ context.Context, slug string) (*products.ProductDetail, error) {
	return &products.ProductDetail{ProductSummary: products.ProductSummary{Slug: slug}}, nil
}

type stubCart struct {
	cart.Service
	viewedBy uuid.UUID
}

func (s *stubCart) View(_ context.Context, userID uuid.UUID) (*cart.View, error) {
	s.viewedBy = userID
	return &cart.View{}, nil
}

type stubAdmin struct {
	admin.Service
}

func (stubAdmin) Stats(context.Context) (*admin.DashboardStats, error) {
	return &admin.DashboardStats{TotalOrders: 3, TotalSales: "4546.00", Pending: 2, Delivered: 1}, nil
}

// stubUsers answers superuser checks from admins; every other id is a
// regular shopper.
type stubUsers struct {
	users.Service
	admins map[uuid.UUID]bool
}

func (s *stubUsers) IsSuperuser(_ context.Context, userID uuid.UUID) (bool, error) {
	return s.admins[userID], nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", ServiceName: "urbancart-backend"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "urbancart", AccessTTLMinutes: 15, RefreshTTLMinutes: 60},
	}
}

type fixture struct {
	handler  http.Handler
	cfg      *config.Config
	products *stubProducts
	cart     *stubCart
	users    *stubUsers
}

func newFixture(t *testing.T, db pinger) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	f := &fixture{
		cfg:      testConfig(),
		products: &stubProducts{},
		cart:     &stubCart{},
		users:    &stubUsers{admins: map[uuid.UUID]bool{}},
	}
	f.handler = NewRouter(Dependencies{
		Config:         f.cfg,
		Metrics:        metrics.New(reg),
		Database:       db,
		Sessions:       stubSessions{},
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Users:          f.users,
		Products:       f.products,
		Cart:           f.cart,
		Admin:          stubAdmin{},
	})
	return f
}

func (f *fixture) token(t *testing.T, userID uuid.UUID, superuser bool) string {
	t.Helper()
	tok, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:      userID,
		IsSuperuser: superuser,
		JTI:         session.NewAccessID(),
	})
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newFixture(t, stubPinger{})
		rec := f.do(http.MethodGet, "/health/", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"status": "ok", "database": "ok", "service": "urbancart-backend"}, body)
	})

	t.Run("degraded", func(t *testing.T) {
		f := newFixture(t, stubPinger{err: errors.New("connection refused")})
		rec := f.do(http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "error", body["database"])
	})

	t.Run("live", func(t *testing.T) {
		f := newFixture(t, stubPinger{})
		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health/live", "", nil).Code)
	})
}

func TestTrailingSlashesMatch(t *testing.T) {
	f := newFixture(t, stubPinger{})

	for _, path := range []string{"/products/", "/products"} {
		rec := f.do(http.MethodGet, path+"?category=jeans&price=1500", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	require.Len(t, f.products.filters.Categories, 1)

	rec := f.do(http.MethodGet, "/products/linen-shirt/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"linen-shirt"`)
}

func TestCartRequiresAuth(t *testing.T) {
	f := newFixture(t, stubPinger{})

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/cart/", "", nil).Code)

	userID := uuid.New()
	rec := f.do(http.MethodGet, "/cart/", f.token(t, userID, false), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, f.cart.viewedBy)
}

func TestCartAcceptsCookieToken(t *testing.T) {
	f := newFixture(t, stubPinger{})
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/cart/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: f.token(t, userID, false)})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, f.cart.viewedBy)
}

func TestAdminRequiresSuperuser(t *testing.T) {
	f := newFixture(t, stubPinger{})

	rec := f.do(http.MethodGet, "/admin/adminDashboardStats/", f.token(t, uuid.New(), false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminID := uuid.New()
	f.users.admins[adminID] = true
	rec = f.do(http.MethodGet, "/admin/adminDashboardStats/", f.token(t, adminID, true), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Message admin.DashboardStats `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, int64(3), envelope.Data.Message.TotalOrders)
	assert.Equal(t, "4546.00", envelope.Data.Message.TotalSales.String())
}

func TestAdminRejectsDemotedSuperuser(t *testing.T) {
	f := newFixture(t, stubPinger{})
	adminID := uuid.New()
	f.users.admins[adminID] = true
	token := f.token(t, adminID, true)

	rec := f.do(http.MethodGet, "/admin/adminDashboardStats/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f.users.admins[adminID] = false
	rec = f.do(http.MethodGet, "/admin/adminDashboardStats/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, stubPinger{})
	f.do(http.MethodGet, "/products/", "", nil)

	rec := f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "urbancart_http_requests_total"))
}
