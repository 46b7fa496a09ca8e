package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/urbancart/urbancart-backend/api/controllers"
	"github.com/urbancart/urbancart-backend/api/middleware"
	"github.com/urbancart/urbancart-backend/internal/admin"
	"github.com/urbancart/urbancart-backend/internal/auth"
	"github.com/urbancart/urbancart-backend/internal/cart"
	"github.com/urbancart/urbancart-backend/internal/orders"
	"github.com/urbancart/urbancart-backend/internal/products"
	"github.com/urbancart/urbancart-backend/internal/users"
	"github.com/urbancart/urbancart-backend/pkg/auth/session"
	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"github.com/urbancart/urbancart-backend/pkg/metrics"
	pkgredis "github.com/urbancart/urbancart-backend/pkg/redis"
)

type pinger interface {
	Ping(context.Context) error
}

type rateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// Dependencies are the collaborators the router hands to controllers and
// middleware. Nil stores disable rate limiting and idempotency replay.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Database pinger

	Sessions         session.AccessSessionChecker
	RateLimitStore   rateLimitStore
	IdempotencyStore pkgredis.IdempotencyStore
	MetricsHandler   http.Handler

	Auth     auth.Service
	Users    users.Service
	Products products.Service
	Cart     cart.Service
	Orders   orders.Service
	Admin    admin.Service
}

// NewRouter wires every route. Paths are registered without the trailing
// slash and StripSlashes lets clients send either form.
func NewRouter(d Dependencies) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.Metrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		chimw.StripSlashes,
	)

	loginPolicy, registerPolicy, resetPolicy := middleware.AuthPolicies(cfg.AuthRateLimit)

	authenticated := middleware.Auth(cfg.JWT, d.Sessions, logg)
	idempotent := middleware.Idempotency(d.IdempotencyStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.Health(cfg, logg, d.Database))
		r.Get("/live", controllers.HealthLive(cfg))
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(d.Products, logg))
		r.Get("/{slug}", controllers.ProductDetail(d.Products, logg))
	})
	r.Get("/sizes", controllers.SizeList(d.Products, logg))

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(registerPolicy, d.RateLimitStore, logg)).Post("/register", controllers.AuthRegister(d.Auth, cfg, logg))
		r.With(middleware.RateLimit(loginPolicy, d.RateLimitStore, logg)).Post("/login", controllers.AuthLogin(d.Auth, cfg, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, cfg, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, cfg, logg))
		r.With(middleware.RateLimit(resetPolicy, d.RateLimitStore, logg)).Post("/reset-password", controllers.AuthPasswordReset(d.Auth, logg))
		r.Post("/reset-password/confirm", controllers.AuthPasswordResetConfirm(d.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/user", controllers.CurrentUser(d.Users, logg))
			r.Patch("/editUserProfile", controllers.EditProfile(d.Users, logg))
			r.Delete("/delete-account", controllers.AuthDeleteAccount(d.Auth, cfg, logg))
		})
	})

	// Registered flat so the idempotency middleware sees the full pattern.
	r.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Use(idempotent)

		r.Get("/cart", controllers.CartView(d.Cart, logg))
		r.Post("/cart/add", controllers.CartAdd(d.Cart, logg))
		r.Post("/cart/update/{itemID}", controllers.CartUpdateQuantity(d.Cart, logg))
		r.Delete("/cart/remove/{itemID}", controllers.CartRemove(d.Cart, logg))
		r.Delete("/cart/clear", controllers.CartClear(d.Cart, logg))

		r.Post("/order/place", controllers.OrderPlace(d.Orders, logg))
		r.Get("/order/details/{orderID}", controllers.OrderDetail(d.Orders, logg))
		r.Get("/orders", controllers.OrderList(d.Orders, logg))

		r.Post("/payment/create-order", controllers.PaymentCreateOrder(d.Orders, logg))
		r.Post("/payment/verify", controllers.PaymentVerify(d.Orders, logg))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticated)
		r.Use(middleware.RequireSuperuser(d.Users, logg))

		r.Post("/createProduct", controllers.AdminCreateProduct(d.Products, logg))
		r.Patch("/editProduct/{productID}", controllers.AdminEditProduct(d.Products, logg))
		r.Delete("/deleteProduct/{productID}", controllers.AdminDeleteProduct(d.Products, logg))
		r.Post("/createSize", controllers.AdminCreateSize(d.Products, logg))
		r.Get("/orderDetailsList", controllers.AdminOrderList(d.Admin, logg))
		r.Get("/orderDetailsList/export", controllers.AdminOrderExport(d.Admin, logg))
		r.With(idempotent).Post("/updateOrderStatus", controllers.AdminUpdateOrderStatus(d.Admin, logg))
		r.Get("/adminDashboardStats", controllers.AdminDashboardStats(d.Admin, logg))
	})

	return r
}
