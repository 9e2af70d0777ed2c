// Package routes assembles the HTTP surface: middleware stack, public
// storefront reads, session-scoped state containers, the checkout flow,
// and the admin back office.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oelhadidy/agrovet-backend/api/controllers"
	"github.com/oelhadidy/agrovet-backend/api/middleware"
	"github.com/oelhadidy/agrovet-backend/internal/articles"
	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/internal/catalog"
	checkoutsvc "github.com/oelhadidy/agrovet-backend/internal/checkout"
	"github.com/oelhadidy/agrovet-backend/internal/favorites"
	"github.com/oelhadidy/agrovet-backend/internal/notifications"
	"github.com/oelhadidy/agrovet-backend/internal/orders"
	"github.com/oelhadidy/agrovet-backend/internal/users"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      db.Pinger
	Redis         *redis.Client
	Users         users.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Favorites     favorites.Service
	Articles      articles.Service
	Orders        orders.Service
	Notifications notifications.Service
	Checkout      checkoutsvc.Service
}

// NewRouter builds the chi handler tree.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Users, logg))
	})

	// Public storefront reads.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.Catalog, logg))
		r.Get("/{productId}", controllers.ProductGet(deps.Catalog, logg))
	})
	r.Get("/api/v1/categories", controllers.CategoriesList(deps.Catalog, logg))
	r.Route("/api/v1/articles", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Get("/", controllers.ArticlesList(deps.Articles, logg))
		r.Get("/{articleId}", controllers.ArticleGet(deps.Articles, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).
			Post("/{articleId}/favorite", controllers.ArticleFavoriteToggle(deps.Articles, logg))
	})

	// Provider redirects land here; no auth, safe to replay.
	r.Route("/api/v1/payments/callback", func(r chi.Router) {
		r.Get("/paypal", controllers.PaymentCallback(deps.Checkout, enums.PaymentProviderPayPal, logg))
		r.Get("/paymob/card", controllers.PaymentCallback(deps.Checkout, enums.PaymentProviderPaymobCard, logg))
		r.Get("/paymob/wallet", controllers.PaymentCallback(deps.Checkout, enums.PaymentProviderPaymobWallet, logg))
	})

	// Session containers work for guests and signed-in shoppers alike.
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.OptionalAuth(cfg.JWT, logg),
			middleware.SessionKey(),
		)

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(deps.Cart, logg))
			r.Post("/items", controllers.CartAdd(deps.Cart, logg))
			r.Post("/items/decrease", controllers.CartDecrease(deps.Cart, logg))
			r.Post("/items/remove", controllers.CartRemove(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Route("/api/v1/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(deps.Favorites, logg))
			r.Post("/toggle", controllers.FavoriteToggle(deps.Favorites, logg))
			r.Delete("/", controllers.FavoritesClear(deps.Favorites, logg))
		})
	})

	// Signed-in storefront surface.
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.SessionKey(),
			middleware.Idempotency(deps.Redis, logg),
		)

		r.Get("/api/v1/me", controllers.Me(deps.Users, logg))
		r.Put("/api/v1/me", controllers.UpdateProfile(deps.Users, logg))
		r.Post("/api/v1/state/sync", controllers.StateSync(deps.Cart, deps.Favorites, logg))

		r.Post("/api/v1/checkout", controllers.CheckoutBegin(deps.Checkout, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(deps.Orders, logg))
		})

		r.Get("/api/v1/articles/favorites", controllers.ArticleFavoritesList(deps.Articles, logg))

		r.Route("/api/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(deps.Notifications, logg))
		})
	})

	// Back office.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole(string(enums.UserRoleAdmin), logg),
			middleware.Idempotency(deps.Redis, logg),
		)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(deps.Catalog, logg))
			r.Put("/{productId}", controllers.AdminProductUpdate(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Catalog, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(deps.Catalog, logg))
			r.Put("/{categoryId}", controllers.AdminCategoryUpdate(deps.Catalog, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(deps.Catalog, logg))
		})

		r.Route("/articles", func(r chi.Router) {
			r.Post("/", controllers.AdminArticleCreate(deps.Articles, logg))
			r.Put("/{articleId}", controllers.AdminArticleUpdate(deps.Articles, logg))
			r.Delete("/{articleId}", controllers.AdminArticleDelete(deps.Articles, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderId}", controllers.AdminOrderGet(deps.Orders, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderStatusUpdate(deps.Orders, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/low-stock", controllers.AdminLowStockScan(deps.Catalog, logg))
			r.Post("/auto-refill", controllers.AdminAutoRefillScan(deps.Catalog, logg))
			r.Put("/{productId}", controllers.AdminSetStock(deps.Catalog, logg))
		})
	})

	return r
}
