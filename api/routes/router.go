package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/banners"
	"github.com/angelmondragon/storefront-backend/internal/blogs"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RateLimiter backs the fixed-window auth throttles.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the HTTP surface needs. Nil services make
// their endpoints answer 500; nil infrastructure disables the related
// middleware.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Sessions    session.AccessSessionChecker
	RateLimiter RateLimiter
	Observer    middleware.RequestObserver
	Gatherer    prometheus.Gatherer
	Readiness   map[string]controllers.Pinger

	Auth       auth.Service
	Users      users.Service
	Categories categories.Service
	Products   products.Service
	Cart       cart.Service
	Wishlist   wishlist.Service
	Orders     orders.Service
	Addresses  address.Service
	Blogs      blogs.Service
	Banners    banners.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, deps.Observer),
		middleware.CORS(cfg.CORS.AllowedOrigins),
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

	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	adminOnly := middleware.RequireRole(enums.RoleAdmin, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/user", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).Post("/register", controllers.UserRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.UserLogin(deps.Auth, logg))
		r.Post("/verifyEmail", controllers.UserVerifyEmail(deps.Auth, logg))
		r.Post("/forgetpassword", controllers.UserForgotPassword(deps.Auth, logg))
		r.Post("/verifyOtp", controllers.UserVerifyForgotPasswordOTP(deps.Auth, logg))
		r.Post("/resetpassword", controllers.UserResetPassword(deps.Auth, logg))
		r.Post("/refreshToken", controllers.UserRefreshToken(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/logout", controllers.UserLogout(deps.Auth, logg))
			r.Get("/user-details", controllers.UserDetails(deps.Users, logg))
			r.Post("/user-avatar", controllers.UserAvatar(deps.Users, logg))
			r.Put("/{id}", controllers.UserUpdate(deps.Users, logg))
			r.With(adminOnly).Get("/", controllers.UserList(deps.Users, logg))
		})
	})

	r.Route("/api/category", func(r chi.Router) {
		r.Get("/", controllers.CategoryTree(deps.Categories, logg))
		r.Get("/level/{level}", controllers.CategoryByLevel(deps.Categories, logg))
		r.Get("/subcategories/{parentId}", controllers.CategoryChildren(deps.Categories, logg))
		r.Get("/{id}", controllers.CategoryGet(deps.Categories, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/imageUpload", controllers.CategoryImageUpload(deps.Categories, logg))
			r.Post("/create", controllers.CategoryCreate(deps.Categories, logg))
			r.Put("/{id}", controllers.CategoryUpdate(deps.Categories, logg))
			r.Delete("/{id}", controllers.CategoryDelete(deps.Categories, logg))
		})
	})

	r.Route("/api/product", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Products, logg))
		r.Get("/byCategory", controllers.ProductsByCategory(deps.Products, logg))
		r.Get("/byCategoryName", controllers.ProductsByCategoryName(deps.Products, logg))
		r.Get("/filterByPrice", controllers.ProductsByPrice(deps.Products, logg))
		r.Get("/byRating", controllers.ProductsByRating(deps.Products, logg))
		r.Get("/featured", controllers.ProductsFeatured(deps.Products, logg))
		r.Get("/search", controllers.ProductSearch(deps.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/count", controllers.ProductCount(deps.Products, logg))
			r.Put("/updateProductQnty", controllers.ProductDecrementStock(deps.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/uploadImages", controllers.ProductUploadImages(deps.Products, logg))
			r.Post("/create", controllers.ProductCreate(deps.Products, logg))
			r.Put("/{id}", controllers.ProductUpdate(deps.Products, logg))
			r.Delete("/{id}", controllers.ProductDelete(deps.Products, logg))
		})

		r.Get("/{id}", controllers.ProductGet(deps.Products, logg))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/add", controllers.CartAdd(deps.Cart, logg))
		r.Get("/", controllers.CartList(deps.Cart, logg))
		r.Put("/update-qty", controllers.CartUpdateQty(deps.Cart, logg))
		r.Delete("/{id}", controllers.CartDelete(deps.Cart, logg))
	})

	r.Route("/api/mylist", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/add", controllers.WishlistAdd(deps.Wishlist, logg))
		r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
		r.Delete("/{id}", controllers.WishlistRemove(deps.Wishlist, logg))
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/create", controllers.OrderCreate(deps.Orders, logg))
		r.Post("/verify", controllers.OrderVerify(deps.Orders, logg))
		r.Get("/order-list", controllers.OrderListForUser(deps.Orders, logg))
		r.With(adminOnly).Get("/all", controllers.OrderListAll(deps.Orders, logg))
	})

	r.Route("/api/address", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/add", controllers.AddressAdd(deps.Addresses, logg))
		r.Get("/", controllers.AddressList(deps.Addresses, logg))
		r.Get("/{id}", controllers.AddressGet(deps.Addresses, logg))
		r.Put("/{id}", controllers.AddressUpdate(deps.Addresses, logg))
		r.Delete("/{id}", controllers.AddressDelete(deps.Addresses, logg))
	})

	r.Route("/api/blog", func(r chi.Router) {
		r.Get("/", controllers.BlogList(deps.Blogs, logg))
		r.Get("/{id}", controllers.BlogGet(deps.Blogs, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/", controllers.BlogCreate(deps.Blogs, logg))
			r.Put("/{id}", controllers.BlogUpdate(deps.Blogs, logg))
			r.Delete("/{id}", controllers.BlogDelete(deps.Blogs, logg))
		})
	})

	r.Route("/api/banners", func(r chi.Router) {
		r.Get("/", controllers.BannerList(deps.Banners, logg))
		r.Get("/active", controllers.BannerListActive(deps.Banners, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/", controllers.BannerCreate(deps.Banners, logg))
			r.Put("/{id}", controllers.BannerUpdate(deps.Banners, logg))
			r.Delete("/{id}", controllers.BannerDelete(deps.Banners, logg))
		})
	})

	return r
}
