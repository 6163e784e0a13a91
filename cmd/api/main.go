package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/banners"
	"github.com/angelmondragon/storefront-backend/internal/blogs"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/env"
	"github.com/angelmondragon/storefront-backend/pkg/events"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/payments/razorpay"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/search"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
	"github.com/angelmondragon/storefront-backend/pkg/storage/s3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	responses.EnableDebugDetails(!cfg.App.IsProd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	imageStore, err := newImageStore(ctx, cfg, logg)
	requireResource(ctx, logg, "image storage", err)

	gateway, err := razorpay.NewClient(cfg.Razorpay)
	requireResource(ctx, logg, "payment gateway", err)

	sender, err := mailer.New(cfg.Sendgrid)
	requireResource(ctx, logg, "mailer", err)

	productIndex, err := search.New(ctx, cfg.Search, logg)
	requireResource(ctx, logg, "search index", err)

	publisher, err := events.New(ctx, cfg.Kafka, logg)
	requireResource(ctx, logg, "event publisher", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	addressRepo := address.NewRepository(conn)

	mediaService, err := media.NewService(media.ServiceParams{
		Store:          imageStore,
		MaxUploadBytes: int64(cfg.Storage.MaxUploadMB) << 20,
		Logger:         logg,
	})
	requireResource(ctx, logg, "media service", err)

	otpIssuer, err := users.NewOTPIssuer(userRepo, sender, cfg.OTP, cfg.Sendgrid.FromName)
	requireResource(ctx, logg, "otp issuer", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		OTP:            otpIssuer,
		SessionManager: sessionManager,
		ResetGrants:    redisClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		OTPConfig:      cfg.OTP,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	userService, err := users.NewService(users.ServiceParams{
		Repo:        userRepo,
		OTP:         otpIssuer,
		Media:       mediaService,
		PasswordCfg: cfg.Password,
		Logger:      logg,
	})
	requireResource(ctx, logg, "user service", err)

	categoryService, err := categories.NewService(categories.ServiceParams{
		Repo:   categories.NewRepository(conn),
		Media:  mediaService,
		Cache:  redisClient,
		Logger: logg,
	})
	requireResource(ctx, logg, "category service", err)

	productService, err := products.NewService(products.ServiceParams{
		Repo:   productRepo,
		Index:  productIndex,
		Media:  mediaService,
		Logger: logg,
	})
	requireResource(ctx, logg, "product service", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		CartRepo:    cart.NewRepository(conn),
		ProductRepo: productRepo,
	})
	requireResource(ctx, logg, "cart service", err)

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(conn),
	})
	requireResource(ctx, logg, "wishlist service", err)

	addressService, err := address.NewService(addressRepo)
	requireResource(ctx, logg, "address service", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:          orders.NewRepository(conn),
		Tx:            dbClient,
		Addresses:     addressRepo,
		Products:      productRepo,
		Users:         userRepo,
		Gateway:       gateway,
		GatewaySecret: cfg.Razorpay.KeySecret,
		Currency:      cfg.Razorpay.Currency,
		Publisher:     publisher,
		Mailer:        sender,
		Metrics:       metrics.NewOrderMetrics(registry),
		Logger:        logg,
	})
	requireResource(ctx, logg, "order service", err)

	blogService, err := blogs.NewService(blogs.ServiceParams{
		Repo:   blogs.NewRepository(conn),
		Media:  mediaService,
		Logger: logg,
	})
	requireResource(ctx, logg, "blog service", err)

	bannerService, err := banners.NewService(banners.ServiceParams{
		Repo:   banners.NewRepository(conn),
		Media:  mediaService,
		Logger: logg,
	})
	requireResource(ctx, logg, "banner service", err)

	readiness := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}
	if pinger, ok := imageStore.(controllers.Pinger); ok {
		readiness["storage"] = pinger
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:      cfg,
		Logger:      logg,
		Sessions:    sessionManager,
		RateLimiter: redisClient,
		Observer:    metrics.NewHTTPMetrics(registry),
		Gatherer:    registry,
		Readiness:   readiness,
		Auth:        authService,
		Users:       userService,
		Categories:  categoryService,
		Products:    productService,
		Cart:        cartService,
		Wishlist:    wishlistService,
		Orders:      orderService,
		Addresses:   addressService,
		Blogs:       blogService,
		Banners:     bannerService,
	})

	addr := ":" + env.First(cfg.App.Port, "PORT")
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": env.Get("DYNO", "local"),
		"storage":  cfg.Storage.Kind(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		publisher.Close(),
		redisClient.Close(),
		dbClient.Close(),
	)
	if err != nil {
		logg.Error(serverCtx, "api shutdown finished with errors", err)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}

func newImageStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.ImageStore, error) {
	switch cfg.Storage.Kind() {
	case config.StorageDriverGCS:
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StorageDriverS3:
		store, err := s3.New(ctx, cfg.S3, logg)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		logg.Warn(ctx, "image storage disabled; uploads will be rejected")
		return storage.Noop{}, nil
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
