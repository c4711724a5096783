package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/category"
	"github.com/wichananm65/storefront/internal/checkout"
	"github.com/wichananm65/storefront/internal/config"
	"github.com/wichananm65/storefront/internal/dashboard"
	"github.com/wichananm65/storefront/internal/database"
	"github.com/wichananm65/storefront/internal/events"
	"github.com/wichananm65/storefront/internal/favorite"
	"github.com/wichananm65/storefront/internal/httpx"
	"github.com/wichananm65/storefront/internal/logging"
	"github.com/wichananm65/storefront/internal/obs"
	"github.com/wichananm65/storefront/internal/order"
	"github.com/wichananm65/storefront/internal/otp"
	"github.com/wichananm65/storefront/internal/payment"
	"github.com/wichananm65/storefront/internal/product"
	"github.com/wichananm65/storefront/internal/transaction"
	"github.com/wichananm65/storefront/internal/upload"
	"github.com/wichananm65/storefront/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.IsDev())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		log.Fatal("init tracer", zap.Error(err))
	}

	db := mustOpenDB(ctx, cfg, log)
	defer db.Close()

	pub := newPublisher(cfg, log)
	defer pub.Close()

	storage, err := upload.NewDiskStorage(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxBytes)
	if err != nil {
		log.Fatal("upload storage", zap.Error(err))
	}

	// services
	userRepo := user.NewPostgresRepository(db)
	otpService := otp.NewService(otp.NewPostgresRepository(db), user.NewRegistry(userRepo), pub, cfg.OTPTTL, cfg.OTPMaxAttempts)
	userService := user.NewService(userRepo, otpService, storage, user.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), log, user.Options{
		AdminEmails: cfg.AdminEmails,
		PageSize:    cfg.PageSize,
	})

	productService := product.NewService(product.NewPostgresRepository(db), storage, log, cfg.ProductPageSize, cfg.PageSize)
	if cfg.IsDev() {
		if n, err := productService.Seed(ctx, product.SampleProducts); err != nil {
			log.Warn("seed products", zap.Error(err))
		} else if n > 0 {
			log.Info("seeded products", zap.Int("count", n))
		}
	}

	providers, webhookEvents := newPayments(cfg, log)
	orderService := order.NewService(order.NewPostgresRepository(db), pub, log, cfg.PageSize)
	transactionService := transaction.NewService(transaction.NewPostgresRepository(db), orderService, providers, pub, log, cfg.PageSize, cfg.Currency)
	orderService.SetPayments(transactionService)
	checkoutService := checkout.NewService(productService, orderService, transactionService, providers, log, checkout.Options{
		Currency:  cfg.Currency,
		ReturnURI: cfg.Omise.ReturnURI,
	})
	favoriteService := favorite.NewService(favorite.NewPostgresRepository(db), productService, cfg.PageSize)
	dashboardService := dashboard.NewService(orderService, transactionService, favoriteService)

	// handlers
	userHandler := user.NewHandler(userService, log)
	otpHandler := otp.NewHandler(otpService, log)
	productHandler := product.NewHandler(productService, log)
	categoryHandler := category.NewHandler()
	uploadHandler := upload.NewHandler(storage, log)
	checkoutHandler := checkout.NewHandler(checkoutService, webhookEvents, log)
	favoriteHandler := favorite.NewHandler(favoriteService, log)
	orderHandler := order.NewHandler(orderService, log)
	transactionHandler := transaction.NewHandler(transactionService, log)
	dashboardHandler := dashboard.NewHandler(dashboardService, log)

	app := fiber.New(fiber.Config{
		BodyLimit:             int(cfg.UploadMaxBytes) + 1<<20,
		DisableStartupMessage: !cfg.IsDev(),
	})
	setupCORS(app)
	app.Use(obs.Middleware())
	app.Use(logging.Middleware(log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return httpx.Fail(c, fiber.StatusServiceUnavailable, "Database unavailable")
		}
		return httpx.OK(c, nil)
	})
	userHandler.RegisterPublicRoutes(app)
	otpHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	uploadHandler.RegisterPublicRoutes(app)
	checkoutHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
		},
	}))
	app.Use(userHandler.RequireActive())

	userHandler.RegisterProtectedRoutes(app)
	favoriteHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	transactionHandler.RegisterProtectedRoutes(app)
	dashboardHandler.RegisterProtectedRoutes(app)

	admin := app.Group("/api/v1/admin", user.RequireAdmin())
	userHandler.RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	uploadHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	transactionHandler.RegisterAdminRoutes(admin)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("listening", zap.String("addr", cfg.Addr), zap.Strings("payment_providers", providers.Names()))
	if err := app.Listen(cfg.Addr); err != nil {
		log.Error("server stopped", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(flushCtx); err != nil {
		log.Warn("tracer shutdown", zap.Error(err))
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func mustOpenDB(ctx context.Context, cfg config.Config, log *zap.Logger) *sql.DB {
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}
	return db
}

// newPublisher publishes to RabbitMQ when configured and logs events otherwise.
func newPublisher(cfg config.Config, log *zap.Logger) events.Publisher {
	if cfg.Rabbit.URL == "" {
		log.Info("RABBIT_URL not set, events are only logged")
		return events.NewLogPublisher(log, cfg.IsDev())
	}
	pub, err := events.NewRabbitPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
	if err != nil {
		log.Fatal("connect rabbitmq", zap.Error(err))
	}
	return pub
}

func newPayments(cfg config.Config, log *zap.Logger) (*payment.Registry, checkout.EventSource) {
	if !cfg.Omise.Enabled() {
		log.Info("omise keys not set, only cash payments are available")
		return payment.NewRegistry(payment.CashProvider{}), nil
	}
	omise, err := payment.NewOmiseProvider(cfg.Omise.PublicKey, cfg.Omise.SecretKey)
	if err != nil {
		log.Fatal("omise client", zap.Error(err))
	}
	return payment.NewRegistry(payment.CashProvider{}, omise), omise
}
