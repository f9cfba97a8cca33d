package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/tourhub/internal/http/handlers"
	"github.com/diagnosis/tourhub/internal/mailer"
	"github.com/diagnosis/tourhub/internal/payment"
	"github.com/diagnosis/tourhub/internal/repository"
	"github.com/diagnosis/tourhub/internal/service"
	"github.com/diagnosis/tourhub/pkg/auth"
	"github.com/diagnosis/tourhub/pkg/cache"
	"github.com/diagnosis/tourhub/pkg/config"
	"github.com/diagnosis/tourhub/pkg/database"
	"github.com/diagnosis/tourhub/pkg/events"
	"github.com/diagnosis/tourhub/pkg/logger"
	mw "github.com/diagnosis/tourhub/pkg/middleware"
)

func main() {
	if err := run(); err != nil {
		logger.Error("API stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("Migrations applied")
	}

	checks := map[string]mw.HealthCheck{"database": pool.Ping}

	// Redis backs rate limiting and idempotent checkout; without it both are off.
	var (
		limiter     service.Limiter
		httpLimiter mw.Limiter
		idempotency mw.IdempotencyStore
	)
	if rdb, err := cache.Connect(ctx, cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, rate limiting and idempotency disabled", "error", err)
	} else {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		rl := cache.NewRateLimiter(rdb, "tourhub:ratelimit")
		limiter, httpLimiter = rl, rl
		idempotency = cache.NewStore(rdb, "tourhub:idempotency")
	}

	// Connect to event bus
	var bus events.EventBus = events.NopBus{}
	if nb, err := events.NewNATSEventBus(cfg.NATS.URL); err != nil {
		logger.Warn("NATS unavailable, events will not be delivered", "error", err)
	} else {
		bus = nb
	}
	defer bus.Close()

	gateway, err := payment.New(cfg.Stripe)
	if err != nil {
		return err
	}
	if _, ok := gateway.(*payment.DevGateway); ok {
		logger.Warn("PAYMENTS_DEV enabled, every checkout is approved without charging")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	tourRepo := repository.NewTourRepository(pool)
	hotelRepo := repository.NewHotelRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	voucherRepo := repository.NewVoucherRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	// Initialize services
	tokens := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	services := handlers.Services{
		Auth:      service.NewAuthService(userRepo, cartRepo, tokens, bus, limiter, cfg.RateLimit),
		Accounts:  service.NewAccountService(accountRepo, roleRepo, tokens),
		Roles:     service.NewRoleService(roleRepo),
		Catalog:   service.NewCatalogService(tourRepo, hotelRepo),
		Carts:     service.NewCartService(cartRepo, tourRepo, hotelRepo),
		Orders:    service.NewOrderService(orderRepo, cartRepo, tourRepo, hotelRepo, voucherRepo, gateway, bus, cfg.Server.PublicURL),
		Vouchers:  service.NewVoucherService(voucherRepo),
		Dashboard: service.NewDashboardService(userRepo, tourRepo, hotelRepo, orderRepo),
	}
	if err := services.Accounts.Bootstrap(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}
	notifier := service.NewNotifier(bus, mailer.New(cfg.Email), cfg.NATS.Queue)

	h := handlers.New(services, cfg, httpLimiter, idempotency)

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health(checks))
	r.Use(mw.Metrics)
	r.Mount("/", h.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting API", "port", cfg.Server.Port, "admin", cfg.AdminBase())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return notifier.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
