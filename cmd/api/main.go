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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/sprinklerhub-backend/api/controllers"
	"github.com/angelmondragon/sprinklerhub-backend/api/routes"
	"github.com/angelmondragon/sprinklerhub-backend/internal/access"
	"github.com/angelmondragon/sprinklerhub-backend/internal/auth"
	"github.com/angelmondragon/sprinklerhub-backend/internal/businesses"
	"github.com/angelmondragon/sprinklerhub-backend/internal/cart"
	"github.com/angelmondragon/sprinklerhub-backend/internal/clients"
	"github.com/angelmondragon/sprinklerhub-backend/internal/email"
	"github.com/angelmondragon/sprinklerhub-backend/internal/favorites"
	"github.com/angelmondragon/sprinklerhub-backend/internal/invitations"
	"github.com/angelmondragon/sprinklerhub-backend/internal/jobs"
	"github.com/angelmondragon/sprinklerhub-backend/internal/memberships"
	"github.com/angelmondragon/sprinklerhub-backend/internal/notifications"
	"github.com/angelmondragon/sprinklerhub-backend/internal/orders"
	"github.com/angelmondragon/sprinklerhub-backend/internal/parts"
	"github.com/angelmondragon/sprinklerhub-backend/internal/users"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/auth/session"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/config"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/db"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/logger"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/metrics"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/migrate"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/redis"
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
		Format:      cfg.App.LogFormat,
		Environment: cfg.App.Env,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(gctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Dependencies, error) {
	conn := dbClient.DB()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	userRepo := users.NewRepository(conn)
	businessRepo := businesses.NewRepository(conn)
	partRepo := parts.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	jobRepo := jobs.NewRepository(conn)
	membershipRepo := memberships.NewRepository(conn)

	sessions, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		return routes.Dependencies{}, err
	}
	resolver, err := access.NewResolver(userRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}

	var transport email.Transport
	if cfg.FeatureFlags.EmailDeliveryEnabled {
		transport = email.NewSendgridTransport(cfg.Sendgrid)
	}
	mailer, err := email.NewMailer(email.Options{
		Transport:   transport,
		Quota:       redisClient,
		Logger:      logg,
		HourlyLimit: cfg.Invitations.EmailHourlyLimit,
		Enabled:     cfg.FeatureFlags.EmailDeliveryEnabled,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(conn), logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	dispatcher, err := memberships.NewDispatcher(userRepo, businessRepo, notificationService, mailer, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	membershipService, err := memberships.NewService(membershipRepo, dispatcher)
	if err != nil {
		return routes.Dependencies{}, err
	}

	businessService, err := businesses.NewService(businessRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	partService, err := parts.NewService(partRepo, businessRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, partRepo, jobRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	jobService, err := jobs.NewService(jobRepo, userRepo, notificationService)
	if err != nil {
		return routes.Dependencies{}, err
	}
	clientService, err := clients.NewService(clients.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}
	favoriteService, err := favorites.NewService(favorites.NewRepository(conn), partRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	orderService, err := orders.NewService(orders.Deps{
		Repo:       orders.NewRepository(conn),
		Tx:         dbClient,
		Cart:       cartRepo,
		Parts:      partRepo,
		Businesses: businessRepo,
		Jobs:       jobRepo,
		Managers:   userRepo,
		Notify:     notificationService,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	invitationService, err := invitations.NewService(invitations.Deps{
		Repo:        invitations.NewRepository(conn),
		Memberships: membershipRepo,
		Tx:          dbClient,
		Users:       userRepo,
		Businesses:  businessRepo,
		Notify:      notificationService,
		Mail:        mailer,
		Effects:     dispatcher,
		Logger:      logg,
	}, invitations.Options{
		BaseURL:    cfg.App.BaseURL,
		TokenTTL:   cfg.Invitations.TokenTTL,
		DailyLimit: cfg.Invitations.DailyLimitPerPM,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Tx:                  dbClient,
		Users:               userRepo,
		Businesses:          businessRepo,
		Sessions:            sessions,
		Invitations:         invitationService,
		Effects:             dispatcher,
		Cart:                cartService,
		Logger:              logg,
		SessionConfig:       cfg.Session,
		PasswordConfig:      cfg.Password,
		AllowSupplierSignup: cfg.FeatureFlags.AllowSupplierSignup,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Readiness: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		RateLimiter:    redisClient,
		Idempotency:    redisClient,
		Sessions:       sessions,
		Users:          resolver,
		JobLoader:      jobRepo,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		Auth:          authService,
		Businesses:    businessService,
		Parts:         partService,
		Cart:          cartService,
		Jobs:          jobService,
		Clients:       clientService,
		Orders:        orderService,
		Memberships:   membershipService,
		Invitations:   invitationService,
		Notifications: notificationService,
		Favorites:     favoriteService,
	}, nil
}
