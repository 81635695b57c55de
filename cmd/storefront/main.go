package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Lolobw32/ecom-oslan/internal/admin"
	"github.com/Lolobw32/ecom-oslan/internal/analytics"
	"github.com/Lolobw32/ecom-oslan/internal/auth"
	"github.com/Lolobw32/ecom-oslan/internal/cart"
	"github.com/Lolobw32/ecom-oslan/internal/catalog"
	"github.com/Lolobw32/ecom-oslan/internal/config"
	"github.com/Lolobw32/ecom-oslan/internal/db"
	"github.com/Lolobw32/ecom-oslan/internal/events"
	httpapi "github.com/Lolobw32/ecom-oslan/internal/http"
	"github.com/Lolobw32/ecom-oslan/internal/kv"
	"github.com/Lolobw32/ecom-oslan/internal/logging"
	"github.com/Lolobw32/ecom-oslan/internal/middleware"
	"github.com/Lolobw32/ecom-oslan/internal/order"
	"github.com/Lolobw32/ecom-oslan/internal/orderflow"
	"github.com/Lolobw32/ecom-oslan/internal/pricing"
	"github.com/Lolobw32/ecom-oslan/internal/profile"
	"github.com/Lolobw32/ecom-oslan/internal/resolve"
	"github.com/Lolobw32/ecom-oslan/internal/sequence"
	"github.com/Lolobw32/ecom-oslan/internal/storefront"
)

func main() {
	if err := run(); err != nil {
		// The logger may not exist yet.
		_, _ = os.Stderr.WriteString("oslan-storefront: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, settings, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("run migrations", zap.Error(err))
		return err
	}

	sqlDB, err := db.OpenSQL(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	products := catalog.NewPostgresRepository(pool)
	orders := order.NewRepository(sqlDB)
	profiles := profile.NewRepository(sqlDB)
	tracker := analytics.NewTracker(sqlDB)
	authService := auth.NewService(sqlDB, auth.Options{
		Secret:              cfg.JWTSecret,
		TTL:                 cfg.TokenTTL,
		RequireConfirmation: cfg.RequireEmailConfirmation,
	})

	flowOpts := []orderflow.Option{orderflow.WithAtomicWrites(cfg.OrderAtomicWrites)}
	var cartObserver func(string) cart.CountObserver

	if cfg.AMQPURL != "" {
		conn, err := events.Dial(ctx, cfg.AMQPURL, logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn, sequence.NewRepository(pool), logger, events.PublisherOptions{
			CorrelationID: middleware.GetCorrelationID,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("publisher close", zap.Error(err))
			}
		}()

		flowOpts = append(flowOpts, orderflow.WithNotifier(publisher))
		cartObserver = publisher.CartObserver
	} else {
		logger.Info("AMQP_URL not set, change notifications disabled")
	}

	workflow := orderflow.New(products, orders, resolve.New(settings.ResolverKeywords), logger, flowOpts...)

	sessions := storefront.NewRegistry(storefront.Deps{
		Storage:      kv.NewPostgresProvider(sqlDB),
		Catalog:      products,
		Pricing:      pricing.NewEngine(settings.Pricing),
		Workflow:     workflow,
		Authority:    authService,
		Profiles:     profiles,
		CartObserver: cartObserver,
		DefaultSize:  settings.DefaultSize,
		IdleTTL:      cfg.SessionIdleTTL,
		Logger:       logger,
	})
	go sessions.Run(ctx, sessionSweepInterval(cfg.SessionIdleTTL))

	router := httpapi.NewRouter(httpapi.Deps{
		Sessions:       sessions,
		Products:       products,
		Profiles:       profile.NewService(profiles, orders),
		Orders:         orders,
		PageViews:      tracker,
		Admin:          admin.NewService(products, orders, tracker, logger),
		Verifier:       authService,
		Roles:          profiles,
		AllowOrigins:   cfg.CORSAllowOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown", zap.Error(err))
	}
	return nil
}

func sessionSweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Minute)
}
