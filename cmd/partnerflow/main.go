package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/neomorfeo/partnerflow/internal/adapter/fsm"
	"github.com/neomorfeo/partnerflow/internal/adapter/kafka"
	"github.com/neomorfeo/partnerflow/internal/adapter/logsink"
	"github.com/neomorfeo/partnerflow/internal/adapter/otel"
	"github.com/neomorfeo/partnerflow/internal/adapter/river"
	"github.com/neomorfeo/partnerflow/internal/adapter/sqlite"
	"github.com/neomorfeo/partnerflow/internal/app"
	"github.com/neomorfeo/partnerflow/internal/catalog"
	"github.com/neomorfeo/partnerflow/internal/config"
	"github.com/neomorfeo/partnerflow/internal/domain"

	handler "github.com/neomorfeo/partnerflow/internal/adapter/http"
)

const serviceName = "partnerflow"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	otelCfg, err := otel.ConfigFromEnv()
	if err != nil {
		return err
	}
	providers, err := otel.Setup(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	sink, closeSink, err := newSink(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	metered, err := otel.NewMeteringPublisher(sink)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	publisher := otel.NewTracingPublisher(metered)

	// --- Application ---
	opts := []app.Option{
		app.WithApprovalPolicy(cfg.ApprovalPolicy),
		app.WithConflictRetries(cfg.ConflictRetries),
	}
	workflow, err := app.NewWorkflowService(
		otel.NewTracingCompanyRepository(store.Companies()),
		otel.NewTracingRequestRepository(store.Requests()),
		store,
		fsm.New(),
		publisher,
		logger,
		opts...,
	)
	if err != nil {
		return err
	}
	loyalty := app.NewLoyaltyService(
		otel.NewTracingMembershipRepository(store.Memberships()),
		otel.NewTracingCatalogRepository(store.Catalog()),
		publisher,
		logger,
		opts...,
	)

	if cfg.CatalogPath != "" {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		if err := c.Seed(ctx, loyalty); err != nil {
			return err
		}
		logger.Info("catalog seeded",
			zap.String("path", cfg.CatalogPath),
			zap.Int("offers", len(c.Offers)),
			zap.Int("plans", len(c.Plans)),
		)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))
	router.Use(handler.Identity)

	api := humachi.New(router, huma.DefaultConfig(serviceName, otelCfg.ServiceVersion))
	handler.Register(api, workflow, loyalty)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("docs", "http://localhost:"+cfg.Port+"/docs"),
			zap.String("approval_policy", string(cfg.ApprovalPolicy)),
			zap.String("sink", cfg.Sink),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	logger.Info("stopped")
	return nil
}

// newSink builds the configured notification sink and returns its cleanup.
func newSink(ctx context.Context, cfg config.Config, store *sqlite.Store, logger *zap.Logger) (domain.EventPublisher, func(), error) {
	switch cfg.Sink {
	case config.SinkKafka:
		if err := kafka.EnsureTopic(cfg.KafkaBrokers, cfg.KafkaTopic, 3); err != nil {
			logger.Warn("kafka topic not ensured, relying on auto-creation", zap.Error(err))
		}
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		return producer, func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close", zap.Error(err))
			}
		}, nil

	case config.SinkLog:
		return logsink.NewPublisher(logger), func() {}, nil

	default:
		client, err := river.Setup(ctx, store.DB(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("river: %w", err)
		}
		// Stopped explicitly below so in-flight jobs finish after the signal.
		if err := client.Start(context.WithoutCancel(ctx)); err != nil {
			return nil, nil, fmt.Errorf("river start: %w", err)
		}
		return river.NewPublisher(client), func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Stop(stopCtx); err != nil {
				logger.Warn("river stop", zap.Error(err))
			}
		}, nil
	}
}
