package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/estimator/internal/core/api"
	"github.com/solatis/estimator/internal/core/auth"
	"github.com/solatis/estimator/internal/core/config"
	"github.com/solatis/estimator/internal/core/db"
	"github.com/solatis/estimator/internal/core/metrics"
	"github.com/solatis/estimator/internal/core/server"
	"github.com/solatis/estimator/internal/service"
	"github.com/solatis/estimator/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC intake service",
	RunE:  runServe,
}

var autoMigrate bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "gRPC server host")
	serveCmd.Flags().Int("port", 0, "gRPC server port")
	serveCmd.Flags().String("metrics-addr", "", "metrics HTTP address; empty keeps the configured value")
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
	addCatalogFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Server.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	cache := catalogCache(ctx, cfg.Catalog, logger, m)
	if _, err := cache.Get(); err != nil {
		return eris.Wrap(err, "failed to load catalog")
	}

	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	apiKeys, err := config.APIKeys()
	if err != nil {
		return err
	}
	if len(apiKeys) == 0 && !cfg.Auth.AllowTenantHeader {
		return eris.New("no API keys configured (set EST_API_KEYS) and tenant header disabled")
	}
	authenticator, err := auth.NewAuthenticator(apiKeys, cfg.Auth.AllowTenantHeader)
	if err != nil {
		return err
	}

	svc := service.New(service.Config{
		Catalog: cache,
		Store:   store,
		Logger:  logger,
		Metrics: m,
	})
	intakeService, err := api.NewIntakeService(svc, logger)
	if err != nil {
		return err
	}
	grpcServer, err := server.NewGRPCServer(cfg.Server, intakeService, authenticator, logger)
	if err != nil {
		return eris.Wrap(err, "failed to create server")
	}

	logger.Info("starting estimator",
		zap.String("version", Version),
		zap.String("addr", grpcServer.Addr()),
		zap.Bool("snapshots", store != nil),
		zap.Int("api_keys", len(apiKeys)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return grpcServer.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	})

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer := &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.Server.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// openStore connects the snapshot store. An empty URL disables snapshots.
// Pending migrations abort startup unless --migrate is set.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*snapshot.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("no database configured, snapshot operations disabled")
		return nil, func() {}, nil
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "failed to open database")
	}
	closeFn := func() { database.Close() }

	if err := ensureMigrated(ctx, database, logger); err != nil {
		closeFn()
		return nil, nil, err
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		closeFn()
		return nil, nil, eris.Wrap(err, "failed to load queries")
	}
	return snapshot.NewStore(queries), closeFn, nil
}

func ensureMigrated(ctx context.Context, database *sqlx.DB, logger *zap.Logger) error {
	if autoMigrate {
		if err := db.MigrateUp(ctx, database); err != nil {
			return eris.Wrap(err, "failed to apply migrations")
		}
		return nil
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return eris.Wrap(err, "failed to check migrations")
	}
	for _, s := range statuses {
		if !s.Applied {
			logger.Error("migration pending", zap.String("migration", s.ID))
			return eris.Errorf("migration %s not applied - run 'estimator migrate' first", s.ID)
		}
	}
	return nil
}
