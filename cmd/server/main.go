package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/printledger/internal/config"
	"github.com/Simplici0/printledger/internal/db"
	"github.com/Simplici0/printledger/internal/logging"
	"github.com/Simplici0/printledger/internal/migrations"
	"github.com/Simplici0/printledger/internal/seed"
	"github.com/Simplici0/printledger/internal/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "printledger",
		Short:        "Bookkeeping API for a 3D printing shop",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newPriceCmd())

	return root
}

// app holds the resources shared by every command.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sql.DB
}

// bootstrap loads configuration, opens the database and applies pending migrations.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, cfg.DBPath, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	applied, err := migrations.Up(ctx, database)
	if err != nil {
		_ = database.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("run database migrations: %w", err)
	}
	logger.Debug("migrations applied", zap.Int("count", applied), zap.String("db_path", cfg.DBPath))

	return &app{cfg: cfg, logger: logger, db: database}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.SeedOnStart {
		stats, err := seed.Run(ctx, a.db)
		if err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
		a.logger.Info("seed completed", zap.Int("inserts", stats.Inserts))
	}

	srv := newServer(store.New(a.db), a.logger)
	httpServer := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", a.cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newMigrateCmd() *cobra.Command {
	var withSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			version, err := migrations.Version(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)

			if !withSeed {
				return nil
			}
			stats, err := seed.Run(cmd.Context(), a.db)
			if err != nil {
				return fmt.Errorf("seed database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seed inserted %d rows\n", stats.Inserts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSeed, "seed", false, "insert default settings and a starter filament")

	return cmd
}
