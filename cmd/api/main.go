package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/config"
	"github.com/ovaphlow/pitchfork/service-community/internal/router"
	"github.com/ovaphlow/pitchfork/service-community/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "community-api",
		Short:        "Community API: users, skills, projects and events",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), configPath)
		},
	})
	return root
}

// bootstrap loads .env and the configuration, then sets up logging, id
// generation and the database pool.
func bootstrap(configPath string) (*config.Config, *zap.Logger, *sqlx.DB, error) {
	// best-effort: without a .env file the real environment is used
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if err := utilities.InitSnowflake(cfg.SnowflakeNode); err != nil {
		return nil, nil, nil, fmt.Errorf("init snowflake: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db connect: %w", err)
	}
	return cfg, lg, db, nil
}

func runMigrate(ctx context.Context, configPath string) error {
	_, lg, db, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer lg.Sync()
	defer db.Close()

	if err := migrate(ctx, db); err != nil {
		return err
	}
	lg.Sugar().Info("schema is up to date")
	return nil
}

func serve(ctx context.Context, configPath string) error {
	cfg, lg, db, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer lg.Sync()
	defer db.Close()

	sugar := lg.Sugar()
	sugar.Infow("starting community-api", "addr", cfg.HTTP.Addr, "base_path", cfg.HTTP.BasePath)

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, db); err != nil {
			return err
		}
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router.RegisterRoutes(*cfg, sugar, db),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
	return nil
}
