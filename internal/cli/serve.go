package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ftt/internal/backend"
	"ftt/internal/cache"
	"ftt/internal/config"
	apphttp "ftt/internal/http"
	"ftt/internal/log"
	"ftt/internal/metrics"
	"ftt/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

type serveFlags struct {
	port    string
	backend string
}

func (f serveFlags) apply(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("port") {
			cfg.Port = f.port
		}
		if cmd.Flags().Changed("backend") {
			cfg.DataBackend = f.backend
		}
	}
}

func newServeCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig(flags.apply(cmd))
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg.LogLevel)
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return Serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&flags.port, "port", "", "HTTP port (overrides PORT)")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "Data backend: memory or sqlite (overrides DATA_BACKEND)")
	return cmd
}

// Serve runs the HTTP server and its background loops until ctx is done,
// then shuts everything down.
func Serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	m := metrics.New()
	sessions := session.NewRegistry(session.Options{
		MaxSessions: cfg.MaxSessions,
		TTL:         cfg.SessionTTL,
		Stores:      res.Provider,
		Publisher:   res.Publisher,
		Observer:    m,
		Logger:      logger,
	})
	defer sessions.Shutdown()

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Sessions:           sessions,
		Backend:            res.Provider,
		Metrics:            m,
		Logger:             logger,
		CurrencySymbol:     cfg.CurrencySymbol,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	sweeper := cache.NewManager(logger)
	sweeper.Register(sessions.Cleaner())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ftt server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return sweeper.Run(gctx, sweepInterval) })
	g.Go(func() error { return srv.RunMaintenance(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
