package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ftt/internal/amqp"
	"ftt/internal/cache"
	"ftt/internal/config"
	"ftt/internal/log"
	"ftt/internal/worker"
)

var ErrAMQPDisabled = errors.New("notify requires AMQP_URL")

func newNotifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Consume add notifications from the broker and log them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig(nil)
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg.LogLevel)
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return Notify(ctx, cfg, logger)
		},
	}
}

// Notify consumes events until ctx is done.
func Notify(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if !cfg.AMQPEnabled() {
		return ErrAMQPDisabled
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewNotifyWorker(logger, cfg.MaxSessions, cfg.SessionTTL)
	sweeper := cache.NewManager(logger)
	sweeper.Register(w.Cleaner())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweeper.Run(gctx, sweepInterval) })
	g.Go(func() error {
		logger.Info("Starting ftt notify", log.FieldOperation, log.OpStartup, "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return client.ConsumeEvents(gctx, w.HandleEvent)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Notify worker stopped", log.FieldOperation, log.OpShutdown)
	return nil
}
