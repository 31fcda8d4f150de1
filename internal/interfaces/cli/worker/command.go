// Package worker runs the mailbox poller on a schedule until interrupted.
package worker

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/infrastructure/mailsource"
	"github.com/orris-inc/helpdesk/internal/infrastructure/scheduler"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/bootstrap"
	sharedConfig "github.com/orris-inc/helpdesk/internal/shared/config"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath   string
	watchRouting bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Poll the configured mailbox on an interval",
		Long:  `Fetch mail from the configured source every ingestion.poll_interval_seconds and run it through the ingestion engine.`,
		Args:  cobra.NoArgs,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&watchRouting, "watch", true, "Reload the routing table when the config file changes")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Config
	log := env.Log.Named("worker")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := mailsource.New(cfg.Mailbox, log)
	if err != nil {
		return err
	}

	container, err := env.Container(ctx)
	if err != nil {
		return err
	}

	if watchRouting && env.Loader.ConfigFile() != "" {
		env.Loader.Watch(func(routing sharedConfig.RoutingConfig) error {
			return container.Router().Reload(routing)
		}, func(err error) {
			log.Warnw("config reload rejected, keeping previous routing", "error", err)
		})
	}

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return err
	}

	interval := cfg.Ingestion.PollInterval()
	if err := manager.RegisterPollJob(container.NewPoller(source), interval, 0); err != nil {
		return err
	}

	log.Infow("starting mail worker",
		"source", cfg.Mailbox.Source,
		"interval", interval.String(),
	)
	manager.Start()

	<-ctx.Done()
	log.Infow("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = manager.Stop()
	if serr := container.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, serr)
	}

	log.Infow("worker exited")
	return err
}
