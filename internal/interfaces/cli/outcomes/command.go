package outcomes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/infrastructure/pubsub"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/bootstrap"
)

var configPath string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcomes",
		Short: "Follow ingestion outcomes published by running instances",
		Long:  `Print every ingestion outcome published on Redis as a JSON line until interrupted. Requires redis.enabled.`,
		Args:  cobra.NoArgs,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if !env.Config.Redis.Enabled {
		return errors.New("outcomes are only published when redis.enabled is true")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := env.Container(ctx)
	if err != nil {
		return err
	}
	defer container.Shutdown(context.WithoutCancel(ctx))

	enc := json.NewEncoder(cmd.OutOrStdout())
	err = container.OutcomeBus().Subscribe(ctx, func(event pubsub.OutcomeEvent) {
		if err := enc.Encode(event); err != nil {
			env.Log.Warnw("failed to print outcome", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outcome subscription: %w", err)
	}
	return nil
}
