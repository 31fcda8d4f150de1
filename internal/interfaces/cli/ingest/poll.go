package ingest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/infrastructure/mailsource"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/bootstrap"
)

// NewPollCommand runs one poll cycle against the configured mailbox.
func NewPollCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Fetch and ingest one batch from the configured mailbox",
		Args:  cobra.NoArgs,
		RunE:  runPoll,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func runPoll(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	source, err := mailsource.New(env.Config.Mailbox, env.Log)
	if err != nil {
		return err
	}

	container, err := env.Container(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Shutdown(ctx); err != nil {
			env.Log.Warnw("shutdown incomplete", "error", err)
		}
	}()

	result, err := container.NewPoller(source).PollOnce(ctx)
	fmt.Fprintf(cmd.OutOrStdout(),
		"fetched=%d created=%d appended=%d skipped=%d failed=%d acked=%d\n",
		result.Fetched, result.Created, result.Appended, result.Skipped, result.Failed, result.Acked,
	)
	return err
}
