package parked

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/application/helpdesk/usecases"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/bootstrap"
)

var (
	configPath      string
	includeResolved bool
	page            int
	pageSize        int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parked",
		Short: "Inspect and retry messages that failed normalization",
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(newListCommand(), newRetryCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List parked messages",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	cmd.Flags().BoolVarP(&includeResolved, "all", "a", false, "Include messages that were already retried successfully")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "Page size")

	return cmd
}

func newRetryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retry ID...",
		Short: "Run parked messages through ingestion again",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRetry,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	container, err := env.Container(cmd.Context())
	if err != nil {
		return err
	}
	defer container.Shutdown(cmd.Context())

	result, err := container.Helpdesk().ListParked(cmd.Context(), usecases.ListParkedQuery{
		IncludeResolved: includeResolved,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return err
	}
	return printParked(cmd.OutOrStdout(), result)
}

func runRetry(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	container, err := env.Container(ctx)
	if err != nil {
		return err
	}
	defer container.Shutdown(ctx)

	unresolved := 0
	out := cmd.OutOrStdout()
	for _, id := range ids {
		result, err := container.Helpdesk().RetryParked(ctx, id)
		if err != nil {
			return fmt.Errorf("retry parked message %d: %w", id, err)
		}
		if !result.Resolved {
			unresolved++
			fmt.Fprintf(out, "#%d still parked: %s\n", id, result.Reason)
			continue
		}
		fmt.Fprintf(out, "#%d %s %s\n", id, result.Outcome, result.TicketNumber)
	}

	if unresolved > 0 {
		return fmt.Errorf("%d of %d messages are still parked", unresolved, len(ids))
	}
	return nil
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid parked message id %q", arg)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func printParked(w io.Writer, result *dto.ListParkedResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tSIZE\tPARKED AT\tRESOLVED\tREASON")
	for _, p := range result.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%t\t%s\n",
			p.ID, p.SourceUID, p.Size, p.ParkedAt.Format(time.RFC3339), p.Resolved, p.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d shown\n", len(result.Items), result.Total)
	return err
}
