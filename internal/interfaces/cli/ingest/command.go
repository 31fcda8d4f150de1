// Package ingest holds the commands that feed mail into the engine outside
// the HTTP server: importing files and running a single mailbox poll.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/infrastructure/mailsource"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/bootstrap"
)

const stdinUID = "stdin"

var (
	configPath string
	jsonOutput bool
)

// NewCommand imports .eml files. Files are processed one after another in
// argument order so a reply given after its original threads onto it.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Ingest raw RFC 5322 messages from files",
		Long:  `Run each file through the ingestion engine and print the outcome. Use "-" to read one message from stdin.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print outcomes as JSON lines")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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
	defer func() {
		if err := container.Shutdown(ctx); err != nil {
			env.Log.Warnw("shutdown incomplete", "error", err)
		}
	}()

	msgs, err := readMessages(ctx, cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	engine := container.Ingestion()
	outcomes := make([]ingestion.Outcome, 0, len(msgs))
	failed := 0
	for _, msg := range msgs {
		out := engine.Process(ctx, msg)
		if out.Kind == ingestion.OutcomeFailed {
			failed++
		}
		outcomes = append(outcomes, out)
	}

	if err := printOutcomes(cmd.OutOrStdout(), outcomes, jsonOutput); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, len(msgs))
	}
	return nil
}

// readMessages keeps argument order. "-" reads stdin.
func readMessages(ctx context.Context, stdin io.Reader, args []string) ([]ingestion.RawMessage, error) {
	msgs := make([]ingestion.RawMessage, 0, len(args))
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			msgs = append(msgs, ingestion.RawMessage{UID: stdinUID, Data: data, FetchedAt: time.Now()})
			continue
		}
		file, err := mailsource.NewFileSource([]string{arg}).Fetch(ctx)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, file...)
	}
	return msgs, nil
}

func printOutcomes(w io.Writer, outcomes []ingestion.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, out := range outcomes {
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tOUTCOME\tTICKET\tRULE\tDETAIL")
	for _, out := range outcomes {
		detail := out.Reason
		if out.ParkedID != 0 {
			detail = fmt.Sprintf("parked #%d: %s", out.ParkedID, out.Reason)
		}
		if out.Reopened {
			detail = "reopened"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", out.SourceUID, out.Kind, out.TicketNumber, out.Rule, detail)
	}
	return tw.Flush()
}
