package main

import (
	"context"
	"os"

	"github.com/orris-inc/helpdesk/internal/interfaces/cli/worker"
)

func main() {
	cmd := worker.NewCommand()
	cmd.Use = "helpdesk-worker"
	cmd.SilenceUsage = true

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
