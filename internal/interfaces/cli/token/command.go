package token

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/infrastructure/token"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Generate an admin API token",
		Long:  `Print a new admin token and its SHA-256 hash. Put the hash in server.admin_token_hash and hand the token to API clients.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, hash, err := token.NewGenerator().Generate()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token: %s\nadmin_token_hash: %s\n", plain, hash)
			return nil
		},
	}
}
