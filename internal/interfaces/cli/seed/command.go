package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/usecases"
	"github.com/orris-inc/helpdesk/internal/infrastructure/migration"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/bootstrap"
)

var (
	configPath string
	seedPath   string
	migrate    bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create statuses, queues and supporters from a YAML file",
		Long:  `Apply a seed file. Rows that already exist are skipped, so the same file can be applied again after edits.`,
		Args:  cobra.NoArgs,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVarP(&seedPath, "file", "f", "configs/seeds.yaml", "Seed file")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Run pending migrations before seeding")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	file, err := migration.LoadSeedFile(seedPath)
	if err != nil {
		return err
	}

	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	if migrate {
		db, err := env.DB()
		if err != nil {
			return err
		}
		if err := migration.NewManager(env.Config.Database.Driver, env.Log).Up(ctx, db); err != nil {
			return err
		}
	}

	container, err := env.Container(ctx)
	if err != nil {
		return err
	}
	defer container.Shutdown(ctx)

	result, err := container.Helpdesk().Seed(ctx, toCommand(file))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %d statuses, %d queues, %d supporters; %d already present\n",
		result.Statuses, result.Queues, result.Supporters, result.Skipped)
	return nil
}

func toCommand(file *migration.SeedFile) usecases.SeedCommand {
	var cmd usecases.SeedCommand
	for _, s := range file.Statuses {
		cmd.Statuses = append(cmd.Statuses, usecases.SeedStatus{
			Name:        s.Name,
			BaseStatus:  s.BaseStatus,
			Description: s.Description,
		})
	}
	for _, q := range file.Queues {
		cmd.Queues = append(cmd.Queues, usecases.SeedQueue{
			Name:          q.Name,
			Prefix:        q.Prefix,
			DefaultStatus: q.DefaultStatus,
		})
	}
	for _, s := range file.Supporters {
		cmd.Supporters = append(cmd.Supporters, usecases.SeedSupporter{
			Email:    s.Email,
			Name:     s.Name,
			Inactive: s.Active != nil && !*s.Active,
		})
	}
	return cmd
}
