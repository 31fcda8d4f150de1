package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/helpdesk/internal/infrastructure/migration"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/bootstrap"
)

var (
	configPath  string
	name        string
	steps       int
	scriptsPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage the helpdesk schema: apply or roll back migrations, show their status and create new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a number of migrations. Only PostgreSQL keeps versioned scripts; other drivers cannot roll back.`,
		Args:  cobra.NoArgs,
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new migration",
		Long:  `Create the next numbered goose script. Run it from the repository root so the script lands next to the embedded ones.`,
		Args:  cobra.NoArgs,
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	cmd.Flags().StringVar(&scriptsPath, "dir", migration.DefaultScriptsPath, "Directory of migration scripts")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runUp(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	db, err := env.DB()
	if err != nil {
		return err
	}

	manager := migration.NewManager(env.Config.Database.Driver, env.Log)
	return manager.Up(cmd.Context(), db)
}

func runDown(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	db, err := env.DB()
	if err != nil {
		return err
	}

	env.Log.Infow("running down migrations", "steps", steps)

	manager := migration.NewManager(env.Config.Database.Driver, env.Log)
	if err := manager.Down(cmd.Context(), db, steps); err != nil {
		env.Log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	env.Log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	db, err := env.DB()
	if err != nil {
		return err
	}

	manager := migration.NewManager(env.Config.Database.Driver, env.Log)
	return manager.Status(cmd.Context(), db, cmd.OutOrStdout())
}

func runCreate(cmd *cobra.Command, args []string) error {
	env, err := bootstrap.Setup(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	path, err := migration.NewGenerator(scriptsPath, env.Log).CreateMigration(name)
	if err != nil {
		env.Log.Errorw("failed to create migration", "name", name, "error", err)
		return fmt.Errorf("failed to create migration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migration %q created: %s\n", name, path)
	return nil
}
