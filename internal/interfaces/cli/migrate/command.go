package migrate

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abengolea/heartlink-sub000/internal/infrastructure/migration"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/bootstrap"
)

const defaultScriptsDir = "./internal/infrastructure/migration/scripts"

var errSqliteHasNoHistory = errors.New("sqlite databases are migrated from the models and have no script history")

var (
	env        string
	name       string
	scriptsDir string
	steps      int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the billing schema",
	}
	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back versioned migrations",
		RunE:  withRuntime(runDown),
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "Number of versions to roll back")

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an empty SQL migration for the configured driver",
		RunE:  withRuntime(runCreate),
	}
	create.Flags().StringVarP(&name, "name", "n", "", "Migration name (required)")
	create.Flags().StringVar(&scriptsDir, "dir", defaultScriptsDir, "Directory holding the per-dialect script folders")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations (sqlite is built from the models)",
			RunE:  withRuntime(runUp),
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Print the schema version and script status",
			RunE:  withRuntime(runStatus),
		},
		create,
	)
	return cmd
}

type runFunc func(cmd *cobra.Command, rt *bootstrap.Runtime) error

// withRuntime opens the runtime for the selected environment around fn.
func withRuntime(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap.Setup(bootstrap.ResolveEnv(env))
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, rt)
	}
}

func runUp(_ *cobra.Command, rt *bootstrap.Runtime) error {
	manager := migration.NewManager(rt.Config.Database.Driver, rt.Logger)
	return manager.Migrate(rt.DB, migration.AutoMigrateModels()...)
}

func runDown(_ *cobra.Command, rt *bootstrap.Runtime) error {
	strategy, err := versioned(rt)
	if err != nil {
		return err
	}
	return strategy.MigrateDown(rt.DB, steps)
}

func runStatus(cmd *cobra.Command, rt *bootstrap.Runtime) error {
	strategy, err := versioned(rt)
	if err != nil {
		return err
	}
	current, err := strategy.GetVersion(rt.DB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "environment: %s\n", rt.Env)
	fmt.Fprintf(out, "driver:      %s\n", rt.Config.Database.Driver)
	fmt.Fprintf(out, "version:     %d\n", current)
	return strategy.Status(rt.DB)
}

func runCreate(cmd *cobra.Command, rt *bootstrap.Runtime) error {
	if err := migration.NewGooseStrategy(rt.Config.Database.Driver, rt.Logger).Create(scriptsDir, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created migration %q\n", name)
	return nil
}

func versioned(rt *bootstrap.Runtime) (*migration.GooseStrategy, error) {
	if rt.Config.Database.Driver == "sqlite" {
		return nil, errSqliteHasNoHistory
	}
	return migration.NewGooseStrategy(rt.Config.Database.Driver, rt.Logger), nil
}
