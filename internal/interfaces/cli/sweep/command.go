package sweep

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/abengolea/heartlink-sub000/internal/interfaces/http"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
)

var env string

// NewCommand runs a single expiry sweep and prints its report. It is meant
// for external schedulers that cannot reach the HTTP cron endpoint.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the subscription expiry sweep once",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Setup(bootstrap.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	container, err := httpRouter.NewContainer(rt.Config, rt.DB, rt.Redis, rt.Logger)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}

	ctx := cmd.Context()
	if rt.Config.Cron.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.Config.Cron.Timeout)
		defer cancel()
	}

	report, err := container.Sweep.Execute(ctx, biztime.NowUTC())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
