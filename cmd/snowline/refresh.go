package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/pipeline"
	"github.com/spf13/cobra"
)

var errRunFailed = errors.New("pipeline run failed")

// refreshTargets maps CLI arguments to pipeline names.
var refreshTargets = map[string]string{
	"forecast":   pipeline.NameForecast,
	"conditions": pipeline.NameConditions,
	"snotel":     pipeline.NameSnotel,
}

func refreshCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:       "refresh forecast|conditions|snotel",
		Short:     "Run one pipeline once and exit",
		Long:      "Run one pipeline once and exit. The exit code is 1 only when the run failed outright; per-resort errors still exit 0.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"forecast", "conditions", "snotel"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, env)
			if err != nil {
				return err
			}
			defer a.Close()

			m := a.orchestrators[refreshTargets[args[0]]].Run(ctx)
			if m.Status == domain.RunFailed {
				return fmt.Errorf("%s %s: %w", m.Pipeline, m.RunID, errRunFailed)
			}
			return nil
		},
	}
}
