package main

import (
	"github.com/couchcryptid/snowline-etl-service/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	env := &environment{}

	root := &cobra.Command{
		Use:           "snowline",
		Short:         "Weather and snowpack ingestion for ski resorts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			env.cfg = cfg
			env.logger = sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	root.AddCommand(
		serveCmd(env),
		refreshCmd(env),
		seedCmd(env),
	)
	return root
}
