package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/snowline-etl-service/internal/seed"
	"github.com/spf13/cobra"
)

func seedCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Load resorts and drive times from a seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			data, err := seed.Decode(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := newApp(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer a.Close()
			return seed.Apply(cmd.Context(), a.store, a.cache, data, a.logger)
		},
	}
}
