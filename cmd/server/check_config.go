package main

import (
	"errors"
	"fmt"

	"github.com/dfryer1193/portfolio/internal/config"
	"github.com/spf13/cobra"
)

func checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "listen:  %s\n", cfg.Addr())
			fmt.Fprintf(out, "store:   %s\n", cfg.Store.Backend)
			fmt.Fprintf(out, "media:   %s\n", cfg.Media.Backend)

			if err := cfg.Validate(); err != nil {
				if errors.Is(err, config.ErrMissingConfig) {
					fmt.Fprintln(out, "some required values are missing:")
				}
				return err
			}

			fmt.Fprintln(out, "configuration OK")
			return nil
		},
	}
}
