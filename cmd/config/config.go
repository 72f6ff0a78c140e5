// Package config implements the config subcommand, which prints the
// effective configuration.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modwatch/modwatch-go/internal/conf"
)

// Command creates the config command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the merged configuration from file, environment and flags. Credentials are redacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := conf.DumpYAML(settings)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
