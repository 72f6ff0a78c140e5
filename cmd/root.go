// Package cmd assembles the command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modwatch/modwatch-go/cmd/config"
	"github.com/modwatch/modwatch-go/cmd/watch"
	"github.com/modwatch/modwatch-go/internal/buildinfo"
	"github.com/modwatch/modwatch-go/internal/conf"
	"github.com/modwatch/modwatch-go/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "modwatch",
		Short:   "Subreddit moderation report watcher",
		Long:    "Watches a subreddit's moderation report queue and forwards new reports to a webhook.",
		Version: buildinfo.String(),
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(watch.Command(settings), config.Command(settings))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
	}

	return rootCmd
}

// setupFlags defines the global flags shared by all subcommands.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Subreddit, "subreddit", viper.GetString("subreddit"), "Subreddit whose report queue to watch")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
