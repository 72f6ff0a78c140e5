// Package watch implements the watch subcommand, the long-running report
// queue watcher.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modwatch/modwatch-go/internal/conf"
	"github.com/modwatch/modwatch-go/internal/datastore"
	"github.com/modwatch/modwatch-go/internal/logging"
	"github.com/modwatch/modwatch-go/internal/notification"
	"github.com/modwatch/modwatch-go/internal/reddit"
	"github.com/modwatch/modwatch-go/internal/report"
	"github.com/modwatch/modwatch-go/internal/telemetry"
	"github.com/modwatch/modwatch-go/internal/watcher"
)

// Command creates the watch command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the report queue and forward new reports",
		Long:  "Start streaming the subreddit's moderation reports, persist each new report and deliver a webhook notification for it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the watch command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().DurationVar(&settings.Poll.Interval, "interval", viper.GetDuration("poll.interval"), "Delay between report queue polls")
	cmd.Flags().IntVar(&settings.Poll.Limit, "limit", viper.GetInt("poll.limit"), "Maximum reports fetched per poll")
	cmd.Flags().StringVar(&settings.Webhook.URL, "webhook", viper.GetString("webhook.url"), "Webhook URL notifications are delivered to")
	cmd.Flags().BoolVar(&settings.Webhook.SkipNotify, "skipnotify", viper.GetBool("webhook.skipnotify"), "Record reports without delivering notifications")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

// runWatch wires the feed, store and notification pipeline together and runs
// the loop until interrupted.
func runWatch(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fileLog *slog.Logger
	if settings.Main.Log.Enabled {
		l, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, settings.Main.Name, slog.LevelInfo)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			if err := closeLog(); err != nil {
				logging.Error("failed to close log file", "error", err)
			}
		}()
		fileLog = l
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("failed to close database", "error", err)
		}
	}()

	client := reddit.NewClient(settings)
	defer client.Close()
	stream := reddit.NewStream(client, settings.Poll.Interval, settings.Poll.Limit)
	resolver := report.NewResolver(client)
	builder := notification.NewBuilder(resolver, client, settings.Subreddit)

	provider := notification.FromSettings(settings)
	defer provider.Close()
	if err := provider.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid webhook configuration: %w", err)
	}

	opts := []watcher.Option{
		watcher.WithSkipNotify(settings.Webhook.SkipNotify),
		watcher.WithLogger(fileLog),
	}

	if settings.Telemetry.Enabled {
		metrics, err := telemetry.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		endpoint, err := telemetry.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(ctx)
		opts = append(opts, watcher.WithMetrics(metrics.Watcher))
	}

	logging.Info("watching report queue",
		"subreddit", settings.Subreddit,
		"interval", settings.Poll.Interval,
		"skip_notify", settings.Webhook.SkipNotify)

	w := watcher.New(settings.Subreddit, stream, store, builder, provider, opts...)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
