// Package watcher runs the main loop: pull reports from the feed, skip the
// ones already recorded, persist the rest and notify the webhook.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/modwatch/modwatch-go/internal/datastore"
	"github.com/modwatch/modwatch-go/internal/logging"
	"github.com/modwatch/modwatch-go/internal/notification"
	"github.com/modwatch/modwatch-go/internal/reddit"
	"github.com/modwatch/modwatch-go/internal/report"
	"github.com/modwatch/modwatch-go/internal/telemetry"
)

// Feed is the pull-based report source.
type Feed interface {
	Next(ctx context.Context) (reddit.Item, error)
}

// Renderer builds notification documents from reports.
type Renderer interface {
	Build(ctx context.Context, item reddit.Item) (*notification.Embed, error)
}

// Notifier delivers notification documents.
type Notifier interface {
	Send(ctx context.Context, embed *notification.Embed) error
}

// Watcher consumes the report feed one item at a time. Persistence is the
// source of truth for dedup; notification failure never unwinds it.
type Watcher struct {
	feed       Feed
	store      datastore.Interface
	renderer   Renderer
	notifier   Notifier
	subreddit  string
	skipNotify bool
	metrics    *telemetry.WatcherMetrics
	log        *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSkipNotify suppresses webhook delivery. Reports are still persisted so
// a later run with delivery enabled does not replay the backlog.
func WithSkipNotify(skip bool) Option {
	return func(w *Watcher) { w.skipNotify = skip }
}

// WithMetrics attaches loop metrics.
func WithMetrics(m *telemetry.WatcherMetrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithLogger replaces the default logger, e.g. with a file-backed one.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// New creates a watcher over the given feed, store and notification pipeline.
func New(subreddit string, feed Feed, store datastore.Interface, renderer Renderer, notifier Notifier, opts ...Option) *Watcher {
	w := &Watcher{
		feed:      feed,
		store:     store,
		renderer:  renderer,
		notifier:  notifier,
		subreddit: subreddit,
		log:       watcherLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func watcherLogger() *slog.Logger {
	if l := logging.ForService("watcher"); l != nil {
		return l
	}
	return slog.Default().With("service", "watcher")
}

// Run consumes the feed until ctx is cancelled or the feed fails
// unrecoverably. Single consumer, reports handled in arrival order.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		item, err := w.feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("watcher stopping", "reason", ctx.Err())
				return ctx.Err()
			}
			return err
		}

		w.process(ctx, item)
	}
}

// process handles a single report. Failures are logged and counted but never
// stop the loop; the next report is unaffected.
func (w *Watcher) process(ctx context.Context, item reddit.Item) {
	identity := report.IdentityKey(item)
	w.metrics.RecordSeen()

	seen, err := w.store.Exists(identity)
	if err != nil {
		w.metrics.RecordFailure("store")
		w.log.Error("dedup lookup failed",
			"identity", identity,
			"error", err)
		return
	}
	if seen {
		w.metrics.RecordDuplicate()
		// Steady-state case, not an error; log so the session log shows it.
		w.log.Info("already reported", "identity", identity)
		return
	}

	if err := w.store.SaveReport(identity); err != nil {
		w.metrics.RecordFailure("store")
		w.log.Error("failed to record report",
			"identity", identity,
			"error", err)
		return
	}
	w.metrics.RecordNew(item.Kind().String())

	if w.skipNotify {
		w.confirm(item, identity, false)
		return
	}

	embed, err := w.renderer.Build(ctx, item)
	if err != nil {
		w.metrics.RecordFailure("render")
		w.log.Error("failed to render notification",
			"identity", identity,
			"error", err)
		return
	}

	start := time.Now()
	if err := w.notifier.Send(ctx, embed); err != nil {
		w.metrics.RecordFailure("dispatch")
		w.log.Error("failed to deliver notification",
			"identity", identity,
			"error", err)
		return
	}
	w.metrics.RecordDispatchDuration(time.Since(start).Seconds())

	w.confirm(item, identity, true)
}

// confirm emits the per-report confirmation line, written whether or not a
// notification went out.
func (w *Watcher) confirm(item reddit.Item, identity string, notified bool) {
	w.log.Info("reported",
		"identity", identity,
		"kind", item.Kind().String(),
		"author", item.Thing().Author,
		"link", report.PermalinkURL(w.subreddit, item),
		"notified", notified)
}
