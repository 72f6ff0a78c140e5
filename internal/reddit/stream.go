package reddit

import (
	"context"
	"log/slog"
	"time"

	"github.com/modwatch/modwatch-go/internal/errors"
)

const (
	// seenWindowSize bounds the fullname memory of a stream session.
	seenWindowSize = 301

	// maxConsecutiveFailures is the number of consecutive fetch failures
	// after which the stream is considered unrecoverable.
	maxConsecutiveFailures = 10
)

// Lister is the subset of the feed client the stream needs.
type Lister interface {
	ModReports(ctx context.Context, limit int) ([]Item, error)
}

// Stream is a pull-based generator over the moderation report queue. Next
// blocks until an unseen report is available, polling the listing at the
// configured interval. Items are yielded in arrival order, oldest first.
//
// Not safe for concurrent use; the watcher is the single consumer.
type Stream struct {
	lister   Lister
	interval time.Duration
	limit    int
	log      *slog.Logger

	pending  []Item
	seen     map[string]struct{}
	order    []string // insertion order for window eviction
	failures int
}

// NewStream creates a stream over the given lister.
func NewStream(lister Lister, interval time.Duration, limit int) *Stream {
	return &Stream{
		lister:   lister,
		interval: interval,
		limit:    limit,
		log:      serviceLogger(),
		seen:     make(map[string]struct{}, seenWindowSize),
	}
}

// Next returns the next unseen report. It returns an error only when the
// context is cancelled or the feed has failed maxConsecutiveFailures times in
// a row; transient fetch failures are logged and retried internally.
func (s *Stream) Next(ctx context.Context) (Item, error) {
	for {
		if len(s.pending) > 0 {
			item := s.pending[0]
			s.pending = s.pending[1:]
			return item, nil
		}

		items, err := s.lister.ModReports(ctx, s.limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.failures++
			if s.failures >= maxConsecutiveFailures {
				return nil, errors.New(err).
					Category(errors.CategoryRedditAPI).
					Context("consecutive_failures", s.failures).
					Build()
			}
			s.log.Warn("report listing fetch failed, retrying",
				"error", err,
				"consecutive_failures", s.failures)
		} else {
			s.failures = 0
			s.enqueue(items)
		}

		if len(s.pending) > 0 {
			continue
		}

		select {
		case <-time.After(s.interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// enqueue adds unseen items to the pending queue in arrival order. The
// listing is newest first, so it is walked backwards.
func (s *Stream) enqueue(items []Item) {
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		name := item.Thing().Name
		if _, ok := s.seen[name]; ok {
			continue
		}
		s.remember(name)
		s.pending = append(s.pending, item)
	}
}

// remember records a fullname in the bounded session window.
func (s *Stream) remember(name string) {
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
	if len(s.order) > seenWindowSize {
		delete(s.seen, s.order[0])
		s.order = s.order[1:]
	}
}
