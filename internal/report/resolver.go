package report

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/modwatch/modwatch-go/internal/errors"
	"github.com/modwatch/modwatch-go/internal/reddit"
)

const (
	// refreshEvery controls how often remote state is re-fetched while
	// walking an ancestor chain. Refreshing on every hop would double the
	// request count; never refreshing risks operating on stale parents.
	refreshEvery = 9

	// maxAncestorHops caps chain traversal. The platform has no documented
	// depth limit, so a runaway chain must not hang the watcher.
	maxAncestorHops = 100

	titleCacheTTL     = 30 * time.Minute
	titleCacheCleanup = 10 * time.Minute
)

// AncestorClient is the subset of the feed client the resolver needs.
type AncestorClient interface {
	Parent(ctx context.Context, comment *reddit.Comment) (reddit.Item, error)
	Refresh(ctx context.Context, comment *reddit.Comment) (*reddit.Comment, error)
}

// RootContext is the display context of a report: the title of the containing
// submission and a body excerpt.
type RootContext struct {
	Title   string
	Excerpt string
}

// Resolver resolves the root context of reported content. Submission titles
// discovered by chain traversal are cached per link so repeated reports on
// one thread do not refetch the chain.
type Resolver struct {
	client AncestorClient
	titles *gocache.Cache
}

// NewResolver creates a resolver backed by the given client.
func NewResolver(client AncestorClient) *Resolver {
	return &Resolver{
		client: client,
		titles: gocache.New(titleCacheTTL, titleCacheCleanup),
	}
}

// RootContext returns the display context for a report. A submission is its
// own root; a comment's root is found by walking the parent chain to the
// top-level comment and resolving that comment's parent submission.
func (r *Resolver) RootContext(ctx context.Context, item reddit.Item) (RootContext, error) {
	switch v := item.(type) {
	case *reddit.Submission:
		return RootContext{Title: v.Title, Excerpt: Excerpt(v.SelfText)}, nil
	case *reddit.Comment:
		title, err := r.rootTitle(ctx, v)
		if err != nil {
			return RootContext{}, err
		}
		return RootContext{Title: title, Excerpt: Excerpt(v.Body)}, nil
	default:
		return RootContext{}, errors.Newf("unsupported report type %T", item).
			Category(errors.CategoryValidation).
			Build()
	}
}

// rootTitle returns the title of the submission containing the comment,
// consulting the per-link cache before traversing the ancestor chain.
func (r *Resolver) rootTitle(ctx context.Context, comment *reddit.Comment) (string, error) {
	if comment.LinkID != "" {
		if title, ok := r.titles.Get(comment.LinkID); ok {
			return title.(string), nil
		}
	}

	submission, err := r.rootSubmission(ctx, comment)
	if err != nil {
		return "", err
	}

	if comment.LinkID != "" {
		r.titles.SetDefault(comment.LinkID, submission.Title)
	}
	return submission.Title, nil
}

// rootSubmission walks the parent chain until the top-level comment, then
// resolves that comment's parent, which is the submission. Remote state is
// refreshed every refreshEvery hops, and traversal is capped at
// maxAncestorHops.
func (r *Resolver) rootSubmission(ctx context.Context, comment *reddit.Comment) (*reddit.Submission, error) {
	ancestor := comment
	for hops := 0; !ancestor.IsRoot(); hops++ {
		if hops >= maxAncestorHops {
			return nil, errors.Newf("ancestor chain of %s exceeds %d hops", comment.Name, maxAncestorHops).
				Category(errors.CategoryValidation).
				Context("comment", comment.Name).
				Build()
		}

		parent, err := r.client.Parent(ctx, ancestor)
		if err != nil {
			return nil, err
		}
		next, ok := parent.(*reddit.Comment)
		if !ok {
			// A non-root comment's parent must be a comment; the platform
			// disagreed, so trust it and stop walking.
			break
		}
		ancestor = next

		if hops%refreshEvery == 0 {
			refreshed, err := r.client.Refresh(ctx, ancestor)
			if err != nil {
				return nil, err
			}
			ancestor = refreshed
		}
	}

	parent, err := r.client.Parent(ctx, ancestor)
	if err != nil {
		return nil, err
	}
	submission, ok := parent.(*reddit.Submission)
	if !ok {
		return nil, errors.Newf("root parent of %s is not a submission", comment.Name).
			Category(errors.CategoryRedditAPI).
			Build()
	}
	return submission, nil
}
