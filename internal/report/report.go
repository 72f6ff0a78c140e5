// Package report derives presentation metadata from reported content: stable
// identity keys, absolute permalinks, body excerpts and the root submission
// context of nested comments.
package report

import (
	"fmt"
	"strings"

	"github.com/modwatch/modwatch-go/internal/reddit"
)

const (
	// baseURL is the public site prefix for permalinks.
	baseURL = "https://www.reddit.com"

	// ExcerptLimit is the maximum excerpt length in characters before
	// truncation.
	ExcerptLimit = 120

	// ellipsis marks a truncated excerpt.
	ellipsis = "..."
)

// IdentityKey returns the stable unique key of a report, used for both
// persistence and dedup lookups. The platform fullname is reproducible
// across process restarts.
func IdentityKey(item reddit.Item) string {
	return item.Thing().Name
}

// PermalinkURL builds the absolute URL of a report from its site-relative
// permalink.
func PermalinkURL(subreddit string, item reddit.Item) string {
	p := item.Thing().Permalink
	if strings.HasPrefix(p, "/") {
		return baseURL + p
	}
	return fmt.Sprintf("%s/r/%s/%s", baseURL, subreddit, p)
}

// Excerpt returns body unchanged when it fits ExcerptLimit characters,
// otherwise the first ExcerptLimit characters followed by an ellipsis.
func Excerpt(body string) string {
	runes := []rune(body)
	if len(runes) <= ExcerptLimit {
		return body
	}
	return string(runes[:ExcerptLimit]) + ellipsis
}
