// Package notification renders reports into webhook embed documents and
// dispatches them to the configured endpoint.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/modwatch/modwatch-go/internal/errors"
	"github.com/modwatch/modwatch-go/internal/reddit"
	"github.com/modwatch/modwatch-go/internal/report"
)

const (
	// embedColor is the accent color of report notifications.
	embedColor = 0xEE4433

	footerText    = "Powered by modwatch"
	footerIconURL = "https://raw.githubusercontent.com/golang/go/master/doc/gopher/frontpage.png"
	thumbnailURL  = "https://www.redditstatic.com/new-icon.png"

	profileURLPrefix = "https://reddit.com/u/"
)

// Embed is the notification document delivered to the webhook. Built fresh
// per report, never persisted.
type Embed struct {
	Title     string          `json:"title"`
	URL       string          `json:"url,omitempty"`
	Color     int             `json:"color,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Author    *EmbedAuthor    `json:"author,omitempty"`
	Fields    []EmbedField    `json:"fields,omitempty"`
	Footer    *EmbedFooter    `json:"footer,omitempty"`
	Thumbnail *EmbedThumbnail `json:"thumbnail,omitempty"`
}

// EmbedAuthor identifies the reported content's author.
type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedField is a titled section of the embed body.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EmbedFooter carries the static attribution branding.
type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedThumbnail is the embed's thumbnail image.
type EmbedThumbnail struct {
	URL string `json:"url"`
}

// ContextResolver resolves the display context of a report.
type ContextResolver interface {
	RootContext(ctx context.Context, item reddit.Item) (report.RootContext, error)
}

// UserLookup fetches author profile attributes.
type UserLookup interface {
	User(ctx context.Context, name string) (*reddit.Author, error)
}

// Builder renders reports into embeds.
type Builder struct {
	resolver  ContextResolver
	users     UserLookup
	subreddit string
	titleCase cases.Caser
	now       func() time.Time
}

// NewBuilder creates an embed builder for the given community.
func NewBuilder(resolver ContextResolver, users UserLookup, subreddit string) *Builder {
	return &Builder{
		resolver:  resolver,
		users:     users,
		subreddit: subreddit,
		titleCase: cases.Title(language.English),
		now:       time.Now,
	}
}

// Build renders a report into an embed document. Title, link, timestamp,
// content and account fields are always present; the mod and user report
// fields appear only when non-empty.
func (b *Builder) Build(ctx context.Context, item reddit.Item) (*Embed, error) {
	thing := item.Thing()

	author, err := b.users.User(ctx, thing.Author)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryNotification).
			Context("author", thing.Author).
			Build()
	}

	rootCtx, err := b.resolver.RootContext(ctx, item)
	if err != nil {
		return nil, err
	}

	embed := &Embed{
		Title:     fmt.Sprintf("A %s by %s has been reported", item.Kind(), author.Name),
		URL:       report.PermalinkURL(b.subreddit, item),
		Color:     embedColor,
		Timestamp: thing.CreatedUTC.Format(time.RFC3339),
		Author: &EmbedAuthor{
			Name:    author.Name,
			URL:     profileURLPrefix + author.Name,
			IconURL: author.IconURL,
		},
		Footer:    &EmbedFooter{Text: footerText, IconURL: footerIconURL},
		Thumbnail: &EmbedThumbnail{URL: thumbnailURL},
	}

	// Content field. Values are JSON-quoted so embedded quotes and newlines
	// render safely in the webhook client.
	embed.Fields = append(embed.Fields, EmbedField{
		Name:  jsonQuote(rootCtx.Title),
		Value: jsonQuote(rootCtx.Excerpt),
	})

	if field, ok := reportReasonsField("Mod Reports", thing.ModReports); ok {
		embed.Fields = append(embed.Fields, field)
	}
	if field, ok := reportReasonsField("User Reports", thing.UserReports); ok {
		embed.Fields = append(embed.Fields, field)
	}

	embed.Fields = append(embed.Fields, b.accountField(item.Kind(), author))

	return embed, nil
}

// reportReasonsField renders a report reason list as a field with one
// "reason - by" line per entry. Empty lists produce no field.
func reportReasonsField(name string, reasons []reddit.ReportReason) (EmbedField, bool) {
	if len(reasons) == 0 {
		return EmbedField{}, false
	}
	lines := make([]string, 0, len(reasons))
	for _, r := range reasons {
		lines = append(lines, fmt.Sprintf("%s - %s", r.Reason, r.By))
	}
	return EmbedField{Name: name, Value: strings.Join(lines, "\n")}, true
}

// accountField summarizes the author's account: humanized age and karma.
func (b *Builder) accountField(kind reddit.Kind, author *reddit.Author) EmbedField {
	age := humanize.RelTime(author.CreatedUTC, b.now(), "ago", "from now")
	lines := []string{
		fmt.Sprintf("Account created %s", age),
		fmt.Sprintf("Link karma: %d", author.LinkKarma),
		fmt.Sprintf("Comment karma: %d", author.CommentKarma),
	}
	return EmbedField{
		Name:  fmt.Sprintf("%s posted by %s", b.titleCase.String(kind.String()), author.Name),
		Value: strings.Join(lines, "\n"),
	}
}

// jsonQuote renders s as a JSON string literal, escaping quotes and newlines.
func jsonQuote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string cannot fail; keep the raw text if it
		// somehow does.
		return s
	}
	return string(data)
}
