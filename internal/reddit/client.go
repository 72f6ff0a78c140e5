package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/modwatch/modwatch-go/internal/conf"
	"github.com/modwatch/modwatch-go/internal/errors"
	"github.com/modwatch/modwatch-go/internal/httpclient"
	"github.com/modwatch/modwatch-go/internal/logging"
)

const (
	defaultAPIBase  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// maxRatelimitWait bounds how long a 429 response can stall a request.
	maxRatelimitWait = 60 * time.Second
)

// Client is the moderation-report feed client. It owns the OAuth token
// source and the HTTP connection pool; a single instance is constructed at
// startup and shared by the stream and the ancestor resolver.
type Client struct {
	subreddit string
	http      *httpclient.Client
	tokens    oauth2.TokenSource
	apiBase   string
	log       *slog.Logger
}

// NewClient creates a feed client from the application settings. The
// credentials are passed through to the OAuth token source unchanged.
func NewClient(settings *conf.Settings) *Client {
	hcfg := httpclient.DefaultConfig()
	hcfg.UserAgent = settings.Reddit.UserAgent
	hc := httpclient.New(&hcfg)

	oauthCfg := &oauth2.Config{
		ClientID:     settings.Reddit.ClientID,
		ClientSecret: settings.Reddit.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  defaultTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	// The token source refreshes and caches access tokens as needed.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, hc.Underlying())
	tokens := oauthCfg.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: settings.Reddit.RefreshToken})

	return &Client{
		subreddit: settings.Subreddit,
		http:      hc,
		tokens:    tokens,
		apiBase:   defaultAPIBase,
		log:       serviceLogger(),
	}
}

// serviceLogger returns the shared structured logger for this package,
// falling back to the process default when logging is not initialized.
func serviceLogger() *slog.Logger {
	if l := logging.ForService("reddit"); l != nil {
		return l
	}
	return slog.Default().With("service", "reddit")
}

// Subreddit returns the community this client is bound to.
func (c *Client) Subreddit() string {
	return c.subreddit
}

// Close releases the client's connection pool.
func (c *Client) Close() {
	c.http.Close()
}

// ModReports fetches the subreddit's moderation report queue, newest first.
func (c *Client) ModReports(ctx context.Context, limit int) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/r/%s/about/reports?limit=%d&raw_json=1", c.apiBase, url.PathEscape(c.subreddit), limit)

	var listing listingEnvelope
	if err := c.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryRedditAPI).
			Context("subreddit", c.subreddit).
			Build()
	}

	items := make([]Item, 0, len(listing.Data.Children))
	for i := range listing.Data.Children {
		item, err := listing.Data.Children[i].toItem()
		if err != nil {
			c.log.Warn("skipping unparsable report listing entry", "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Info resolves a single thing by fullname. Used for ancestor lookups and
// comment refreshes.
func (c *Client) Info(ctx context.Context, fullname string) (Item, error) {
	endpoint := fmt.Sprintf("%s/api/info?id=%s&raw_json=1", c.apiBase, url.QueryEscape(fullname))

	var listing listingEnvelope
	if err := c.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryRedditAPI).
			Context("fullname", fullname).
			Build()
	}
	if len(listing.Data.Children) == 0 {
		return nil, errors.Newf("thing %s not found", fullname).
			Category(errors.CategoryNotFound).
			Build()
	}
	return listing.Data.Children[0].toItem()
}

// Parent resolves the immediate parent of a comment.
func (c *Client) Parent(ctx context.Context, comment *Comment) (Item, error) {
	return c.Info(ctx, comment.ParentID)
}

// Refresh re-fetches a comment, replacing any stale cached state.
func (c *Client) Refresh(ctx context.Context, comment *Comment) (*Comment, error) {
	item, err := c.Info(ctx, comment.Name)
	if err != nil {
		return nil, err
	}
	refreshed, ok := item.(*Comment)
	if !ok {
		return nil, errors.Newf("refresh of %s returned a %s", comment.Name, item.Kind()).
			Category(errors.CategoryRedditAPI).
			Build()
	}
	return refreshed, nil
}

// User fetches the profile attributes of an account.
func (c *Client) User(ctx context.Context, name string) (*Author, error) {
	endpoint := fmt.Sprintf("%s/user/%s/about?raw_json=1", c.apiBase, url.PathEscape(name))

	var envelope struct {
		Data userData `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryRedditAPI).
			Context("user", name).
			Build()
	}

	return &Author{
		Name:         envelope.Data.Name,
		CreatedUTC:   fromEpoch(envelope.Data.CreatedUTC),
		LinkKarma:    envelope.Data.LinkKarma,
		CommentKarma: envelope.Data.CommentKarma,
		IconURL:      envelope.Data.IconImg,
	}, nil
}

// getJSON performs an authorized GET and decodes the JSON response body.
// A single 429 response is retried after the advertised ratelimit reset.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if err := c.authorize(req); err != nil {
			return err
		}

		resp, err := c.http.Do(ctx, req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			wait := ratelimitWait(resp)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			c.log.Warn("rate limited by API, backing off", "wait", wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
}

// authorize attaches a bearer token from the token source. A nil token source
// leaves the request unauthenticated; tests rely on this.
func (c *Client) authorize(req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return errors.New(fmt.Errorf("failed to obtain access token: %w", err)).
			Category(errors.CategoryRedditAuth).
			Build()
	}
	tok.SetAuthHeader(req)
	return nil
}

// ratelimitWait derives the backoff from the ratelimit reset header, bounded
// by maxRatelimitWait.
func ratelimitWait(resp *http.Response) time.Duration {
	if v := resp.Header.Get("X-Ratelimit-Reset"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			wait := time.Duration(secs * float64(time.Second))
			if wait > maxRatelimitWait {
				return maxRatelimitWait
			}
			return wait
		}
	}
	return 10 * time.Second
}

// --- wire format ---

type listingEnvelope struct {
	Data struct {
		Children []thingEnvelope `json:"children"`
	} `json:"data"`
}

type thingEnvelope struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

type thingData struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Author      string               `json:"author"`
	CreatedUTC  float64              `json:"created_utc"`
	Permalink   string               `json:"permalink"`
	Title       string               `json:"title"`
	SelfText    string               `json:"selftext"`
	Body        string               `json:"body"`
	ParentID    string               `json:"parent_id"`
	LinkID      string               `json:"link_id"`
	ModReports  [][2]json.RawMessage `json:"mod_reports"`
	UserReports [][2]json.RawMessage `json:"user_reports"`
}

type userData struct {
	Name         string  `json:"name"`
	CreatedUTC   float64 `json:"created_utc"`
	LinkKarma    int     `json:"link_karma"`
	CommentKarma int     `json:"comment_karma"`
	IconImg      string  `json:"icon_img"`
}

// toItem converts a wire thing into the matching domain type.
func (t *thingEnvelope) toItem() (Item, error) {
	common := ReportedThing{
		ID:          t.Data.ID,
		Name:        t.Data.Name,
		Author:      t.Data.Author,
		CreatedUTC:  fromEpoch(t.Data.CreatedUTC),
		Permalink:   t.Data.Permalink,
		ModReports:  decodeReportPairs(t.Data.ModReports),
		UserReports: decodeReportPairs(t.Data.UserReports),
	}

	switch t.Kind {
	case "t3":
		return &Submission{
			ReportedThing: common,
			Title:         t.Data.Title,
			SelfText:      t.Data.SelfText,
		}, nil
	case "t1":
		return &Comment{
			ReportedThing: common,
			Body:          t.Data.Body,
			ParentID:      t.Data.ParentID,
			LinkID:        t.Data.LinkID,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported thing kind %q", t.Kind)
	}
}

// decodeReportPairs converts the wire report tuples into ReportReasons.
// Mod report tuples carry the moderator name, user report tuples a count;
// both render through the same "reason - by" shape.
func decodeReportPairs(pairs [][2]json.RawMessage) []ReportReason {
	if len(pairs) == 0 {
		return nil
	}
	reasons := make([]ReportReason, 0, len(pairs))
	for i := range pairs {
		reasons = append(reasons, ReportReason{
			Reason: decodeReportField(pairs[i][0]),
			By:     decodeReportField(pairs[i][1]),
		})
	}
	return reasons
}

// decodeReportField renders a report tuple element, which may be a string,
// a number or null on the wire.
func decodeReportField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == math.Trunc(n) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strings.Trim(string(raw), `"`)
}

// fromEpoch converts epoch seconds (possibly fractional) to time.Time.
func fromEpoch(secs float64) time.Time {
	if secs == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(secs)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
