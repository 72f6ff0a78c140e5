package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modwatch/modwatch-go/internal/reddit"
	"github.com/modwatch/modwatch-go/internal/report"
)

type fakeResolver struct {
	rootCtx report.RootContext
	err     error
	calls   int
}

func (f *fakeResolver) RootContext(_ context.Context, _ reddit.Item) (report.RootContext, error) {
	f.calls++
	return f.rootCtx, f.err
}

type fakeUsers struct {
	authors map[string]*reddit.Author
	err     error
}

func (f *fakeUsers) User(_ context.Context, name string) (*reddit.Author, error) {
	if f.err != nil {
		return nil, f.err
	}
	author, ok := f.authors[name]
	if !ok {
		return nil, assert.AnError
	}
	return author, nil
}

func testAuthor(name string, created time.Time) *reddit.Author {
	return &reddit.Author{
		Name:         name,
		CreatedUTC:   created,
		LinkKarma:    150,
		CommentKarma: 4200,
		IconURL:      "https://example.com/avatar.png",
	}
}

func fieldByName(t *testing.T, embed *Embed, name string) (EmbedField, bool) {
	t.Helper()
	for _, f := range embed.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return EmbedField{}, false
}

func TestBuildSubmissionEmbed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2024, 4, 30, 10, 30, 0, 0, time.UTC)

	item := &reddit.Submission{
		ReportedThing: reddit.ReportedThing{
			ID:         "abc123",
			Name:       "t3_abc123",
			Author:     "spammy",
			CreatedUTC: created,
			Permalink:  "/r/testsub/comments/abc123/some_post/",
			ModReports: []reddit.ReportReason{{Reason: "spam", By: "mod1"}},
		},
		Title:    "Some post",
		SelfText: "Buy cheap widgets now",
	}

	resolver := &fakeResolver{rootCtx: report.RootContext{
		Title:   "Some post",
		Excerpt: "Buy cheap widgets now",
	}}
	users := &fakeUsers{authors: map[string]*reddit.Author{
		"spammy": testAuthor("spammy", now.AddDate(-2, 0, 0)),
	}}

	b := NewBuilder(resolver, users, "testsub")
	b.now = func() time.Time { return now }

	embed, err := b.Build(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, "A submission by spammy has been reported", embed.Title)
	assert.Equal(t, "https://www.reddit.com/r/testsub/comments/abc123/some_post/", embed.URL)
	assert.Equal(t, embedColor, embed.Color)
	assert.Equal(t, created.Format(time.RFC3339), embed.Timestamp)

	require.NotNil(t, embed.Author)
	assert.Equal(t, "spammy", embed.Author.Name)
	assert.Equal(t, "https://reddit.com/u/spammy", embed.Author.URL)

	require.NotEmpty(t, embed.Fields)
	content := embed.Fields[0]
	assert.Equal(t, `"Some post"`, content.Name)
	assert.Equal(t, `"Buy cheap widgets now"`, content.Value)

	modField, ok := fieldByName(t, embed, "Mod Reports")
	require.True(t, ok)
	assert.Equal(t, "spam - mod1", modField.Value)

	_, ok = fieldByName(t, embed, "User Reports")
	assert.False(t, ok, "empty user report list must not produce a field")

	account, ok := fieldByName(t, embed, "Submission posted by spammy")
	require.True(t, ok)
	assert.Contains(t, account.Value, "Account created 2 years ago")
	assert.Contains(t, account.Value, "Link karma: 150")
	assert.Contains(t, account.Value, "Comment karma: 4200")

	require.NotNil(t, embed.Footer)
	assert.Equal(t, footerText, embed.Footer.Text)
}

func TestBuildCommentEmbed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	item := &reddit.Comment{
		ReportedThing: reddit.ReportedThing{
			ID:         "def456",
			Name:       "t1_def456",
			Author:     "replyguy",
			CreatedUTC: now.Add(-time.Hour),
			Permalink:  "/r/testsub/comments/abc123/some_post/def456/",
			ModReports: []reddit.ReportReason{
				{Reason: "harassment", By: "mod1"},
				{Reason: "spam", By: "mod2"},
			},
			UserReports: []reddit.ReportReason{{Reason: "rude", By: "3"}},
		},
		Body:     "An unkind reply",
		ParentID: "t3_abc123",
		LinkID:   "t3_abc123",
	}

	resolver := &fakeResolver{rootCtx: report.RootContext{
		Title:   "Some post",
		Excerpt: "An unkind reply",
	}}
	users := &fakeUsers{authors: map[string]*reddit.Author{
		"replyguy": testAuthor("replyguy", now.AddDate(0, -3, 0)),
	}}

	b := NewBuilder(resolver, users, "testsub")
	b.now = func() time.Time { return now }

	embed, err := b.Build(context.Background(), item)
	require.NoError(t, err)

	assert.Equal(t, "A comment by replyguy has been reported", embed.Title)
	assert.Equal(t, 1, resolver.calls, "comment context resolved through the resolver")

	modField, ok := fieldByName(t, embed, "Mod Reports")
	require.True(t, ok)
	assert.Equal(t, "harassment - mod1\nspam - mod2", modField.Value)

	userField, ok := fieldByName(t, embed, "User Reports")
	require.True(t, ok)
	assert.Equal(t, "rude - 3", userField.Value)

	_, ok = fieldByName(t, embed, "Comment posted by replyguy")
	assert.True(t, ok)
}

func TestBuildNoReportFields(t *testing.T) {
	item := &reddit.Submission{
		ReportedThing: reddit.ReportedThing{
			Name:       "t3_xyz",
			Author:     "quiet",
			CreatedUTC: time.Now(),
			Permalink:  "/r/testsub/comments/xyz/post/",
		},
		Title: "Post",
	}

	resolver := &fakeResolver{rootCtx: report.RootContext{Title: "Post", Excerpt: ""}}
	users := &fakeUsers{authors: map[string]*reddit.Author{
		"quiet": testAuthor("quiet", time.Now().AddDate(-1, 0, 0)),
	}}

	embed, err := NewBuilder(resolver, users, "testsub").Build(context.Background(), item)
	require.NoError(t, err)

	_, ok := fieldByName(t, embed, "Mod Reports")
	assert.False(t, ok)
	_, ok = fieldByName(t, embed, "User Reports")
	assert.False(t, ok)
	// Content and account fields are always present.
	assert.Len(t, embed.Fields, 2)
}

func TestBuildQuotesContent(t *testing.T) {
	item := &reddit.Submission{
		ReportedThing: reddit.ReportedThing{
			Name:       "t3_q1",
			Author:     "quoter",
			CreatedUTC: time.Now(),
			Permalink:  "/r/testsub/comments/q1/post/",
		},
	}

	resolver := &fakeResolver{rootCtx: report.RootContext{
		Title:   `He said "hello"`,
		Excerpt: "line one\nline two",
	}}
	users := &fakeUsers{authors: map[string]*reddit.Author{
		"quoter": testAuthor("quoter", time.Now().AddDate(0, -1, 0)),
	}}

	embed, err := NewBuilder(resolver, users, "testsub").Build(context.Background(), item)
	require.NoError(t, err)

	content := embed.Fields[0]
	assert.Equal(t, `"He said \"hello\""`, content.Name)
	assert.Equal(t, `"line one\nline two"`, content.Value)
}

func TestBuildUserLookupError(t *testing.T) {
	item := &reddit.Submission{
		ReportedThing: reddit.ReportedThing{Name: "t3_err", Author: "ghost"},
	}

	resolver := &fakeResolver{}
	users := &fakeUsers{err: assert.AnError}

	_, err := NewBuilder(resolver, users, "testsub").Build(context.Background(), item)
	require.Error(t, err)
	assert.Zero(t, resolver.calls, "context resolution skipped when the author lookup fails")
}

func TestBuildResolverError(t *testing.T) {
	item := &reddit.Comment{
		ReportedThing: reddit.ReportedThing{Name: "t1_err", Author: "someone"},
		ParentID:      "t1_parent",
		LinkID:        "t3_root",
	}

	resolver := &fakeResolver{err: assert.AnError}
	users := &fakeUsers{authors: map[string]*reddit.Author{
		"someone": testAuthor("someone", time.Now().AddDate(-1, 0, 0)),
	}}

	_, err := NewBuilder(resolver, users, "testsub").Build(context.Background(), item)
	assert.Error(t, err)
}
