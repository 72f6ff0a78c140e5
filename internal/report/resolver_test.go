package report

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modwatch/modwatch-go/internal/reddit"
)

// fakeChain serves a comment chain rooted at a single submission. Comments
// are keyed by fullname; each comment's ParentID points one level up.
type fakeChain struct {
	submission *reddit.Submission
	comments   map[string]*reddit.Comment
	parents    int
	refreshes  int
}

func (f *fakeChain) Parent(_ context.Context, c *reddit.Comment) (reddit.Item, error) {
	f.parents++
	if c.IsRoot() {
		return f.submission, nil
	}
	parent, ok := f.comments[c.ParentID]
	if !ok {
		return nil, fmt.Errorf("parent %s not found", c.ParentID)
	}
	return parent, nil
}

func (f *fakeChain) Refresh(_ context.Context, c *reddit.Comment) (*reddit.Comment, error) {
	f.refreshes++
	return c, nil
}

// buildChain creates a submission titled title with a comment chain depth
// levels deep, returning the chain and the deepest comment.
func buildChain(title string, depth int) (*fakeChain, *reddit.Comment) {
	chain := &fakeChain{
		submission: &reddit.Submission{
			ReportedThing: reddit.ReportedThing{Name: "t3_root"},
			Title:         title,
		},
		comments: make(map[string]*reddit.Comment),
	}

	parentID := "t3_root"
	var deepest *reddit.Comment
	for i := 0; i < depth; i++ {
		name := fmt.Sprintf("t1_c%d", i)
		c := &reddit.Comment{
			ReportedThing: reddit.ReportedThing{Name: name},
			Body:          fmt.Sprintf("comment %d", i),
			ParentID:      parentID,
			LinkID:        "t3_root",
		}
		chain.comments[name] = c
		parentID = name
		deepest = c
	}
	return chain, deepest
}

func TestRootContextSubmission(t *testing.T) {
	r := NewResolver(&fakeChain{})
	s := &reddit.Submission{
		ReportedThing: reddit.ReportedThing{Name: "t3_abc"},
		Title:         "Post title",
		SelfText:      "post body",
	}

	rc, err := r.RootContext(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Post title", rc.Title)
	assert.Equal(t, "post body", rc.Excerpt)
}

func TestRootContextCommentDepths(t *testing.T) {
	for _, depth := range []int{1, 2, 5, 12} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			chain, deepest := buildChain("T", depth)
			r := NewResolver(chain)

			rc, err := r.RootContext(context.Background(), deepest)
			require.NoError(t, err)
			assert.Equal(t, "T", rc.Title)
			assert.Equal(t, deepest.Body, rc.Excerpt)
		})
	}
}

func TestRootContextRefreshPolicy(t *testing.T) {
	// A chain 12 deep needs 11 parent hops to reach the root comment;
	// refreshes happen on hops 0 and 9.
	chain, deepest := buildChain("T", 12)
	r := NewResolver(chain)

	_, err := r.RootContext(context.Background(), deepest)
	require.NoError(t, err)
	assert.Equal(t, 2, chain.refreshes)
}

func TestRootContextTitleCache(t *testing.T) {
	chain, deepest := buildChain("T", 3)
	r := NewResolver(chain)

	_, err := r.RootContext(context.Background(), deepest)
	require.NoError(t, err)
	firstCalls := chain.parents

	// A second report in the same thread resolves from cache.
	sibling := chain.comments["t1_c0"]
	rc, err := r.RootContext(context.Background(), sibling)
	require.NoError(t, err)
	assert.Equal(t, "T", rc.Title)
	assert.Equal(t, firstCalls, chain.parents)
}

func TestRootContextHopLimit(t *testing.T) {
	chain, deepest := buildChain("T", maxAncestorHops+5)
	r := NewResolver(chain)

	_, err := r.RootContext(context.Background(), deepest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestRootContextPropagatesClientErrors(t *testing.T) {
	chain, deepest := buildChain("T", 3)
	// break the chain
	delete(chain.comments, "t1_c1")
	r := NewResolver(chain)

	_, err := r.RootContext(context.Background(), deepest)
	require.Error(t, err)
}

func TestRootContextCommentExcerptTruncated(t *testing.T) {
	chain, deepest := buildChain("T", 1)
	long := ""
	for i := 0; i < ExcerptLimit+10; i++ {
		long += "y"
	}
	deepest.Body = long

	r := NewResolver(chain)
	rc, err := r.RootContext(context.Background(), deepest)
	require.NoError(t, err)
	assert.Len(t, rc.Excerpt, ExcerptLimit+3)
}
