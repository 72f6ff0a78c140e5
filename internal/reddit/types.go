// Package reddit implements the moderation-report feed client: OAuth
// authentication, report listing fetches, parent lookups and the pull-based
// report stream.
package reddit

import (
	"strings"
	"time"
)

// Kind discriminates the two reportable content types.
type Kind int

const (
	KindSubmission Kind = iota
	KindComment
)

// String returns the lowercase name used in notifications and logs.
func (k Kind) String() string {
	switch k {
	case KindSubmission:
		return "submission"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Fullname prefixes used by the platform to type its identifiers.
const (
	prefixComment    = "t1_"
	prefixSubmission = "t3_"
)

// ReportReason is a single report entry: the free-text reason and who filed it.
type ReportReason struct {
	Reason string
	By     string
}

// Author holds the profile attributes of a content author. Fetched separately
// from the report listing via the user endpoint.
type Author struct {
	Name         string
	CreatedUTC   time.Time
	LinkKarma    int
	CommentKarma int
	IconURL      string
}

// ReportedThing holds the fields shared by reported submissions and comments.
type ReportedThing struct {
	ID          string    // platform id without type prefix, e.g. "abc123"
	Name        string    // fullname with type prefix, e.g. "t3_abc123"
	Author      string    // author account name
	CreatedUTC  time.Time // content creation time
	Permalink   string    // site-relative permalink
	ModReports  []ReportReason
	UserReports []ReportReason
}

// Item is the sum of reportable content types. Exactly two implementations
// exist, *Submission and *Comment; call sites switch exhaustively on the
// concrete type where variant fields are needed.
type Item interface {
	Kind() Kind
	Thing() *ReportedThing
}

// Submission is a reported post.
type Submission struct {
	ReportedThing
	Title    string
	SelfText string
}

// Kind implements Item.
func (s *Submission) Kind() Kind { return KindSubmission }

// Thing implements Item.
func (s *Submission) Thing() *ReportedThing { return &s.ReportedThing }

// Comment is a reported comment. ParentID points at the immediate parent
// (another comment or the submission), LinkID at the root submission.
type Comment struct {
	ReportedThing
	Body     string
	ParentID string
	LinkID   string
}

// Kind implements Item.
func (c *Comment) Kind() Kind { return KindComment }

// Thing implements Item.
func (c *Comment) Thing() *ReportedThing { return &c.ReportedThing }

// IsRoot reports whether the comment is a top-level reply to its submission.
func (c *Comment) IsRoot() bool {
	return strings.HasPrefix(c.ParentID, prefixSubmission)
}
