package site

import (
	"time"
)

// Post is a single content unit parsed from a Markdown source file. Once the
// graph barrier completes a Post is treated as immutable; resolvers operate on
// their own body copies.
type Post struct {
	// Slug uniquely identifies the post across the whole collection and
	// forms its output path. Derived from the source path unless the front
	// matter provides an explicit override.
	Slug        string
	Title       string
	Summary     string
	PublishedAt time.Time
	Draft       bool
	Series      string
	Tags        []string
	// Category is the optional URL path prefix derived from the source
	// file's directory.
	Category string
	// SourcePath is the slash-separated path of the originating file,
	// relative to the content root.
	SourcePath string
	// Body holds the raw Markdown text, owned exclusively by the Post.
	// After reference resolution it contains rewritten link targets.
	Body []byte
	// Checksum is the SHA-256 digest of the original file content.
	Checksum string
	Custom   map[string]any
}

// SeriesGroup is derived from the post collection on every build; it is never
// authored or persisted directly.
type SeriesGroup struct {
	Name string
	// Members are ordered by PublishedAt ascending, slug lexicographic on
	// ties, so a series reads front to back in authored order.
	Members []*Post
}

// TagBucket lists the posts carrying one tag, ordered by PublishedAt
// descending (most recent first), slug lexicographic on ties.
type TagBucket struct {
	Name  string
	Posts []*Post
}
