package site

import (
	"fmt"
	"sort"
)

// Graph holds the full, immutable post collection for one build invocation
// together with its derived taxonomies. It is constructed once, read by the
// resolver and render stages, and discarded at process exit.
type Graph struct {
	Posts  map[string]*Post
	Series map[string]*SeriesGroup
	Tags   map[string]*TagBucket
}

// BuildGraph aggregates parsed posts into the slug map, series groups, and
// tag index. Duplicate slugs are fatal: output paths would collide, so there
// is no valid recovery. All duplicates found in the collection are reported
// in one pass. Lint findings (duplicate title within a series) surface as
// warnings.
func BuildGraph(posts []*Post) (*Graph, DiagnosticList) {
	graph := &Graph{
		Posts:  make(map[string]*Post, len(posts)),
		Series: map[string]*SeriesGroup{},
		Tags:   map[string]*TagBucket{},
	}

	// Iterate in source path order so duplicate reports are deterministic
	// regardless of how the loader enumerated files.
	ordered := append([]*Post(nil), posts...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SourcePath < ordered[j].SourcePath
	})

	var diags DiagnosticList
	for _, post := range ordered {
		if existing, ok := graph.Posts[post.Slug]; ok {
			diags = append(diags, Diagnostic{
				Kind:   KindDuplicateSlug,
				Path:   existing.SourcePath,
				Slug:   post.Slug,
				Target: post.SourcePath,
				Err:    fmt.Errorf("slug %q claimed by both %s and %s", post.Slug, existing.SourcePath, post.SourcePath),
			})
			continue
		}
		graph.Posts[post.Slug] = post

		if post.Series != "" {
			group := graph.Series[post.Series]
			if group == nil {
				group = &SeriesGroup{Name: post.Series}
				graph.Series[post.Series] = group
			}
			group.Members = append(group.Members, post)
		}

		for _, tag := range post.Tags {
			bucket := graph.Tags[tag]
			if bucket == nil {
				bucket = &TagBucket{Name: tag}
				graph.Tags[tag] = bucket
			}
			bucket.Posts = append(bucket.Posts, post)
		}
	}

	if diags.HasFatal() {
		return nil, diags
	}

	for _, group := range graph.Series {
		sortAscending(group.Members)
	}
	for _, bucket := range graph.Tags {
		sortDescending(bucket.Posts)
	}

	diags = append(diags, lintDuplicateTitles(graph)...)
	return graph, diags
}

// Lookup returns the post registered under slug.
func (g *Graph) Lookup(slug string) (*Post, bool) {
	post, ok := g.Posts[slug]
	return post, ok
}

// Slugs returns every registered slug in lexicographic order.
func (g *Graph) Slugs() []string {
	out := make([]string, 0, len(g.Posts))
	for slug := range g.Posts {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// SeriesNames returns the series identifiers in lexicographic order.
func (g *Graph) SeriesNames() []string {
	out := make([]string, 0, len(g.Series))
	for name := range g.Series {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TagNames returns the tag identifiers in lexicographic order.
func (g *Graph) TagNames() []string {
	out := make([]string, 0, len(g.Tags))
	for name := range g.Tags {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Recent returns all posts ordered by PublishedAt descending, slug
// lexicographic on ties. Used for the home index.
func (g *Graph) Recent() []*Post {
	out := make([]*Post, 0, len(g.Posts))
	for _, post := range g.Posts {
		out = append(out, post)
	}
	sortDescending(out)
	return out
}

// Series members read front to back in authored order; tag listings read as
// "recent first". Slug breaks ties in both directions for determinism.
func sortAscending(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].Slug < posts[j].Slug
		}
		return posts[i].PublishedAt.Before(posts[j].PublishedAt)
	})
}

func sortDescending(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].Slug < posts[j].Slug
		}
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
}
