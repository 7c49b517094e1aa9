package generator

import (
	"path"
	"strings"

	"github.com/goliatone/go-sitegen/internal/site"
)

// Output layout is a pure function of slug and taxonomy so two builds of the
// same input agree byte for byte on structure.

func postOutputPath(post *site.Post) string {
	if post.Category != "" {
		return path.Join(post.Category, post.Slug, "index.html")
	}
	return path.Join("posts", post.Slug, "index.html")
}

// PostURL returns the root-relative URL for a post, used both by index pages
// and by rewritten cross-references.
func PostURL(post *site.Post) string {
	return "/" + strings.TrimSuffix(postOutputPath(post), "index.html")
}

func seriesOutputPath(name string) string {
	return path.Join("series", taxonomySlug(name), "index.html")
}

func seriesURL(name string) string {
	return "/" + strings.TrimSuffix(seriesOutputPath(name), "index.html")
}

func tagOutputPath(name string) string {
	return path.Join("tags", taxonomySlug(name), "index.html")
}

func tagURL(name string) string {
	return "/" + strings.TrimSuffix(tagOutputPath(name), "index.html")
}

// taxonomySlug normalises a display name ("Design Patterns") into a URL
// segment. Normalisation failures fall back to a lowercase hyphenation so an
// odd tag never aborts a build over its URL.
func taxonomySlug(name string) string {
	normalized, err := site.NormalizeSlug(name)
	if err != nil || normalized == "" {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	}
	return normalized
}
