package generator

import (
	"testing"

	"github.com/goliatone/go-sitegen/internal/site"
)

func TestPostOutputPath(t *testing.T) {
	uncategorized := &site.Post{Slug: "caching-strategies"}
	if got := postOutputPath(uncategorized); got != "posts/caching-strategies/index.html" {
		t.Fatalf("postOutputPath = %q", got)
	}

	categorized := &site.Post{Slug: "setup", Category: "guides"}
	if got := postOutputPath(categorized); got != "guides/setup/index.html" {
		t.Fatalf("postOutputPath with category = %q", got)
	}
}

func TestPostURL(t *testing.T) {
	post := &site.Post{Slug: "caching-strategies"}
	if got := PostURL(post); got != "/posts/caching-strategies/" {
		t.Fatalf("PostURL = %q", got)
	}
	post.Category = "guides"
	if got := PostURL(post); got != "/guides/caching-strategies/" {
		t.Fatalf("PostURL with category = %q", got)
	}
}

func TestTaxonomyPaths(t *testing.T) {
	if got := seriesOutputPath("SOLID Design Principles"); got != "series/solid-design-principles/index.html" {
		t.Fatalf("seriesOutputPath = %q", got)
	}
	if got := seriesURL("SOLID Design Principles"); got != "/series/solid-design-principles/" {
		t.Fatalf("seriesURL = %q", got)
	}
	if got := tagOutputPath("Design Patterns"); got != "tags/design-patterns/index.html" {
		t.Fatalf("tagOutputPath = %q", got)
	}
	if got := tagURL("go"); got != "/tags/go/" {
		t.Fatalf("tagURL = %q", got)
	}
}
