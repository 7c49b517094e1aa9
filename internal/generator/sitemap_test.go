package generator

import (
	"strings"
	"testing"
	"time"
)

func TestBuildSitemap(t *testing.T) {
	published := time.Date(2023, 2, 2, 10, 0, 0, 0, time.UTC)
	out := buildSitemap("https://example.com/", []sitemapEntry{
		{Location: "/posts/zeta/", LastMod: published},
		{Location: "/posts/alpha/"},
		{Location: "/posts/alpha/"},
		{Location: ""},
	})

	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing XML declaration:\n%s", out)
	}
	if strings.Count(out, "<loc>https://example.com/posts/alpha/</loc>") != 1 {
		t.Fatalf("duplicate locations must collapse:\n%s", out)
	}
	if !strings.Contains(out, "<loc>https://example.com/</loc>") {
		t.Fatalf("empty route must map to the site root:\n%s", out)
	}
	if !strings.Contains(out, "<lastmod>2023-02-02T10:00:00Z</lastmod>") {
		t.Fatalf("expected RFC 3339 lastmod:\n%s", out)
	}

	alpha := strings.Index(out, "posts/alpha")
	zeta := strings.Index(out, "posts/zeta")
	if alpha < 0 || zeta < 0 || alpha > zeta {
		t.Fatalf("locations must be sorted:\n%s", out)
	}
}

func TestBuildSitemapDefaultBase(t *testing.T) {
	out := buildSitemap("", []sitemapEntry{{Location: "/about/"}})
	if !strings.Contains(out, "<loc>http://localhost/about/</loc>") {
		t.Fatalf("expected localhost fallback base:\n%s", out)
	}
}

func TestBuildRobots(t *testing.T) {
	out := buildRobots("https://example.com", true)
	if !strings.Contains(out, "User-agent: *\nAllow: /\n") {
		t.Fatalf("unexpected robots body:\n%s", out)
	}
	if !strings.Contains(out, "Sitemap: https://example.com/sitemap.xml") {
		t.Fatalf("expected sitemap link:\n%s", out)
	}

	bare := buildRobots("https://example.com", false)
	if strings.Contains(bare, "Sitemap:") {
		t.Fatalf("sitemap link must be optional:\n%s", bare)
	}
}
