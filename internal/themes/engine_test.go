package themes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-sitegen/internal/generator"
)

func postContext() generator.TemplateContext {
	return generator.TemplateContext{
		Site: generator.SiteMetadata{Title: "Example Site"},
		Page: generator.PageContext{
			Kind:  "post",
			Title: "Hello World",
			URL:   "/posts/hello-world/",
			Post: &generator.PostView{
				Slug:        "hello-world",
				Title:       "Hello World",
				URL:         "/posts/hello-world/",
				PublishedAt: time.Date(2023, 2, 2, 0, 0, 0, 0, time.UTC),
				Content:     "<p>Body</p>",
			},
		},
	}
}

func TestEngineRenderPost(t *testing.T) {
	engine, err := NewEngine(Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	html, err := engine.RenderTemplate("post", postContext())
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}

	for _, fragment := range []string{
		"<title>Hello World | Example Site</title>",
		"<h1>Hello World</h1>",
		`datetime="2023-02-02"`,
		"<p>Body</p>",
	} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in rendered page:\n%s", fragment, html)
		}
	}
}

func TestEngineRenderTemplate_Unknown(t *testing.T) {
	engine, err := NewEngine(Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if _, err := engine.RenderTemplate("nope", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestEngineLayoutOverride(t *testing.T) {
	dir := t.TempDir()
	override := `{{define "post"}}override: {{.Page.Title}}{{end}}`
	if err := os.WriteFile(filepath.Join(dir, "post.html"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	engine, err := NewEngine(Config{LayoutsDir: dir})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	html, err := engine.RenderTemplate("post", postContext())
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if html != "override: Hello World" {
		t.Fatalf("expected override layout to win, got %q", html)
	}
}

func TestEngineRenderString(t *testing.T) {
	engine, err := NewEngine(Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	out, err := engine.RenderString(`Hello {{lower "WORLD"}}`, nil)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "Hello world" {
		t.Fatalf("RenderString = %q", out)
	}
}
