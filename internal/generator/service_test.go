package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-sitegen/internal/markdown"
	"github.com/goliatone/go-sitegen/internal/site"
	"github.com/goliatone/go-sitegen/internal/themes"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

func testContent() fstest.MapFS {
	return fstest.MapFS{
		"first-steps.md": &fstest.MapFile{Data: []byte(`---
title: First Steps
date: "2023-02-02"
series: SOLID Design Principles
tags: [go, Design Patterns]
---
Opening post. See {{< ref "interface-segregation" >}}.
`)},
		"interface-segregation.md": &fstest.MapFile{Data: []byte(`---
title: Interface Segregation
date: "2023-04-01"
series: SOLID Design Principles
tags: [go]
---
Middle post.
`)},
		"dependency-inversion.md": &fstest.MapFile{Data: []byte(`---
title: Dependency Inversion
date: "2023-05-04"
series: SOLID Design Principles
tags: [Design Patterns]
---
Closing post.
`)},
		"guides/unpublished.md": &fstest.MapFile{Data: []byte(`---
title: Unpublished Guide
date: "2023-06-01"
draft: true
---
Not ready yet.
`)},
	}
}

type testEnv struct {
	cfg     Config
	content fstest.MapFS
}

func (e testEnv) build(t *testing.T) (*BuildResult, error) {
	t.Helper()

	engine, err := themes.NewEngine(themes.Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	store, err := NewFSStore(e.cfg.OutputDir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	service := NewService(e.cfg, Dependencies{
		ContentFS: e.content,
		Parser:    markdown.NewGoldmarkParser(interfaces.ParseOptions{}),
		Renderer:  engine,
		Store:     store,
	})
	return service.Build(context.Background(), BuildOptions{})
}

func newEnv(t *testing.T, content fstest.MapFS) testEnv {
	t.Helper()
	return testEnv{
		cfg: Config{
			OutputDir:       filepath.Join(t.TempDir(), "public"),
			BaseURL:         "https://example.com",
			SiteTitle:       "Example Site",
			GenerateSitemap: true,
			GenerateRobots:  true,
		},
		content: content,
	}
}

func readOutput(t *testing.T, env testEnv, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(env.cfg.OutputDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read output %s: %v", rel, err)
	}
	return string(data)
}

func outputExists(env testEnv, rel string) bool {
	_, err := os.Stat(filepath.Join(env.cfg.OutputDir, filepath.FromSlash(rel)))
	return err == nil
}

func TestBuildEndToEnd(t *testing.T) {
	env := newEnv(t, testContent())

	result, err := env.build(t)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.PostsBuilt != 3 {
		t.Fatalf("expected 3 posts built, got %d", result.PostsBuilt)
	}
	if result.PostsSkipped != 0 {
		t.Fatalf("expected no skips, got %d", result.PostsSkipped)
	}
	if result.BuildID == "" {
		t.Fatalf("expected build ID")
	}

	for _, rel := range []string{
		"posts/first-steps/index.html",
		"posts/interface-segregation/index.html",
		"posts/dependency-inversion/index.html",
		"series/solid-design-principles/index.html",
		"tags/go/index.html",
		"tags/design-patterns/index.html",
		"index.html",
		"sitemap.xml",
		"robots.txt",
		".sitegen-manifest.json",
	} {
		if !outputExists(env, rel) {
			t.Fatalf("expected output file %s", rel)
		}
	}

	page := readOutput(t, env, "posts/first-steps/index.html")
	if !strings.Contains(page, `<a href="/posts/interface-segregation/">Interface Segregation</a>`) {
		t.Fatalf("expected resolved cross-reference link, got:\n%s", page)
	}
	if !strings.Contains(page, "<title>First Steps | Example Site</title>") {
		t.Fatalf("expected site chrome, got:\n%s", page)
	}
}

func TestBuildDeterministic(t *testing.T) {
	first := newEnv(t, testContent())
	second := newEnv(t, testContent())

	resultA, err := first.build(t)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	resultB, err := second.build(t)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	if resultA.BuildID != resultB.BuildID {
		t.Fatalf("build IDs differ: %s vs %s", resultA.BuildID, resultB.BuildID)
	}

	sumsA := treeChecksums(t, first.cfg.OutputDir)
	sumsB := treeChecksums(t, second.cfg.OutputDir)
	if len(sumsA) != len(sumsB) {
		t.Fatalf("output trees differ in size: %d vs %d", len(sumsA), len(sumsB))
	}
	for rel, sum := range sumsA {
		if sumsB[rel] != sum {
			t.Fatalf("output %s differs between identical builds", rel)
		}
	}
}

func TestBuildChangeDetection(t *testing.T) {
	env := newEnv(t, testContent())

	first, err := env.build(t)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	if first.PagesChanged != len(first.Rendered) {
		t.Fatalf("first build must count every page as changed: %d vs %d", first.PagesChanged, len(first.Rendered))
	}

	second, err := env.build(t)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.PagesChanged != 0 {
		t.Fatalf("identical rebuild must report no changes, got %d", second.PagesChanged)
	}

	edited := testContent()
	edited["interface-segregation.md"] = &fstest.MapFile{Data: []byte(`---
title: Interface Segregation
date: "2023-04-01"
series: SOLID Design Principles
tags: [go]
---
Middle post, revised.
`)}
	env.content = edited

	third, err := env.build(t)
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.PagesChanged != 1 {
		t.Fatalf("body edit must change exactly the post page, got %d", third.PagesChanged)
	}
}

func TestBuildDraftsExcludedByDefault(t *testing.T) {
	env := newEnv(t, testContent())

	result, err := env.build(t)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.PostsBuilt != 3 {
		t.Fatalf("expected 3 published posts, got %d", result.PostsBuilt)
	}
	if outputExists(env, "guides/unpublished/index.html") {
		t.Fatalf("draft must not be rendered by default")
	}
	home := readOutput(t, env, "index.html")
	if strings.Contains(home, "Unpublished Guide") {
		t.Fatalf("draft must not appear on index pages")
	}
	sitemap := readOutput(t, env, "sitemap.xml")
	if strings.Contains(sitemap, "unpublished") {
		t.Fatalf("draft must not appear in the sitemap")
	}
}

func TestBuildDraftsIncluded(t *testing.T) {
	env := newEnv(t, testContent())
	env.cfg.IncludeDrafts = true

	result, err := env.build(t)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.PostsBuilt != 4 {
		t.Fatalf("expected 4 posts with drafts included, got %d", result.PostsBuilt)
	}
	if !outputExists(env, "guides/unpublished/index.html") {
		t.Fatalf("expected draft output with drafts included")
	}
	home := readOutput(t, env, "index.html")
	if !strings.Contains(home, "Unpublished Guide") {
		t.Fatalf("draft must be indexed like a published post when included")
	}
}

func TestBuildDuplicateSlug(t *testing.T) {
	content := testContent()
	content["copies/first-steps.md"] = &fstest.MapFile{Data: []byte(`---
title: First Steps Copy
date: "2023-03-03"
---
Same file name, same slug.
`)}
	env := newEnv(t, content)

	_, err := env.build(t)
	if err == nil {
		t.Fatalf("expected duplicate slug failure")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	var diags site.DiagnosticList
	if !errors.As(err, &diags) {
		t.Fatalf("expected diagnostic list, got %T", err)
	}
	if diags.ExitCode() != 3 {
		t.Fatalf("expected exit code 3, got %d", diags.ExitCode())
	}
	diag := diags[0]
	if diag.Path == "" || diag.Target == "" {
		t.Fatalf("duplicate report must name both files: %#v", diag)
	}
}

func TestBuildBrokenReferenceStrict(t *testing.T) {
	content := testContent()
	content["dangling.md"] = &fstest.MapFile{Data: []byte(`---
title: Dangling
date: "2023-07-01"
---
See {{< ref "no-such-post" >}}.
`)}
	env := newEnv(t, content)
	env.cfg.Strict = true

	_, err := env.build(t)
	if err == nil {
		t.Fatalf("expected strict build to fail on broken reference")
	}
	var diags site.DiagnosticList
	if !errors.As(err, &diags) {
		t.Fatalf("expected diagnostic list, got %T", err)
	}
	if diags.ExitCode() != 4 {
		t.Fatalf("expected exit code 4, got %d", diags.ExitCode())
	}
	if !strings.Contains(diags.Error(), "no-such-post") {
		t.Fatalf("failure must name the broken reference: %s", diags.Error())
	}
}

func TestBuildBrokenReferencePermissive(t *testing.T) {
	content := testContent()
	content["dangling.md"] = &fstest.MapFile{Data: []byte(`---
title: Dangling
date: "2023-07-01"
---
See {{< ref "no-such-post" >}}.
`)}
	env := newEnv(t, content)

	result, err := env.build(t)
	if err != nil {
		t.Fatalf("permissive build must succeed, got %v", err)
	}

	warnings := result.Diagnostics.Warnings()
	found := false
	for _, diag := range warnings {
		if diag.Kind == site.KindBrokenRef && diag.Target == "no-such-post" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected broken-ref warning naming the target, got %v", warnings)
	}

	page := readOutput(t, env, "posts/dangling/index.html")
	if !strings.Contains(page, "broken-ref") {
		t.Fatalf("expected inert span in permissive output, got:\n%s", page)
	}
}

func TestBuildReportsEveryMetadataFailure(t *testing.T) {
	content := fstest.MapFS{
		"ok.md":       &fstest.MapFile{Data: []byte("---\ntitle: OK\ndate: \"2023-01-01\"\n---\nfine\n")},
		"no-title.md": &fstest.MapFile{Data: []byte("---\ndate: \"2023-01-01\"\n---\nbody\n")},
		"no-date.md":  &fstest.MapFile{Data: []byte("---\ntitle: No Date\n---\nbody\n")},
	}
	env := newEnv(t, content)

	_, err := env.build(t)
	if err == nil {
		t.Fatalf("expected metadata failures")
	}
	var diags site.DiagnosticList
	if !errors.As(err, &diags) {
		t.Fatalf("expected diagnostic list, got %T", err)
	}
	if len(diags.Fatal()) != 2 {
		t.Fatalf("expected both malformed files reported, got %v", diags)
	}
	if diags.ExitCode() != 2 {
		t.Fatalf("expected exit code 2, got %d", diags.ExitCode())
	}
}

func TestBuildFailureLeavesPreviousOutput(t *testing.T) {
	env := newEnv(t, testContent())
	if _, err := env.build(t); err != nil {
		t.Fatalf("seed build: %v", err)
	}
	marker := readOutput(t, env, "index.html")

	broken := testContent()
	broken["dangling.md"] = &fstest.MapFile{Data: []byte(`---
title: Dangling
date: "2023-07-01"
---
{{< ref "no-such-post" >}}
`)}
	env.content = broken
	env.cfg.Strict = true

	if _, err := env.build(t); err == nil {
		t.Fatalf("expected strict failure")
	}

	if got := readOutput(t, env, "index.html"); got != marker {
		t.Fatalf("failed build must not touch the published output")
	}
	if _, err := os.Stat(env.cfg.OutputDir + ".staging"); !os.IsNotExist(err) {
		t.Fatalf("failed build must discard staging")
	}
}

func TestBuildTagOrdering(t *testing.T) {
	content := fstest.MapFS{
		"post-a.md": &fstest.MapFile{Data: []byte("---\ntitle: Post A\ndate: \"2020-01-01\"\ntags: [Design Patterns]\n---\nA\n")},
		"post-b.md": &fstest.MapFile{Data: []byte("---\ntitle: Post B\ndate: \"2021-01-01\"\ntags: [Design Patterns]\n---\nB\n")},
	}
	env := newEnv(t, content)

	if _, err := env.build(t); err != nil {
		t.Fatalf("Build: %v", err)
	}

	page := readOutput(t, env, "tags/design-patterns/index.html")
	posB := strings.Index(page, "Post B")
	posA := strings.Index(page, "Post A")
	if posB < 0 || posA < 0 || posB > posA {
		t.Fatalf("expected Post B listed before Post A, got:\n%s", page)
	}
}

func TestBuildSeriesOrdering(t *testing.T) {
	env := newEnv(t, testContent())

	if _, err := env.build(t); err != nil {
		t.Fatalf("Build: %v", err)
	}

	page := readOutput(t, env, "series/solid-design-principles/index.html")
	first := strings.Index(page, "First Steps")
	second := strings.Index(page, "Interface Segregation")
	third := strings.Index(page, "Dependency Inversion")
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("expected all series members listed:\n%s", page)
	}
	if !(first < second && second < third) {
		t.Fatalf("expected chronological series order, got positions %d, %d, %d", first, second, third)
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	env := newEnv(t, testContent())

	engine, err := themes.NewEngine(themes.Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	service := NewService(env.cfg, Dependencies{
		ContentFS: env.content,
		Parser:    markdown.NewGoldmarkParser(interfaces.ParseOptions{}),
		Renderer:  engine,
	})

	result, err := service.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !result.DryRun || result.PostsBuilt != 3 {
		t.Fatalf("expected full dry-run pipeline, got %+v", result)
	}
	if _, err := os.Stat(env.cfg.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create output")
	}
}

func TestBuildStaticAssets(t *testing.T) {
	staticDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(staticDir, "css"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "css", "site.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	env := newEnv(t, testContent())
	env.cfg.StaticDir = staticDir

	result, err := env.build(t)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.AssetsCopied != 1 {
		t.Fatalf("expected 1 asset copied, got %d", result.AssetsCopied)
	}
	if got := readOutput(t, env, "css/site.css"); got != "body{}" {
		t.Fatalf("asset content mismatch: %q", got)
	}
}

func TestDisabledService(t *testing.T) {
	service := NewDisabledService()
	if _, err := service.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
	if err := service.Clean(context.Background()); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestClean(t *testing.T) {
	env := newEnv(t, testContent())
	if _, err := env.build(t); err != nil {
		t.Fatalf("Build: %v", err)
	}

	service := NewService(Config{OutputDir: env.cfg.OutputDir}, Dependencies{})
	if err := service.Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(env.cfg.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("expected output removed")
	}
}

func treeChecksums(t *testing.T, root string) map[string]string {
	t.Helper()
	sums := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		sums[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		t.Fatalf("walk output: %v", err)
	}
	return sums
}
