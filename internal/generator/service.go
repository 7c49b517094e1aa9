package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/internal/markdown"
	"github.com/goliatone/go-sitegen/internal/refs"
	"github.com/goliatone/go-sitegen/internal/site"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled  = errors.New("generator: service disabled")
	errParserRequired   = errors.New("generator: markdown parser is required")
	errRendererRequired = errors.New("generator: template renderer is required")
	errStoreRequired    = errors.New("generator: artifact store is required")
)

// Service describes the site build contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir string
	BaseURL   string
	SiteTitle string
	// Pattern selects content files during discovery (defaults to "*.md").
	Pattern string
	// IncludeDrafts publishes draft posts and lets references resolve to
	// them.
	IncludeDrafts bool
	// Strict promotes broken-reference and render warnings to fatal errors.
	Strict bool
	// StaticDir names an optional directory copied verbatim into the
	// output root.
	StaticDir       string
	GenerateSitemap bool
	GenerateRobots  bool
	Workers         int
	Metadata        map[string]any
}

// BuildOptions narrows the scope of a single build invocation.
type BuildOptions struct {
	// DryRun executes the full pipeline but writes nothing.
	DryRun bool
}

// BuildResult reports aggregated build metadata. PagesChanged compares
// output checksums against the manifest of the previously published build;
// a first build counts every page as changed.
type BuildResult struct {
	PostsBuilt   int
	PostsSkipped int
	IndexesBuilt int
	AssetsCopied int
	PagesChanged int
	BuildID      string
	Duration     time.Duration
	Rendered     []RenderedDoc
	Diagnostics  site.DiagnosticList
	DryRun       bool
}

// Dependencies lists the collaborators required by the generator. ContentFS
// roots file discovery; Parser and Renderer are the external black boxes of
// the pipeline (Markdown in, HTML out; template plus data in, page out).
type Dependencies struct {
	ContentFS fs.FS
	Parser    interfaces.MarkdownParser
	Renderer  interfaces.TemplateRenderer
	Store     interfaces.ArtifactStore
	Logger    interfaces.LoggerProvider
}

// NewService wires a generator implementation with the provided
// configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return &service{
		cfg:    cfg,
		deps:   deps,
		logger: logging.GeneratorLogger(deps.Logger),
		now:    time.Now,
	}
}

// NewDisabledService returns a Service that fails all operations with
// ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	logger interfaces.Logger
	now    func() time.Time
}

type disabledService struct{}

// Build runs the whole pipeline: parse, graph, resolve, render, publish.
// Stage boundaries are hard barriers; the collection is immutable once the
// graph is built, which is what permits parallel resolution and rendering
// without synchronization.
func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Parser == nil {
		return nil, errParserRequired
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}

	store := s.deps.Store
	if opts.DryRun {
		store = noopStore{}
	}
	if store == nil {
		return nil, errStoreRequired
	}

	start := s.now()
	result := &BuildResult{DryRun: opts.DryRun}

	fail := func(diags site.DiagnosticList) (*BuildResult, error) {
		result.Diagnostics = diags
		result.Duration = s.now().Sub(start)
		_ = store.Discard(ctx)
		return result, wrapBuildFailure(diags)
	}

	// Stage 1: discover and parse every content file, collecting the
	// maximal set of problems instead of stopping at the first.
	loader := markdown.NewLoader(s.deps.ContentFS, markdown.LoaderConfig{
		Pattern:   s.cfg.Pattern,
		Recursive: true,
		Workers:   s.cfg.Workers,
	})
	docs, diags, err := loader.LoadAll(ctx)
	if err != nil {
		_ = store.Discard(ctx)
		return nil, err
	}
	s.logger.Debug("build.parse.complete", "files", len(docs), "problems", len(diags))

	posts, postDiags := s.toPosts(docs)
	diags = append(diags, postDiags...)
	if diags.HasFatal() {
		return fail(diags)
	}

	// Stage 2: the graph barrier. Every post must be registered before any
	// reference resolves, because declaration order is meaningless.
	graph, graphDiags := site.BuildGraph(posts)
	diags = append(diags, graphDiags...)
	if diags.HasFatal() {
		return fail(diags)
	}

	included := s.includedPosts(graph)
	publishGraph := graph
	if !s.cfg.IncludeDrafts {
		// Index pages must never list drafts; rebuild the taxonomy over
		// the published subset. Duplicate slugs cannot reappear in a
		// subset and the lint already ran, so diagnostics are dropped.
		publishGraph, _ = site.BuildGraph(included)
	}

	// Stage 3: parallel reference resolution against the now-immutable
	// slug map.
	resolver := refs.NewResolver(graph, refs.Policy{
		Strict:        s.cfg.Strict,
		IncludeDrafts: s.cfg.IncludeDrafts,
	}, PostURL, logging.RefsLogger(s.deps.Logger))

	bodies, refDiags := s.resolveAll(ctx, resolver, included)
	diags = append(diags, refDiags...)
	if err := ctx.Err(); err != nil {
		_ = store.Discard(ctx)
		return nil, err
	}
	if diags.HasFatal() {
		return fail(diags)
	}

	// Stage 4: render posts in parallel, then the cheap index documents.
	siteMeta := SiteMetadata{
		Title:    s.cfg.SiteTitle,
		BaseURL:  strings.TrimRight(s.cfg.BaseURL, "/"),
		Metadata: s.cfg.Metadata,
	}
	buildMeta := BuildMetadata{GeneratedAt: start.UTC(), Options: opts}

	outcomes := s.renderPosts(ctx, siteMeta, buildMeta, included, bodies)
	for _, outcome := range outcomes {
		if outcome.diag != nil {
			diags = append(diags, *outcome.diag)
		}
		if outcome.skipped {
			result.PostsSkipped++
			continue
		}
		if outcome.diag == nil {
			result.PostsBuilt++
			result.Rendered = append(result.Rendered, outcome.doc)
		}
	}

	indexDocs, indexDiags := s.renderIndexes(ctx, siteMeta, buildMeta, publishGraph)
	diags = append(diags, indexDiags...)
	result.IndexesBuilt = len(indexDocs)
	result.Rendered = append(result.Rendered, indexDocs...)

	if err := ctx.Err(); err != nil {
		_ = store.Discard(ctx)
		return nil, err
	}
	if diags.HasFatal() {
		return fail(diags)
	}

	// Deterministic write order regardless of worker scheduling.
	sort.Slice(result.Rendered, func(i, j int) bool {
		return result.Rendered[i].Output < result.Rendered[j].Output
	})

	manifest := newBuildManifest()
	sourceBySlug := map[string]*site.Post{}
	for _, post := range included {
		sourceBySlug[post.Slug] = post
	}

	// The live tree still holds the previous build until Publish, so its
	// manifest is the baseline for change detection.
	previousChecksums := s.previousChecksums(ctx, store)

	for i := range result.Rendered {
		doc := &result.Rendered[i]
		doc.Checksum = computeHashFromString(doc.HTML)
		if previousChecksums[doc.Output] != doc.Checksum {
			result.PagesChanged++
		}
		if err := s.writeDoc(ctx, store, *doc); err != nil {
			_ = store.Discard(ctx)
			return nil, err
		}
		entry := manifestEntry{
			Slug:           doc.Slug,
			Kind:           doc.Kind,
			Route:          doc.Route,
			Output:         doc.Output,
			OutputChecksum: doc.Checksum,
		}
		if post, ok := sourceBySlug[doc.Slug]; ok && doc.Kind == pageKindPost {
			entry.SourcePath = post.SourcePath
			entry.SourceChecksum = post.Checksum
		}
		manifest.add(entry)
	}

	copied, err := s.copyStatic(ctx, store)
	if err != nil {
		_ = store.Discard(ctx)
		return nil, err
	}
	result.AssetsCopied = copied

	if s.cfg.GenerateSitemap {
		if err := s.writeSitemap(ctx, store, publishGraph, result.Rendered); err != nil {
			_ = store.Discard(ctx)
			return nil, err
		}
	}
	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, store); err != nil {
			_ = store.Discard(ctx)
			return nil, err
		}
	}

	manifest.finalize(siteMeta.BaseURL)
	result.BuildID = manifest.BuildID
	if err := s.writeManifest(ctx, store, manifest); err != nil {
		_ = store.Discard(ctx)
		return nil, err
	}

	if err := store.Publish(ctx); err != nil {
		_ = store.Discard(ctx)
		return nil, err
	}

	result.Diagnostics = diags
	result.Duration = s.now().Sub(start)
	s.logger.Info("build.complete",
		"posts", result.PostsBuilt,
		"indexes", result.IndexesBuilt,
		"skipped", result.PostsSkipped,
		"changed", result.PagesChanged,
		"warnings", len(diags.Warnings()),
		"duration", result.Duration,
	)
	return result, nil
}

// previousChecksums loads the manifest of the currently published build and
// indexes its output checksums. Any read or parse problem degrades to an
// empty baseline; change detection never fails a build.
func (s *service) previousChecksums(ctx context.Context, store interfaces.ArtifactStore) map[string]string {
	data, err := store.ReadFile(ctx, manifestFileName)
	if err != nil {
		return nil
	}
	previous, err := parseManifest(data)
	if err != nil {
		s.logger.Warn("build.manifest.previous_unreadable", "error", err)
		return nil
	}

	checksums := make(map[string]string, len(previous.Pages))
	for _, entry := range previous.Pages {
		checksums[entry.Output] = entry.OutputChecksum
	}
	return checksums
}

// Clean removes the published output tree and any staging leftovers.
func (s *service) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := strings.TrimSpace(s.cfg.OutputDir)
	if out == "" || out == "." || out == "/" {
		return errors.New("generator: refusing to clean unspecified output directory")
	}
	if err := os.RemoveAll(out + ".staging"); err != nil {
		return err
	}
	return os.RemoveAll(out)
}

// wrapBuildFailure categorises the collected fatal diagnostics so callers can
// route on the text code of the earliest failed stage without losing the
// per-file detail.
func wrapBuildFailure(diags site.DiagnosticList) error {
	fatal := diags.Fatal()
	if len(fatal) == 0 {
		return nil
	}

	kind := fatal.LeadKind()
	category := goerrors.CategoryCommand
	switch kind {
	case site.KindParse, site.KindMetadata, site.KindDuplicateSlug:
		category = goerrors.CategoryValidation
	}
	return goerrors.Wrap(fatal, category, "site build failed").WithTextCode(kind.TextCode())
}

func (s *service) toPosts(docs []*markdown.Document) ([]*site.Post, site.DiagnosticList) {
	var diags site.DiagnosticList
	posts := make([]*site.Post, 0, len(docs))
	for _, doc := range docs {
		slug, err := site.DeriveSlug(doc.FrontMatter.Slug, doc.FilePath)
		if err != nil {
			diags = append(diags, site.Diagnostic{
				Kind:  site.KindMetadata,
				Path:  doc.FilePath,
				Field: "slug",
				Err:   fmt.Errorf("derive slug: %w", err),
			})
			continue
		}
		posts = append(posts, &site.Post{
			Slug:        slug,
			Title:       doc.FrontMatter.Title,
			Summary:     doc.FrontMatter.Summary,
			PublishedAt: doc.FrontMatter.Date,
			Draft:       doc.FrontMatter.Draft,
			Series:      doc.FrontMatter.Series,
			Tags:        append([]string(nil), doc.FrontMatter.Tags...),
			Category:    site.DeriveCategory(doc.FilePath),
			SourcePath:  doc.FilePath,
			Body:        doc.Body,
			Checksum:    hex.EncodeToString(doc.Checksum),
			Custom:      doc.FrontMatter.Custom,
		})
	}
	return posts, diags
}

func (s *service) includedPosts(graph *site.Graph) []*site.Post {
	var included []*site.Post
	for _, slug := range graph.Slugs() {
		post := graph.Posts[slug]
		if post.Draft && !s.cfg.IncludeDrafts {
			continue
		}
		included = append(included, post)
	}
	return included
}

// resolveAll rewrites references across posts on a worker pool. Each worker
// only reads the shared slug map and writes its own body copy.
func (s *service) resolveAll(
	ctx context.Context,
	resolver *refs.Resolver,
	posts []*site.Post,
) (map[string][]byte, site.DiagnosticList) {
	bodies := make(map[string][]byte, len(posts))
	var (
		mu    sync.Mutex
		diags site.DiagnosticList
	)

	jobs := make(chan *site.Post)
	var wg sync.WaitGroup
	for i := 0; i < s.effectiveWorkerCount(len(posts)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				body, postDiags := resolver.ResolvePost(post)
				mu.Lock()
				bodies[post.Slug] = body
				diags = append(diags, postDiags...)
				mu.Unlock()
			}
		}()
	}

	for _, post := range posts {
		select {
		case <-ctx.Done():
		case jobs <- post:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	return bodies, diags
}

func (s *service) renderPosts(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	posts []*site.Post,
	bodies map[string][]byte,
) []renderOutcome {
	outcomes := make([]renderOutcome, 0, len(posts))
	var mu sync.Mutex

	jobs := make(chan *site.Post)
	var wg sync.WaitGroup
	for i := 0; i < s.effectiveWorkerCount(len(posts)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				outcome := s.renderPost(siteMeta, buildMeta, post, bodies[post.Slug])
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}
		}()
	}

	for _, post := range posts {
		select {
		case <-ctx.Done():
		case jobs <- post:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (s *service) renderPost(
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	post *site.Post,
	body []byte,
) renderOutcome {
	renderStart := time.Now()

	html, err := s.deps.Parser.Parse(body)
	if err != nil {
		return s.renderFailure(post, fmt.Errorf("render markdown for %s: %w", post.SourcePath, err))
	}

	view := newPostView(post, template.HTML(html))
	pageCtx := TemplateContext{
		Site: siteMeta,
		Page: PageContext{
			Kind:  pageKindPost,
			Title: post.Title,
			URL:   view.URL,
			Post:  &view,
		},
		Build: buildMeta,
	}

	rendered, err := s.deps.Renderer.RenderTemplate(pageKindPost, pageCtx)
	if err != nil {
		return s.renderFailure(post, fmt.Errorf("render template %q for %s: %w", pageKindPost, post.SourcePath, err))
	}

	return renderOutcome{
		doc: RenderedDoc{
			Slug:     post.Slug,
			Kind:     pageKindPost,
			Route:    PostURL(post),
			Output:   postOutputPath(post),
			Template: pageKindPost,
			HTML:     rendered,
			Duration: time.Since(renderStart),
		},
	}
}

// renderFailure maps a failed post render to the configured policy: fatal in
// strict mode, skip-and-warn otherwise.
func (s *service) renderFailure(post *site.Post, err error) renderOutcome {
	diag := &site.Diagnostic{
		Kind:    site.KindRender,
		Path:    post.SourcePath,
		Slug:    post.Slug,
		Warning: !s.cfg.Strict,
		Err:     err,
	}
	if !s.cfg.Strict {
		logger := logging.WithBuildContext(s.logger, post.SourcePath, post.Slug, "render")
		logger.Warn("build.render.skipped", "error", err)
		return renderOutcome{diag: diag, skipped: true}
	}
	return renderOutcome{diag: diag}
}

func (s *service) renderIndexes(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	graph *site.Graph,
) ([]RenderedDoc, site.DiagnosticList) {
	var (
		docs  []RenderedDoc
		diags site.DiagnosticList
	)

	render := func(kind, name, route, output string, list ListView) {
		if ctx.Err() != nil {
			return
		}
		pageCtx := TemplateContext{
			Site: siteMeta,
			Page: PageContext{
				Kind:  kind,
				Title: name,
				URL:   route,
				List:  &list,
			},
			Build: buildMeta,
		}
		rendered, err := s.deps.Renderer.RenderTemplate(kind, pageCtx)
		if err != nil {
			diags = append(diags, site.Diagnostic{
				Kind:    site.KindRender,
				Slug:    name,
				Warning: !s.cfg.Strict,
				Err:     fmt.Errorf("render %s index %q: %w", kind, name, err),
			})
			return
		}
		docs = append(docs, RenderedDoc{
			Slug:     name,
			Kind:     kind,
			Route:    route,
			Output:   output,
			Template: kind,
			HTML:     rendered,
		})
	}

	for _, name := range graph.SeriesNames() {
		group := graph.Series[name]
		render(pageKindSeries, name, seriesURL(name), seriesOutputPath(name), newListView(name, group.Members))
	}
	for _, name := range graph.TagNames() {
		bucket := graph.Tags[name]
		render(pageKindTag, name, tagURL(name), tagOutputPath(name), newListView(name, bucket.Posts))
	}
	render(pageKindHome, siteMeta.Title, "/", "index.html", newListView(siteMeta.Title, graph.Recent()))

	return docs, diags
}

func (s *service) writeDoc(ctx context.Context, store interfaces.ArtifactStore, doc RenderedDoc) error {
	return store.WriteFile(ctx, interfaces.WriteFileRequest{
		Path:        doc.Output,
		Content:     strings.NewReader(doc.HTML),
		Size:        int64(len(doc.HTML)),
		Category:    doc.Kind,
		ContentType: "text/html; charset=utf-8",
		Checksum:    doc.Checksum,
		Metadata: map[string]string{
			"slug":     doc.Slug,
			"route":    doc.Route,
			"template": doc.Template,
		},
	})
}

func (s *service) writeSitemap(
	ctx context.Context,
	store interfaces.ArtifactStore,
	graph *site.Graph,
	rendered []RenderedDoc,
) error {
	entries := make([]sitemapEntry, 0, len(rendered))
	for _, doc := range rendered {
		entry := sitemapEntry{Location: doc.Route}
		switch doc.Kind {
		case pageKindPost:
			if post, ok := graph.Lookup(doc.Slug); ok {
				entry.LastMod = post.PublishedAt
			}
		case pageKindSeries:
			if group, ok := graph.Series[doc.Slug]; ok && len(group.Members) > 0 {
				entry.LastMod = group.Members[len(group.Members)-1].PublishedAt
			}
		case pageKindTag:
			if bucket, ok := graph.Tags[doc.Slug]; ok && len(bucket.Posts) > 0 {
				entry.LastMod = bucket.Posts[0].PublishedAt
			}
		case pageKindHome:
			if recent := graph.Recent(); len(recent) > 0 {
				entry.LastMod = recent[0].PublishedAt
			}
		}
		entries = append(entries, entry)
	}

	content := buildSitemap(s.cfg.BaseURL, entries)
	return store.WriteFile(ctx, interfaces.WriteFileRequest{
		Path:        "sitemap.xml",
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    "sitemap",
		ContentType: "application/xml",
		Checksum:    computeHashFromString(content),
	})
}

func (s *service) writeRobots(ctx context.Context, store interfaces.ArtifactStore) error {
	content := buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap)
	return store.WriteFile(ctx, interfaces.WriteFileRequest{
		Path:        "robots.txt",
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    "robots",
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHashFromString(content),
	})
}

func (s *service) writeManifest(ctx context.Context, store interfaces.ArtifactStore, manifest *buildManifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	return store.WriteFile(ctx, interfaces.WriteFileRequest{
		Path:        manifestFileName,
		Content:     strings.NewReader(string(data)),
		Size:        int64(len(data)),
		Category:    "manifest",
		ContentType: "application/json",
		Checksum:    computeHash(data),
	})
}

func (s *service) effectiveWorkerCount(jobCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if jobCount > 0 && workers > jobCount {
		return jobCount
	}
	return workers
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
