package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-sitegen/internal/site"
)

// LoaderConfig configures how content files are discovered within a base
// directory.
type LoaderConfig struct {
	// BasePath is the root directory where content documents live.
	BasePath string
	// Pattern limits discovered files to those matching the supplied glob
	// (defaults to "*.md").
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
	// Workers bounds the parse worker pool; defaults to GOMAXPROCS.
	Workers int
}

// Loader discovers content files and turns them into parsed documents.
// Parsing is embarrassingly parallel across files, so LoadAll fans the work
// out over a bounded worker pool while collecting every failure instead of
// stopping at the first.
type Loader struct {
	fs        fs.FS
	basePath  string
	pattern   string
	recursive bool
	workers   int
}

// NewLoader constructs a Loader using the provided filesystem and
// configuration.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := cfg.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}

	return &Loader{
		fs:        filesystem,
		basePath:  filepath.Clean(cfg.BasePath),
		pattern:   pattern,
		recursive: cfg.Recursive,
		workers:   cfg.Workers,
	}
}

// Discover walks the content tree and returns the matching file paths in
// lexicographic order.
func (l *Loader) Discover(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var paths []string
	walkErr := fs.WalkDir(l.fs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !l.recursive && path != "." {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel := filepath.ToSlash(path)
		if !l.matchesPattern(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(paths)
	return paths, nil
}

// LoadFile reads and parses a single document, validating required metadata.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := filepath.ToSlash(filepath.Clean(path))

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("loader read %s: %w", rel, err)
	}

	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("loader stat %s: %w", rel, err)
	}

	doc, err := BuildDocument(rel, data, info.ModTime())
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]

	return doc, nil
}

// LoadAll discovers and parses every content file. Parse failures and
// metadata violations are collected as diagnostics so one invocation reports
// the maximal set of problems; only infrastructure errors (walk failures,
// cancellation) are returned as err.
func (l *Loader) LoadAll(ctx context.Context) ([]*Document, site.DiagnosticList, error) {
	paths, err := l.Discover(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, nil
	}

	var (
		mu    sync.Mutex
		docs  []*Document
		diags site.DiagnosticList
	)

	collect := func(doc *Document, diag *site.Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		if doc != nil {
			docs = append(docs, doc)
		}
		if diag != nil {
			diags = append(diags, *diag)
		}
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < l.effectiveWorkers(len(paths)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				doc, diag := l.loadOne(ctx, path)
				collect(doc, diag)
			}
		}()
	}

	var sendErr error
	for _, path := range paths {
		select {
		case <-ctx.Done():
			sendErr = ctx.Err()
		case jobs <- path:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	if sendErr != nil {
		return nil, nil, sendErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].FilePath < docs[j].FilePath
	})
	return docs, diags, nil
}

func (l *Loader) loadOne(ctx context.Context, path string) (*Document, *site.Diagnostic) {
	doc, err := l.LoadFile(ctx, path)
	if err != nil {
		return nil, &site.Diagnostic{
			Kind: site.KindParse,
			Path: path,
			Err:  err,
		}
	}

	if err := ValidateFrontMatter(doc.FrontMatter); err != nil {
		return nil, &site.Diagnostic{
			Kind:  site.KindMetadata,
			Path:  path,
			Field: strings.Join(FieldNames(err), ","),
			Err:   err,
		}
	}
	return doc, nil
}

func (l *Loader) effectiveWorkers(fileCount int) int {
	workers := l.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}
	if fileCount > 0 && workers > fileCount {
		return fileCount
	}
	return workers
}

func (l *Loader) matchesPattern(path string) bool {
	pattern := filepath.ToSlash(l.pattern)
	if strings.Contains(pattern, "**") {
		// Basic support for ** by stripping repeated separators.
		pattern = strings.ReplaceAll(pattern, "**/", "")
	}
	var target string
	if strings.Contains(pattern, "/") {
		target = path
	} else {
		target = filepath.Base(path)
	}
	match, err := filepath.Match(pattern, target)
	if err != nil {
		return false
	}
	return match
}
