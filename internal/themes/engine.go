// Package themes supplies the page chrome around rendered content. The
// engine satisfies interfaces.TemplateRenderer over html/template with an
// embedded default layout set; hosts can override any layout by pointing
// LayoutsDir at a directory of same-named templates.
package themes

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

//go:embed layouts/*.html
var defaultLayouts embed.FS

// Config selects where layouts come from.
type Config struct {
	// LayoutsDir optionally overrides the embedded defaults. Templates are
	// matched by file name (post.html defines "post", and so on).
	LayoutsDir string
}

// Engine renders pages through html/template. Parsed templates are
// immutable after construction, so a single engine serves all render
// workers concurrently.
type Engine struct {
	templates *template.Template

	mu        sync.Mutex
	anonymous int
}

var _ interfaces.TemplateRenderer = (*Engine)(nil)

// NewEngine parses the embedded defaults and, when configured, layout
// overrides from disk.
func NewEngine(cfg Config) (*Engine, error) {
	root := template.New("sitegen").Funcs(templateFuncs())

	root, err := root.ParseFS(defaultLayouts, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("themes: parse embedded layouts: %w", err)
	}

	if dir := strings.TrimSpace(cfg.LayoutsDir); dir != "" {
		if _, statErr := os.Stat(dir); statErr == nil {
			root, err = root.ParseGlob(filepath.Join(dir, "*.html"))
			if err != nil {
				return nil, fmt.Errorf("themes: parse layout overrides: %w", err)
			}
		} else if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("themes: stat layouts dir: %w", statErr)
		}
	}

	return &Engine{templates: root}, nil
}

// RenderTemplate executes the named layout with the provided data. Extra
// writers receive the output alongside the returned string.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		tmpl = e.templates.Lookup(name + ".html")
	}
	if tmpl == nil {
		return "", fmt.Errorf("themes: unknown template %q", name)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("themes: execute template %q: %w", name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// RenderString parses and executes a one-off template body.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	e.mu.Lock()
	e.anonymous++
	name := fmt.Sprintf("anonymous-%d", e.anonymous)
	e.mu.Unlock()

	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(templateContent)
	if err != nil {
		return "", fmt.Errorf("themes: parse inline template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("themes: execute inline template: %w", err)
	}

	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(layout string, value interface{ Format(string) string }) string {
			return value.Format(layout)
		},
		"lower": strings.ToLower,
	}
}
