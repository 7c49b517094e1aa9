package refs

import (
	"bytes"
	"fmt"
	"html"

	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/internal/site"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

// Policy controls how unresolved references are treated. The choice is
// explicit and configurable, never implicit: strict builds fail on a broken
// reference, permissive builds degrade to a warning and an inert span.
type Policy struct {
	// Strict promotes broken references to fatal diagnostics.
	Strict bool
	// IncludeDrafts allows references to resolve against draft posts. When
	// false a reference from a published post to a draft is broken, since
	// the draft will not exist in the output.
	IncludeDrafts bool
}

// URLFunc maps a resolved post to the relative URL written into the
// rewritten link.
type URLFunc func(*site.Post) string

// Resolver rewrites reference markers against the completed slug map. It
// must only be constructed after the content graph is final: any post may
// reference any other post regardless of declaration order, so resolution
// requires global knowledge of the collection.
type Resolver struct {
	graph  *site.Graph
	policy Policy
	urlFor URLFunc
	logger interfaces.Logger
}

// NewResolver builds a resolver over the immutable post graph.
func NewResolver(graph *site.Graph, policy Policy, urlFor URLFunc, logger interfaces.Logger) *Resolver {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Resolver{
		graph:  graph,
		policy: policy,
		urlFor: urlFor,
		logger: logger,
	}
}

// ResolvePost rewrites every marker in the post's body and returns the new
// body along with any diagnostics. The input body is never mutated; each
// worker writes to its own copy, which is what allows safe parallel
// resolution across posts.
func (r *Resolver) ResolvePost(post *site.Post) ([]byte, site.DiagnosticList) {
	markers := Scan(post.Body)
	if len(markers) == 0 {
		return post.Body, nil
	}

	var (
		out   bytes.Buffer
		diags site.DiagnosticList
		prev  int
	)
	out.Grow(len(post.Body))

	for _, marker := range markers {
		out.Write(post.Body[prev:marker.Start])
		prev = marker.End

		replacement, diag := r.resolveMarker(post, marker)
		out.WriteString(replacement)
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	out.Write(post.Body[prev:])

	return out.Bytes(), diags
}

func (r *Resolver) resolveMarker(post *site.Post, marker Marker) (string, *site.Diagnostic) {
	slug := NormalizeTarget(marker.Target)

	target, ok := r.graph.Lookup(slug)
	if ok && target.Draft && !r.policy.IncludeDrafts {
		// The target exists but will not be published; from the reader's
		// point of view the link is broken.
		ok = false
	}

	if !ok {
		diag := &site.Diagnostic{
			Kind:    site.KindBrokenRef,
			Path:    post.SourcePath,
			Slug:    post.Slug,
			Target:  slug,
			Warning: !r.policy.Strict,
			Err:     fmt.Errorf("reference %q in %s does not resolve to a published post", marker.Target, post.SourcePath),
		}
		if r.policy.Strict {
			return marker.Raw, diag
		}
		r.logger.Warn("refs.broken_reference", "source", post.SourcePath, "target", slug)
		return inertSpan(marker.Target), diag
	}

	return fmt.Sprintf("[%s](%s)", escapeLinkText(target.Title), r.urlFor(target)), nil
}

// inertSpan renders a marker that could not be resolved in permissive mode.
// The target stays visible so the author can spot the typo in the output.
func inertSpan(target string) string {
	escaped := html.EscapeString(target)
	return fmt.Sprintf(`<span class="broken-ref" data-target="%s">%s</span>`, escaped, escaped)
}

func escapeLinkText(title string) string {
	var out bytes.Buffer
	for _, r := range title {
		switch r {
		case '[', ']', '\\':
			out.WriteByte('\\')
		}
		out.WriteRune(r)
	}
	return out.String()
}
