package site

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a build diagnostic. The ordering of the constants mirrors
// the pipeline stages so exit codes stay stable for scripting.
type Kind int

const (
	KindParse Kind = iota + 1
	KindMetadata
	KindDuplicateSlug
	KindBrokenRef
	KindRender
	KindLint
)

// String returns the stable identifier used in log output and error text.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindMetadata:
		return "metadata"
	case KindDuplicateSlug:
		return "duplicate_slug"
	case KindBrokenRef:
		return "broken_ref"
	case KindRender:
		return "render"
	case KindLint:
		return "lint"
	default:
		return "unknown"
	}
}

// ExitCode maps a diagnostic kind to the process exit code contract: parse
// and metadata failures share a class, then duplicate slugs, broken
// references, and render failures each get their own.
func (k Kind) ExitCode() int {
	switch k {
	case KindParse, KindMetadata:
		return 2
	case KindDuplicateSlug:
		return 3
	case KindBrokenRef:
		return 4
	case KindRender:
		return 5
	default:
		return 1
	}
}

// TextCode returns the machine-readable code attached to wrapped errors.
func (k Kind) TextCode() string {
	switch k {
	case KindParse:
		return "SITE_PARSE_FAILED"
	case KindMetadata:
		return "SITE_METADATA_INVALID"
	case KindDuplicateSlug:
		return "SITE_DUPLICATE_SLUG"
	case KindBrokenRef:
		return "SITE_BROKEN_REF"
	case KindRender:
		return "SITE_RENDER_FAILED"
	case KindLint:
		return "SITE_LINT"
	default:
		return "SITE_BUILD_FAILED"
	}
}

// Diagnostic records a single problem discovered during a build, carrying
// enough context for the author to fix the offending file without searching.
type Diagnostic struct {
	Kind Kind
	// Path is the source file the problem originates from.
	Path string
	// Field names the offending front matter field for metadata problems.
	Field string
	// Slug identifies the post involved, when known.
	Slug string
	// Target is the unresolved slug for broken references, or the second
	// conflicting path for duplicate slugs.
	Target string
	// Warning marks diagnostics that do not fail the build in permissive
	// mode.
	Warning bool
	Err     error
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())
	if d.Path != "" {
		fmt.Fprintf(&b, " %s", d.Path)
	}
	if d.Field != "" {
		fmt.Fprintf(&b, " field=%s", d.Field)
	}
	if d.Target != "" {
		fmt.Fprintf(&b, " target=%s", d.Target)
	}
	if d.Err != nil {
		fmt.Fprintf(&b, ": %v", d.Err)
	}
	return b.String()
}

// DiagnosticList aggregates collected diagnostics so a single invocation
// reports every malformed file rather than stopping at the first.
type DiagnosticList []Diagnostic

// Error renders the collected fatal diagnostics, sorted by path then kind for
// deterministic output.
func (l DiagnosticList) Error() string {
	fatal := l.Fatal()
	if len(fatal) == 0 {
		return "no build errors"
	}
	lines := make([]string, 0, len(fatal))
	for _, d := range fatal {
		lines = append(lines, d.String())
	}
	sort.Strings(lines)
	return fmt.Sprintf("%d build error(s):\n%s", len(fatal), strings.Join(lines, "\n"))
}

// Fatal returns the diagnostics that fail the build.
func (l DiagnosticList) Fatal() DiagnosticList {
	out := make(DiagnosticList, 0, len(l))
	for _, d := range l {
		if !d.Warning {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the non-fatal diagnostics.
func (l DiagnosticList) Warnings() DiagnosticList {
	out := make(DiagnosticList, 0, len(l))
	for _, d := range l {
		if d.Warning {
			out = append(out, d)
		}
	}
	return out
}

// HasFatal reports whether any collected diagnostic fails the build.
func (l DiagnosticList) HasFatal() bool {
	for _, d := range l {
		if !d.Warning {
			return true
		}
	}
	return false
}

// LeadKind returns the fatal diagnostic class the build reports first: the
// earliest pipeline stage present among the collected failures.
func (l DiagnosticList) LeadKind() Kind {
	var lead Kind
	for _, d := range l {
		if d.Warning {
			continue
		}
		if lead == 0 || d.Kind < lead {
			lead = d.Kind
		}
	}
	return lead
}

// ExitCode returns the exit code for the most severe fatal diagnostic class,
// preferring the earliest pipeline stage when several classes are present.
func (l DiagnosticList) ExitCode() int {
	best := 0
	for _, d := range l {
		if d.Warning {
			continue
		}
		code := d.Kind.ExitCode()
		if best == 0 || code < best {
			best = code
		}
	}
	return best
}
