// Package refs implements the internal reference grammar: Hugo-style
// {{< ref "target" >}} and {{< relref "target" >}} markers embedded in post
// bodies. The grammar is static; markers are recognised by a fixed pattern
// and rewritten into resolved links, never evaluated by a template engine.
package refs

import (
	"regexp"
	"strings"
)

var markerPattern = regexp.MustCompile(`{{<\s*(relref|ref)\s+"([^"]*)"\s*>}}`)

// Marker is one reference occurrence inside a post body: a directed edge
// from the source post to the target's slug.
type Marker struct {
	// Raw is the full marker text as it appears in the body.
	Raw string
	// Target is the quoted reference target, before normalisation.
	Target string
	// Relative reports whether the marker used the relref form.
	Relative bool
	// Start and End delimit the marker within the scanned body.
	Start int
	End   int
}

// Scan returns every reference marker in the body, in document order.
// Bodies with no markers return nil so the common case stays allocation
// free.
func Scan(body []byte) []Marker {
	matches := markerPattern.FindAllSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return nil
	}

	markers := make([]Marker, 0, len(matches))
	for _, m := range matches {
		markers = append(markers, Marker{
			Raw:      string(body[m[0]:m[1]]),
			Target:   string(body[m[4]:m[5]]),
			Relative: string(body[m[2]:m[3]]) == "relref",
			Start:    m[0],
			End:      m[1],
		})
	}
	return markers
}

// NormalizeTarget reduces a reference target to the slug namespace: the
// directory part and the markdown extension are dropped, so both
// "posts/caching-strategies.md" and "caching-strategies" address the same
// post.
func NormalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	target = strings.TrimPrefix(target, "/")
	if idx := strings.LastIndex(target, "/"); idx >= 0 {
		target = target[idx+1:]
	}
	target = strings.TrimSuffix(target, ".md")
	target = strings.TrimSuffix(target, ".markdown")
	return target
}
