package site

import "fmt"

// lintDuplicateTitles flags posts sharing a title within the same series.
// Source collections sometimes carry staged revisions of the same article;
// whether that duplication is intentional cannot be decided here, so it is a
// warning, never an error.
func lintDuplicateTitles(graph *Graph) DiagnosticList {
	type key struct {
		title  string
		series string
	}

	seen := map[key]*Post{}
	var diags DiagnosticList
	for _, slug := range graph.Slugs() {
		post := graph.Posts[slug]
		k := key{title: post.Title, series: post.Series}
		if first, ok := seen[k]; ok {
			diags = append(diags, Diagnostic{
				Kind:    KindLint,
				Path:    post.SourcePath,
				Slug:    post.Slug,
				Target:  first.SourcePath,
				Warning: true,
				Err:     fmt.Errorf("title %q duplicated within series %q", post.Title, post.Series),
			})
			continue
		}
		seen[k] = post
	}
	return diags
}
