package generator

import (
	"html/template"
	"time"

	"github.com/goliatone/go-sitegen/internal/site"
)

// TemplateContext is the data contract passed to TemplateRenderer
// implementations for every output document.
type TemplateContext struct {
	Site  SiteMetadata
	Page  PageContext
	Build BuildMetadata
}

// SiteMetadata exposes site-wide information to templates.
type SiteMetadata struct {
	Title    string
	BaseURL  string
	Metadata map[string]any
}

// BuildMetadata surfaces high level build information to templates. Layouts
// must not interpolate GeneratedAt into page bodies: output is required to be
// byte-identical across runs of the same input.
type BuildMetadata struct {
	GeneratedAt time.Time
	Options     BuildOptions
}

// PageContext carries the resolved data for a single output document. Kind
// selects the layout; exactly one of Post or List is populated.
type PageContext struct {
	Kind  string
	Title string
	URL   string
	Post  *PostView
	List  *ListView
}

const (
	pageKindPost   = "post"
	pageKindSeries = "series"
	pageKindTag    = "tag"
	pageKindHome   = "home"
)

// PostView is the template-facing projection of a post.
type PostView struct {
	Slug        string
	Title       string
	Summary     string
	URL         string
	PublishedAt time.Time
	Draft       bool
	Series      string
	SeriesURL   string
	Tags        []TagRef
	Custom      map[string]any
	// Content holds the rendered Markdown body. It is marked safe because
	// goldmark already produced the HTML.
	Content template.HTML
}

// TagRef pairs a tag's display name with its index page URL.
type TagRef struct {
	Name string
	URL  string
}

// ListView backs series, tag, and home index pages.
type ListView struct {
	Name  string
	Posts []PostView
}

// RenderedDoc captures one rendered output document.
type RenderedDoc struct {
	Slug     string
	Kind     string
	Route    string
	Output   string
	Template string
	HTML     string
	Checksum string
	Duration time.Duration
}

type renderOutcome struct {
	doc     RenderedDoc
	diag    *site.Diagnostic
	skipped bool
}

func newPostView(post *site.Post, content template.HTML) PostView {
	view := PostView{
		Slug:        post.Slug,
		Title:       post.Title,
		Summary:     post.Summary,
		URL:         PostURL(post),
		PublishedAt: post.PublishedAt,
		Draft:       post.Draft,
		Series:      post.Series,
		Custom:      post.Custom,
		Content:     content,
	}
	if post.Series != "" {
		view.SeriesURL = seriesURL(post.Series)
	}
	for _, tag := range post.Tags {
		view.Tags = append(view.Tags, TagRef{Name: tag, URL: tagURL(tag)})
	}
	return view
}

func newListView(name string, posts []*site.Post) ListView {
	view := ListView{Name: name, Posts: make([]PostView, 0, len(posts))}
	for _, post := range posts {
		view.Posts = append(view.Posts, newPostView(post, ""))
	}
	return view
}
