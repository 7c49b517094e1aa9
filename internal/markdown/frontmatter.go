package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"
)

// FrontMatter models metadata extracted from a content file's delimited
// header block. Raw preserves every decoded key so templates can reach
// domain-specific values the pipeline does not interpret.
type FrontMatter struct {
	Title   string
	Slug    string
	Summary string
	Date    time.Time
	Draft   bool
	Series  string
	Tags    []string
	Custom  map[string]any
	Raw     map[string]any
}

// Document represents one content file with parsed metadata. BodyHTML stays
// empty until the render stage converts the (reference-resolved) body.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores the SHA-256 digest of the original file content so
	// incremental builds can detect changes without re-rendering.
	Checksum []byte
}

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. Both TOML (+++) and YAML (---) fences are accepted,
// matching what content collections exported from Hugo actually contain.
// It returns the structured front matter, the body without delimiters, and
// any error encountered.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if err := checkUnterminatedFence(source, body); err != nil {
		return FrontMatter{}, nil, err
	}

	fm, err := envelopeToFrontMatter(meta)
	if err != nil {
		return FrontMatter{}, nil, err
	}
	return fm, body, nil
}

// ErrUnterminatedFrontMatter marks files that open a front matter fence but
// never close it.
var ErrUnterminatedFrontMatter = fmt.Errorf("front matter block not terminated")

// checkUnterminatedFence catches the case the underlying parser treats as "no
// front matter": a file that opens with a fence but has no closing fence
// comes back untouched as pure body. Reporting it as a parse failure, with
// the opening line, beats a misleading missing-field message downstream.
func checkUnterminatedFence(source, body []byte) error {
	if !bytes.Equal(body, source) {
		return nil
	}
	fence, line := openingFence(source)
	if fence == "" {
		return nil
	}
	return fmt.Errorf("%w: %q fence opened on line %d has no closing fence", ErrUnterminatedFrontMatter, fence, line)
}

// openingFence returns the fence marker starting the file and its line
// number, or "" when the first non-blank line is not a fence.
func openingFence(source []byte) (string, int) {
	line := 0
	for _, raw := range bytes.Split(source, []byte("\n")) {
		line++
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			continue
		}
		if marker := string(trimmed); marker == "---" || marker == "+++" {
			return marker, line
		}
		return "", 0
	}
	return "", 0
}

// BuildDocument assembles a Document from the supplied file path, raw
// content, and modification time.
func BuildDocument(path string, source []byte, modified time.Time) (*Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &Document{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

// frontMatterEnvelope keeps decoding flexible: dates arrive as native
// datetimes from TOML or as strings from YAML, and series may be declared
// either as a scalar or a single-element list.
type frontMatterEnvelope struct {
	Title   string         `yaml:"title" toml:"title"`
	Slug    string         `yaml:"slug" toml:"slug"`
	Summary string         `yaml:"summary" toml:"summary"`
	Date    any            `yaml:"date" toml:"date"`
	Draft   bool           `yaml:"draft" toml:"draft"`
	Series  any            `yaml:"series" toml:"series"`
	Tags    []string       `yaml:"tags" toml:"tags"`
	Custom  map[string]any `yaml:",inline" toml:"-"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ErrInvalidDate marks date values that could not be interpreted as a
// timestamp in any accepted layout.
var ErrInvalidDate = fmt.Errorf("invalid date format")

func coerceDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	default:
		return time.Time{}, fmt.Errorf("%w: %T", ErrInvalidDate, value)
	}
}

func coerceSeries(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []any:
		if len(v) == 0 {
			return "", nil
		}
		name, ok := v[0].(string)
		if !ok {
			return "", fmt.Errorf("series entries must be strings, got %T", v[0])
		}
		return name, nil
	case []string:
		if len(v) == 0 {
			return "", nil
		}
		return v[0], nil
	default:
		return "", fmt.Errorf("series must be a string or list of strings, got %T", value)
	}
}

func envelopeToFrontMatter(env frontMatterEnvelope) (FrontMatter, error) {
	date, err := coerceDate(env.Date)
	if err != nil {
		return FrontMatter{}, err
	}
	series, err := coerceSeries(env.Series)
	if err != nil {
		return FrontMatter{}, err
	}

	if env.Custom == nil {
		env.Custom = map[string]any{}
	}

	raw := make(map[string]any, len(env.Custom)+8)
	for key, value := range env.Custom {
		raw[key] = value
	}

	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Slug != "" {
		raw["slug"] = env.Slug
	}
	if env.Summary != "" {
		raw["summary"] = env.Summary
	}
	if series != "" {
		raw["series"] = series
	}
	if len(env.Tags) > 0 {
		raw["tags"] = append([]string(nil), env.Tags...)
	}
	if !date.IsZero() {
		raw["date"] = date
	}
	raw["draft"] = env.Draft

	return FrontMatter{
		Title:   env.Title,
		Slug:    env.Slug,
		Summary: env.Summary,
		Date:    date,
		Draft:   env.Draft,
		Series:  series,
		Tags:    append([]string(nil), env.Tags...),
		Custom:  cloneMap(env.Custom),
		Raw:     raw,
	}, nil
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
