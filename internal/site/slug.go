package site

import (
	"path"
	"strings"

	slug "github.com/goliatone/go-slug"
)

// SlugNormalizer exposes the slug normalizer interface.
type SlugNormalizer = slug.Normalizer

// DefaultSlugNormalizer returns the default slug normalizer.
func DefaultSlugNormalizer() SlugNormalizer {
	return slug.Default()
}

// NormalizeSlug applies the default slug normalization rules.
func NormalizeSlug(value string) (string, error) {
	return slug.Normalize(value)
}

// IsValidSlug reports whether the slug matches the default rules.
func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}

// DeriveSlug computes a post's slug from an explicit front matter override or,
// failing that, from the source file path. The derivation is a pure function
// of its inputs so repeated builds always agree.
func DeriveSlug(override, sourcePath string) (string, error) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return NormalizeSlug(trimmed)
	}
	return NormalizeSlug(slugBase(sourcePath))
}

// DeriveCategory returns the optional URL path prefix implied by the source
// file's top-level directory. Files at the content root have no category.
func DeriveCategory(sourcePath string) string {
	dir := path.Dir(strings.TrimPrefix(path.Clean(filepathToSlash(sourcePath)), "/"))
	if dir == "." || dir == "" {
		return ""
	}
	segments := strings.Split(dir, "/")
	normalized, err := NormalizeSlug(segments[0])
	if err != nil {
		return ""
	}
	return normalized
}

func slugBase(sourcePath string) string {
	base := path.Base(filepathToSlash(sourcePath))
	ext := path.Ext(base)
	base = strings.TrimSuffix(base, ext)
	// Hugo-style page bundles name the file index.md; fall back to the
	// enclosing directory.
	if base == "index" || base == "_index" {
		dir := path.Dir(filepathToSlash(sourcePath))
		if dir != "." && dir != "/" {
			return path.Base(dir)
		}
	}
	return base
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
