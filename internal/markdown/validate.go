package markdown

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateFrontMatter enforces the required metadata contract: title and date
// must both be present and well-typed. The returned validation.Errors keys on
// field names so callers can report the offending field to the author.
func ValidateFrontMatter(fm FrontMatter) error {
	errs := validation.Errors{}
	if fm.Title == "" {
		errs["title"] = validation.NewError("sitegen.frontmatter.title_required", "title is required")
	}
	if fm.Date.IsZero() {
		errs["date"] = validation.NewError("sitegen.frontmatter.date_required", "date is required")
	}
	for _, tag := range fm.Tags {
		if tag == "" {
			errs["tags"] = validation.NewError("sitegen.frontmatter.tag_empty", "tags must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FieldNames extracts the offending field names from a validation error, in
// sorted order. Returns nil when the error carries no field information.
func FieldNames(err error) []string {
	verrs, ok := err.(validation.Errors)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for field := range verrs {
		out = append(out, field)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
