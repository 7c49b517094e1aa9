package site

import "testing"

func TestDeriveSlug(t *testing.T) {
	cases := []struct {
		name       string
		override   string
		sourcePath string
		want       string
	}{
		{"from file name", "", "posts/My Great Post.md", "my-great-post"},
		{"override wins", "custom-slug", "posts/anything.md", "custom-slug"},
		{"override normalized", "Custom Slug!", "posts/anything.md", "custom-slug"},
		{"index falls back to directory", "", "posts/my-bundle/index.md", "my-bundle"},
		{"underscore index falls back", "", "posts/another-bundle/_index.md", "another-bundle"},
		{"stable across runs", "", "posts/repeat.md", "repeat"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeriveSlug(tc.override, tc.sourcePath)
			if err != nil {
				t.Fatalf("DeriveSlug: %v", err)
			}
			if got != tc.want {
				t.Fatalf("DeriveSlug(%q, %q) = %q, want %q", tc.override, tc.sourcePath, got, tc.want)
			}
			again, err := DeriveSlug(tc.override, tc.sourcePath)
			if err != nil || again != got {
				t.Fatalf("expected stable derivation, got %q then %q", got, again)
			}
		})
	}
}

func TestDeriveCategory(t *testing.T) {
	cases := []struct {
		sourcePath string
		want       string
	}{
		{"hello.md", ""},
		{"guides/hello.md", "guides"},
		{"Guides And Tips/deep/hello.md", "guides-and-tips"},
	}

	for _, tc := range cases {
		if got := DeriveCategory(tc.sourcePath); got != tc.want {
			t.Fatalf("DeriveCategory(%q) = %q, want %q", tc.sourcePath, got, tc.want)
		}
	}
}

func TestNormalizeSlug(t *testing.T) {
	got, err := NormalizeSlug("Hello, World!")
	if err != nil {
		t.Fatalf("NormalizeSlug: %v", err)
	}
	if got != "hello-world" {
		t.Fatalf("NormalizeSlug = %q, want %q", got, "hello-world")
	}
	if !IsValidSlug(got) {
		t.Fatalf("expected normalized slug to be valid")
	}
}
