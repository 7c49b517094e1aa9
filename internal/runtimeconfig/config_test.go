package runtimeconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitegen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "site_title: Example\n")

	v, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SiteTitle != "Example" {
		t.Fatalf("SiteTitle = %q", cfg.SiteTitle)
	}
	if cfg.ContentDir != "content" || cfg.OutputDir != "public" {
		t.Fatalf("expected directory defaults, got %+v", cfg)
	}
	if cfg.Pattern != "*.md" {
		t.Fatalf("Pattern = %q", cfg.Pattern)
	}
	if cfg.Drafts || cfg.Strict {
		t.Fatalf("drafts and strict must default off")
	}
	if !cfg.Sitemap || !cfg.Robots {
		t.Fatalf("sitemap and robots must default on")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
site_title: My Blog
base_url: https://blog.example.com
content_dir: posts
output_dir: dist
drafts: true
workers: 4
logging:
  level: debug
  format: json
metadata:
  author: someone
`)

	v, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BaseURL != "https://blog.example.com" || cfg.ContentDir != "posts" || cfg.OutputDir != "dist" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Drafts || cfg.Workers != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Metadata["author"] != "someone" {
		t.Fatalf("unexpected metadata: %+v", cfg.Metadata)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "output_dir: dist\n")
	t.Setenv("SITEGEN_OUTPUT_DIR", "build")
	t.Setenv("SITEGEN_LOGGING_LEVEL", "error")

	v, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OutputDir != "build" {
		t.Fatalf("environment must override the file, got %q", cfg.OutputDir)
	}
	if cfg.Logging.Level != "error" {
		t.Fatalf("nested keys must bind to env, got %q", cfg.Logging.Level)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	cases := map[string]string{
		"empty content dir": "content_dir: \"\"\n",
		"empty output dir":  "output_dir: \" \"\n",
		"negative workers":  "workers: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := NewViper(writeConfig(t, body))
			if err != nil {
				t.Fatalf("NewViper: %v", err)
			}
			if _, err := Load(v); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestNewViperMissingExplicitFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := NewViper(missing); err == nil {
		t.Fatalf("expected error for explicitly named missing file")
	}
}
