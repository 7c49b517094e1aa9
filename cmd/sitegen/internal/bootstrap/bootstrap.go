// Package bootstrap wires the generator service from a loaded runtime
// configuration so the CLI entry points stay thin.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/goliatone/go-sitegen/internal/generator"
	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/internal/logging/gologger"
	"github.com/goliatone/go-sitegen/internal/markdown"
	"github.com/goliatone/go-sitegen/internal/runtimeconfig"
	"github.com/goliatone/go-sitegen/internal/themes"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

// Module bundles the wired collaborators a command needs.
type Module struct {
	Service  generator.Service
	Provider interfaces.LoggerProvider
	Logger   interfaces.Logger
}

// NewProvider builds the logger provider from runtime configuration.
func NewProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
		Focus:     cfg.Focus,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: configure logging: %w", err)
	}
	return provider, nil
}

// BuildModule assembles a generator service over the configured content tree.
// A fresh module is built per invocation; the artifact store stages into a
// scratch directory that a successful build publishes atomically.
func BuildModule(cfg runtimeconfig.Config, provider interfaces.LoggerProvider) (*Module, error) {
	if provider == nil {
		var err error
		provider, err = NewProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(cfg.ContentDir); err != nil {
		return nil, fmt.Errorf("bootstrap: content directory %q: %w", cfg.ContentDir, err)
	}

	engineCfg := themes.Config{}
	if cfg.LayoutsDir != "" {
		if _, err := os.Stat(cfg.LayoutsDir); err == nil {
			engineCfg.LayoutsDir = cfg.LayoutsDir
		}
	}
	engine, err := themes.NewEngine(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load layouts: %w", err)
	}

	store, err := generator.NewFSStore(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: prepare output: %w", err)
	}

	staticDir := ""
	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			staticDir = cfg.StaticDir
		}
	}

	service := generator.NewService(generator.Config{
		OutputDir:       cfg.OutputDir,
		BaseURL:         cfg.BaseURL,
		SiteTitle:       cfg.SiteTitle,
		Pattern:         cfg.Pattern,
		IncludeDrafts:   cfg.Drafts,
		Strict:          cfg.Strict,
		StaticDir:       staticDir,
		GenerateSitemap: cfg.Sitemap,
		GenerateRobots:  cfg.Robots,
		Workers:         cfg.Workers,
		Metadata:        cfg.Metadata,
	}, generator.Dependencies{
		ContentFS: os.DirFS(cfg.ContentDir),
		Parser:    markdown.NewGoldmarkParser(interfaces.ParseOptions{}),
		Renderer:  engine,
		Store:     store,
		Logger:    provider,
	})

	return &Module{
		Service:  service,
		Provider: provider,
		Logger:   logging.GeneratorLogger(provider),
	}, nil
}
