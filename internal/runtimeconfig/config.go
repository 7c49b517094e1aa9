// Package runtimeconfig loads the site configuration that drives a build:
// a sitegen.yaml file, environment overrides, and CLI flag bindings layered
// through viper.
package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const envPrefix = "SITEGEN"

// Config is the materialised site configuration.
type Config struct {
	SiteTitle  string         `mapstructure:"site_title"`
	BaseURL    string         `mapstructure:"base_url"`
	ContentDir string         `mapstructure:"content_dir"`
	LayoutsDir string         `mapstructure:"layouts_dir"`
	StaticDir  string         `mapstructure:"static_dir"`
	OutputDir  string         `mapstructure:"output_dir"`
	Pattern    string         `mapstructure:"pattern"`
	Workers    int            `mapstructure:"workers"`
	Drafts     bool           `mapstructure:"drafts"`
	Strict     bool           `mapstructure:"strict"`
	Sitemap    bool           `mapstructure:"sitemap"`
	Robots     bool           `mapstructure:"robots"`
	Metadata   map[string]any `mapstructure:"metadata"`
	Logging    LoggingConfig  `mapstructure:"logging"`
}

// LoggingConfig configures the go-logger provider.
type LoggingConfig struct {
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// Validate enforces the invariants a build depends on.
func (c Config) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(c.ContentDir) == "" {
		errs["content_dir"] = validation.NewError("sitegen.config.content_dir_required", "content_dir is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs["output_dir"] = validation.NewError("sitegen.config.output_dir_required", "output_dir is required")
	}
	if c.Workers < 0 {
		errs["workers"] = validation.NewError("sitegen.config.workers_invalid", "workers must not be negative")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// NewViper returns a viper instance preloaded with defaults, environment
// bindings, and the optional config file. Missing config files are fine;
// flags and defaults carry the build.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("site_title", "Site")
	v.SetDefault("base_url", "")
	v.SetDefault("content_dir", "content")
	v.SetDefault("layouts_dir", "layouts")
	v.SetDefault("static_dir", "static")
	v.SetDefault("output_dir", "public")
	v.SetDefault("pattern", "*.md")
	v.SetDefault("workers", 0)
	v.SetDefault("drafts", false)
	v.SetDefault("strict", false)
	v.SetDefault("sitemap", true)
	v.SetDefault("robots", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sitegen")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if cfgFile != "" {
				return nil, fmt.Errorf("runtimeconfig: read %s: %w", cfgFile, err)
			}
			return nil, fmt.Errorf("runtimeconfig: read config: %w", err)
		}
	}

	return v, nil
}

// Load unmarshals and validates the configuration from a prepared viper.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("runtimeconfig: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
