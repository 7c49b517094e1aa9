package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-sitegen/cmd/sitegen/internal/bootstrap"
	"github.com/goliatone/go-sitegen/internal/runtimeconfig"
	"github.com/goliatone/go-sitegen/internal/site"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

var (
	cfgFile     string
	appConfig   runtimeconfig.Config
	logProvider interfaces.LoggerProvider
)

var rootCmd = &cobra.Command{
	Use:   "sitegen",
	Short: "sitegen builds static sites from markdown content",
	Long: `sitegen reads a tree of markdown files with front matter, resolves
cross-references between posts, and renders a complete static site:
post pages, series and tag indexes, a home page, sitemap, and manifest.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the CLI. Build failures carry the exit code of the most
// severe diagnostic so scripts can distinguish metadata problems from
// broken references or render errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var diags site.DiagnosticList
		if errors.As(err, &diags) {
			os.Exit(diags.ExitCode())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sitegen.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console, json, pretty")
}

func initializeConfig(cmd *cobra.Command) error {
	v, err := runtimeconfig.NewViper(cfgFile)
	if err != nil {
		return err
	}

	bindFlag(v, "logging.level", cmd, "log-level")
	bindFlag(v, "logging.format", cmd, "log-format")
	bindFlag(v, "drafts", cmd, "drafts")
	bindFlag(v, "strict", cmd, "strict")
	bindFlag(v, "output_dir", cmd, "out")
	bindFlag(v, "content_dir", cmd, "content")
	bindFlag(v, "workers", cmd, "workers")

	appConfig, err = runtimeconfig.Load(v)
	if err != nil {
		return err
	}

	logProvider, err = bootstrap.NewProvider(appConfig.Logging)
	return err
}

// bindFlag layers a CLI flag over the config key when the command defines
// it. Flag defaults rank below config file and environment values.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if flag == nil {
		return
	}
	_ = v.BindPFlag(key, flag)
}
