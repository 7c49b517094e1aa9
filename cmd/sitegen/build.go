package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-sitegen/cmd/sitegen/internal/bootstrap"
	sitecmd "github.com/goliatone/go-sitegen/internal/commands/site"
	"github.com/goliatone/go-sitegen/internal/generator"
)

const timePrecision = time.Millisecond

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site from the content tree",
	Long: `The build command discovers markdown files under the content directory,
parses front matter, resolves cross-references, renders post pages and
series/tag indexes, and publishes the result atomically into the output
directory. The exit code identifies the failing stage: 2 for parse or
metadata errors, 3 for duplicate slugs, 4 for broken references, 5 for
render failures.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runBuild(cmd, dryRun)
	},
}

func runBuild(cmd *cobra.Command, dryRun bool) error {
	module, err := bootstrap.BuildModule(appConfig, logProvider)
	if err != nil {
		return err
	}

	var result *generator.BuildResult
	handler := sitecmd.NewBuildSiteHandler(module.Service, module.Logger)
	execErr := handler.Execute(cmd.Context(), sitecmd.BuildSiteCommand{
		DryRun: dryRun,
		ResultCallback: func(envelope sitecmd.ResultEnvelope) {
			result = envelope.Result
		},
	})

	if result != nil {
		for _, diag := range result.Diagnostics {
			fmt.Fprintln(os.Stderr, diag.String())
		}
	}
	if execErr != nil {
		return execErr
	}

	if result != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "built %d pages (%d posts, %d indexes, %d changed) in %s\n",
			result.PostsBuilt+result.IndexesBuilt, result.PostsBuilt, result.IndexesBuilt,
			result.PagesChanged, result.Duration.Round(timePrecision))
		if result.PostsSkipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped %d posts with render problems\n", result.PostsSkipped)
		}
		if result.DryRun {
			fmt.Fprintln(cmd.OutOrStdout(), "dry run: nothing written")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "build %s published to %s\n", result.BuildID, appConfig.OutputDir)
		}
	}
	return nil
}

func init() {
	buildCmd.Flags().Bool("drafts", false, "include draft posts in the build")
	buildCmd.Flags().Bool("strict", false, "treat broken references and render failures as fatal")
	buildCmd.Flags().Bool("dry-run", false, "run the full pipeline without writing output")
	buildCmd.Flags().String("out", "", "output directory (overrides config)")
	buildCmd.Flags().String("content", "", "content directory (overrides config)")
	buildCmd.Flags().Int("workers", 0, "parallel workers (defaults to CPU count)")
	rootCmd.AddCommand(buildCmd)
}
