package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-sitegen/internal/commands/site"
	"github.com/goliatone/go-sitegen/internal/generator"
	"github.com/goliatone/go-sitegen/internal/logging"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated output and staging artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		service := generator.NewService(generator.Config{
			OutputDir: appConfig.OutputDir,
		}, generator.Dependencies{Logger: logProvider})

		handler := sitecmd.NewCleanSiteHandler(service, logging.GeneratorLogger(logProvider))
		if err := handler.Execute(cmd.Context(), sitecmd.CleanSiteCommand{}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", appConfig.OutputDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
