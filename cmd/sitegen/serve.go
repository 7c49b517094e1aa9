package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-sitegen/cmd/sitegen/internal/bootstrap"
	sitecmd "github.com/goliatone/go-sitegen/internal/commands/site"
	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site locally and rebuild on changes",
	Long: `The serve command performs an initial build, starts a local web server
over the output directory, and watches the content, layouts, and static
directories. Changes trigger a debounced rebuild; rebuild failures are
logged and the previous output keeps serving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return runServe(cmd, addr)
	},
}

func runServe(cmd *cobra.Command, addr string) error {
	logger := logging.WatchLogger(logProvider)

	rebuild := func() error {
		module, err := bootstrap.BuildModule(appConfig, logProvider)
		if err != nil {
			return err
		}
		handler := sitecmd.NewBuildSiteHandler(module.Service, module.Logger)
		return handler.Execute(cmd.Context(), sitecmd.BuildSiteCommand{})
	}

	if err := rebuild(); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}
	logger.Info("initial build complete", "output", appConfig.OutputDir)

	watcher, err := watch.New(watch.Config{Logger: logger})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	staticPrefix := ""
	if appConfig.StaticDir != "" {
		staticPrefix = filepath.Clean(appConfig.StaticDir) + string(filepath.Separator)
	}
	watcher.AddFilter(watch.AnyFilter(
		watch.MarkdownFilter,
		watch.LayoutFilter,
		func(path string) bool {
			return staticPrefix != "" && strings.HasPrefix(filepath.Clean(path), staticPrefix)
		},
	))
	watcher.SetHandler(func(events []watch.ChangeEvent) error {
		logger.Info("changes detected, rebuilding", "files", len(events))
		if err := rebuild(); err != nil {
			logger.Error("rebuild failed", "error", err)
			return nil
		}
		logger.Info("rebuild complete")
		return nil
	})

	for _, dir := range []string{appConfig.ContentDir, appConfig.LayoutsDir, appConfig.StaticDir} {
		if dir == "" {
			continue
		}
		if _, statErr := os.Stat(dir); statErr != nil {
			continue
		}
		if err := watcher.AddRecursive(dir); err != nil {
			return err
		}
	}
	watcher.Start(cmd.Context())

	logger.Info("serving site", "addr", addr, "dir", appConfig.OutputDir)
	return serveSite(cmd.Context(), addr, noCacheFileServer(appConfig.OutputDir))
}

// serveSite runs the file server until the listener fails or ctx is
// cancelled, in which case the server drains gracefully.
func serveSite(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// noCacheFileServer serves the output tree with caching disabled so the
// browser always sees the latest rebuild.
func noCacheFileServer(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		fs.ServeHTTP(w, r)
	})
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "address to serve the site on")
	serveCmd.Flags().Bool("drafts", false, "include draft posts in rebuilds")
	rootCmd.AddCommand(serveCmd)
}
