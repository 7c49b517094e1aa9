package generator

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

// copyStatic mirrors the configured static directory into the output root.
// Files are copied in sorted order so the write sequence is deterministic.
func (s *service) copyStatic(ctx context.Context, store interfaces.ArtifactStore) (int, error) {
	dir := strings.TrimSpace(s.cfg.StaticDir)
	if dir == "" {
		return 0, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	staticFS := os.DirFS(dir)
	var paths []string
	err := fs.WalkDir(staticFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("generator: walk static dir: %w", err)
	}
	sort.Strings(paths)

	copied := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		data, err := fs.ReadFile(staticFS, p)
		if err != nil {
			return copied, fmt.Errorf("generator: read static asset %s: %w", p, err)
		}
		req := interfaces.WriteFileRequest{
			Path:        filepath.ToSlash(p),
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    "asset",
			ContentType: detectAssetContentType(p),
			Checksum:    computeHash(data),
		}
		if err := store.WriteFile(ctx, req); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

func detectAssetContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
