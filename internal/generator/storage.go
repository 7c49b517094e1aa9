package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

// FSStore is the filesystem-backed artifact store. All writes land in a
// staging directory next to the output directory; Publish swaps the staged
// tree into place with a rename so readers never observe a half-written
// site, and a cancelled build leaves the previous output untouched.
type FSStore struct {
	liveDir    string
	stagingDir string
}

var _ interfaces.ArtifactStore = (*FSStore)(nil)

// NewFSStore prepares a store targeting outputDir. Any staging leftovers
// from an interrupted previous run are cleared first.
func NewFSStore(outputDir string) (*FSStore, error) {
	live := filepath.Clean(strings.TrimSpace(outputDir))
	if live == "" || live == "." {
		return nil, errors.New("generator: output directory is required")
	}
	staging := live + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return nil, fmt.Errorf("generator: clear staging dir: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("generator: create staging dir: %w", err)
	}
	return &FSStore{liveDir: live, stagingDir: staging}, nil
}

// StagingDir exposes the staging location, mainly for tests.
func (s *FSStore) StagingDir() string { return s.stagingDir }

func (s *FSStore) EnsureDir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	return os.MkdirAll(filepath.Join(s.stagingDir, filepath.FromSlash(path)), 0o755)
}

func (s *FSStore) WriteFile(ctx context.Context, req interfaces.WriteFileRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}

	target := filepath.Join(s.stagingDir, filepath.FromSlash(req.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("generator: ensure dir for %s: %w", req.Path, err)
	}

	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("generator: create %s: %w", req.Path, err)
	}
	if _, err := io.Copy(file, req.Content); err != nil {
		_ = file.Close()
		return fmt.Errorf("generator: write %s: %w", req.Path, err)
	}
	return file.Close()
}

func (s *FSStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.liveDir, filepath.FromSlash(path)))
}

// Publish promotes the staged tree. The previous live tree is moved aside
// before the rename and removed afterwards, so the visible swap is a single
// rename.
func (s *FSStore) Publish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	previous := s.liveDir + ".previous"
	if err := os.RemoveAll(previous); err != nil {
		return fmt.Errorf("generator: clear previous output: %w", err)
	}

	if _, err := os.Stat(s.liveDir); err == nil {
		if err := os.Rename(s.liveDir, previous); err != nil {
			return fmt.Errorf("generator: move previous output aside: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("generator: stat output dir: %w", err)
	}

	if err := os.Rename(s.stagingDir, s.liveDir); err != nil {
		// Best effort restore of the previous tree.
		_ = os.Rename(previous, s.liveDir)
		return fmt.Errorf("generator: publish output: %w", err)
	}

	return os.RemoveAll(previous)
}

func (s *FSStore) Discard(ctx context.Context) error {
	return os.RemoveAll(s.stagingDir)
}

// noopStore drops every write; used for dry runs.
type noopStore struct{}

var _ interfaces.ArtifactStore = noopStore{}

func (noopStore) EnsureDir(context.Context, string) error { return nil }

func (noopStore) WriteFile(context.Context, interfaces.WriteFileRequest) error { return nil }

func (noopStore) ReadFile(context.Context, string) ([]byte, error) {
	return nil, os.ErrNotExist
}

func (noopStore) Publish(context.Context) error { return nil }

func (noopStore) Discard(context.Context) error { return nil }
