package interfaces

import (
	"context"
	"io"
)

// ArtifactStore abstracts where build outputs land. Writes are staged and
// only become visible after Publish succeeds, so a failed or cancelled build
// never leaves a half-updated site behind.
type ArtifactStore interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req WriteFileRequest) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// Publish atomically promotes the staged tree to the live output
	// location, replacing whatever was there before.
	Publish(ctx context.Context) error
	// Discard removes staged output without touching the live tree.
	Discard(ctx context.Context) error
}

// WriteFileRequest describes a file write routed through the artifact store.
type WriteFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    string
	ContentType string
	Checksum    string
	Metadata    map[string]string
}
