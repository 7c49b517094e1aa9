package generator

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	manifestFileName    = ".sitegen-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records what a build produced: one entry per output document
// with source and output checksums, so CI can diff two builds cheaply. The
// manifest is write-only; no incremental state survives between invocations.
type buildManifest struct {
	Version int             `json:"version"`
	BuildID string          `json:"build_id"`
	Pages   []manifestEntry `json:"pages"`
}

type manifestEntry struct {
	Slug           string `json:"slug"`
	Kind           string `json:"kind"`
	Route          string `json:"route"`
	Output         string `json:"output"`
	SourcePath     string `json:"source_path,omitempty"`
	SourceChecksum string `json:"source_checksum,omitempty"`
	OutputChecksum string `json:"output_checksum"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Pages:   []manifestEntry{},
	}
}

func (m *buildManifest) add(entry manifestEntry) {
	if m == nil {
		return
	}
	m.Pages = append(m.Pages, entry)
}

// finalize assigns the deterministic build ID: a name-based UUID over the
// sorted output checksums. Identical input trees therefore produce identical
// manifests, which is what makes the manifest usable as a cache key.
func (m *buildManifest) finalize(baseURL string) {
	checksums := make([]string, 0, len(m.Pages))
	for _, entry := range m.Pages {
		checksums = append(checksums, entry.Output+":"+entry.OutputChecksum)
	}
	sort.Strings(checksums)

	sum := sha256.Sum256([]byte(baseURL + "\n" + strings.Join(checksums, "\n")))
	m.BuildID = uuid.NewSHA1(uuid.NameSpaceURL, sum[:]).String()
}

// marshal produces deterministic JSON: entries sorted by output path.
func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	cloned := *m
	if cloned.Version == 0 {
		cloned.Version = manifestFileVersion
	}
	cloned.Pages = append([]manifestEntry(nil), m.Pages...)
	sort.Slice(cloned.Pages, func(i, j int) bool {
		return cloned.Pages[i].Output < cloned.Pages[j].Output
	})
	data, err := json.MarshalIndent(cloned, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generator: marshal manifest: %w", err)
	}
	return data, nil
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var manifest buildManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	if manifest.Pages == nil {
		manifest.Pages = []manifestEntry{}
	}
	if manifest.Version == 0 {
		manifest.Version = manifestFileVersion
	}
	return &manifest, nil
}
