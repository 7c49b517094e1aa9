package sitecmd

import (
	"github.com/goliatone/go-sitegen/internal/generator"
)

const (
	buildSiteMessageType = "sitegen.site.build"
	cleanSiteMessageType = "sitegen.site.clean"
)

// ResultCallback receives build results produced by generator operations. The callback is optional
// and is invoked synchronously from the handler when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a site command execution that generated a BuildResult.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a full site build from the configured content tree.
type BuildSiteCommand struct {
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate satisfies command.Message; drafts, strictness, and output location
// are fixed when the generator service is constructed.
func (BuildSiteCommand) Validate() error { return nil }

// CleanSiteCommand clears generated artifacts from the output directory.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }
