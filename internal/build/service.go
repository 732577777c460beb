package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

// Service is the canonical interface for executing site builds.
type Service interface {
	// Run executes a complete build and reports its outcome. A non-nil error
	// is always accompanied by a Result with Status failed or cancelled.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a build.
type Request struct {
	// Config is the loaded, resolved tool configuration.
	Config *config.Config
}

// Stage names, in execution order.
const (
	StageReadConfig      = "read_config"
	StageLoadSources     = "load_sources"
	StageRender          = "render"
	StageResetOutput     = "reset_output"
	StageWritePages      = "write_pages"
	StageWriteIndex      = "write_index"
	StageWriteStylesheet = "write_stylesheet"
	StageMirrorStatic    = "mirror_static"
	StageCommit          = "commit"
)

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// StageTiming is the measured wall time of one stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// Result contains the outcome of a build execution.
type Result struct {
	BuildID    string
	Status     Status
	OutputPath string

	// Documents is the number of source documents loaded.
	Documents int
	// Pages is the number of page files written (index excluded).
	Pages int
	// Assets is the number of top-level static entries mirrored.
	Assets int

	Stages []StageTiming

	// Fingerprints maps each slug to the fingerprint of its source document.
	Fingerprints map[string]string
	// Fingerprint summarizes all document fingerprints.
	Fingerprint string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
