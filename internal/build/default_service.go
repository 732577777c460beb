package build

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/pagesmith/internal/builddir"
	"git.home.luguber.info/inful/pagesmith/internal/compact"
	"git.home.luguber.info/inful/pagesmith/internal/config"
	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/fanout"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/history"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/notify"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
	"git.home.luguber.info/inful/pagesmith/internal/output"
	"git.home.luguber.info/inful/pagesmith/internal/render"
	"git.home.luguber.info/inful/pagesmith/internal/source"
)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	fs        afero.Fs
	extractor frontmatter.Extractor
	compactor compact.Compactor
	renderer  render.Renderer
	recorder  metrics.Recorder
	history   history.Recorder
	notifier  notify.Publisher
	newID     func() string
	now       func() time.Time
}

// NewService creates a DefaultService operating on fs with the default
// collaborators: YAML/TOML frontmatter, HTML compaction, Markdown rendering
// with layouts loaded per build.
func NewService(fs afero.Fs) *DefaultService {
	return &DefaultService{
		fs:        fs,
		extractor: frontmatter.NewParser(),
		compactor: compact.NewHTML(),
		recorder:  metrics.NoopRecorder{},
		history:   history.NoopRecorder{},
		notifier:  notify.NoopPublisher{},
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// WithExtractor replaces the metadata extractor.
func (s *DefaultService) WithExtractor(e frontmatter.Extractor) *DefaultService {
	s.extractor = e
	return s
}

// WithCompactor replaces the markup compactor.
func (s *DefaultService) WithCompactor(c compact.Compactor) *DefaultService {
	s.compactor = c
	return s
}

// WithRenderer fixes the renderer. Without it, a Markdown renderer is built
// from the configured layouts directory on every run.
func (s *DefaultService) WithRenderer(r render.Renderer) *DefaultService {
	s.renderer = r
	return s
}

// WithRecorder injects a metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	s.recorder = r
	return s
}

// WithHistory injects a build ledger.
func (s *DefaultService) WithHistory(h history.Recorder) *DefaultService {
	s.history = h
	return s
}

// WithNotifier injects a publisher for finished-build events.
func (s *DefaultService) WithNotifier(p notify.Publisher) *DefaultService {
	s.notifier = p
	return s
}

// WithClock overrides the time source (for testing).
func (s *DefaultService) WithClock(now func() time.Time) *DefaultService {
	s.now = now
	return s
}

// run carries the state of one build between stages.
type run struct {
	svc    *DefaultService
	cfg    *config.Config
	result *Result

	site    render.Site
	docs    []source.Document
	pages   []output.Page
	index   output.Index
	staging *builddir.Staging
	writer  *output.Writer
}

// Run executes the complete build pipeline.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := s.now()
	result := &Result{
		BuildID:      s.newID(),
		StartTime:    startTime,
		Fingerprints: map[string]string{},
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if req.Config == nil {
		return s.finish(ctx, result, pserrors.ConfigError("config required").Build())
	}
	result.OutputPath = req.Config.Paths.Build

	observability.InfoContext(ctx, "Starting build", logfields.Path(req.Config.Paths.Build))

	r := &run{svc: s, cfg: req.Config, result: result}
	err := r.execute(ctx)
	if err != nil && r.staging != nil {
		r.staging.Abort(ctx)
	}
	return s.finish(ctx, result, err)
}

func (r *run) execute(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
		skip bool
	}{
		{StageReadConfig, r.readConfig, false},
		{StageLoadSources, r.loadSources, false},
		{StageRender, r.render, false},
		{StageResetOutput, r.resetOutput, false},
		{StageWritePages, r.writePages, false},
		{StageWriteIndex, r.writeIndex, false},
		{StageWriteStylesheet, r.writeStylesheet, false},
		{StageMirrorStatic, r.mirrorStatic, false},
		{StageCommit, r.commit, !r.cfg.Build.Staged},
	}

	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		if err := r.stage(ctx, step.name, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := r.svc.now()
	ctx = observability.WithStage(ctx, name)
	observability.DebugContext(ctx, "Stage started")

	err := fn(ctx)

	d := r.svc.now().Sub(start)
	r.result.Stages = append(r.result.Stages, StageTiming{Name: name, Duration: d})
	r.svc.recorder.ObserveStageDuration(name, d)

	if err != nil {
		r.svc.recorder.IncStageResult(name, resultLabel(err))
		observability.ErrorContext(ctx, "Stage failed", logfields.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	r.svc.recorder.IncStageResult(name, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Stage completed", logfields.DurationMS(float64(d.Microseconds())/1000))
	return nil
}

func (r *run) readConfig(_ context.Context) error {
	raw, err := afero.ReadFile(r.svc.fs, r.cfg.Paths.Config)
	if err != nil {
		return pserrors.FileSystemError("read", r.cfg.Paths.Config, err)
	}
	site, err := render.ParseSite(string(raw))
	if err != nil {
		if ce, ok := pserrors.AsClassified(err); ok {
			return ce.WithContext(pserrors.ContextPath, r.cfg.Paths.Config)
		}
		return err
	}
	r.site = site
	return nil
}

func (r *run) loadSources(ctx context.Context) error {
	loader := source.NewLoader(r.svc.fs, r.svc.extractor).
		WithConcurrency(r.cfg.Build.Concurrency).
		WithClock(r.svc.now)

	docs, err := loader.LoadAll(ctx, r.cfg.Paths.Pages)
	if err != nil {
		return err
	}

	reserved := strings.TrimSuffix(output.IndexName, ".html")
	for _, d := range docs {
		if d.Slug == reserved {
			return pserrors.ValidationError("document slug is reserved for the site index").
				WithContext(pserrors.ContextDocument, d.Origin).
				WithContext("slug", d.Slug).
				Build()
		}
	}

	r.docs = docs
	r.result.Documents = len(docs)
	r.svc.recorder.SetDocumentsLoaded(len(docs))

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		r.result.Fingerprints[d.Slug] = d.Fingerprint
		parts = append(parts, d.Slug+" "+d.Fingerprint)
	}
	slices.Sort(parts)
	r.result.Fingerprint = mdfp.CalculateFingerprintFromParts("", strings.Join(parts, "\n"))
	return nil
}

func (r *run) render(ctx context.Context) error {
	renderer := r.svc.renderer
	if renderer == nil {
		layouts, err := render.LoadLayouts(r.svc.fs, r.cfg.Paths.Layouts)
		if err != nil {
			return err
		}
		if renderer, err = render.NewMarkdown(layouts); err != nil {
			return err
		}
	}

	pages, err := fanout.Map(ctx, r.docs, r.cfg.Build.Concurrency, func(_ context.Context, _ int, doc source.Document) (output.Page, error) {
		markup, err := renderer.Page(r.site, doc)
		if err != nil {
			return output.Page{}, err
		}
		return output.Page{Slug: doc.Slug, Markup: markup}, nil
	})
	if err != nil {
		return err
	}

	markup, err := renderer.Index(r.site, r.docs)
	if err != nil {
		return err
	}

	r.pages = pages
	r.index = output.Index{Markup: markup}
	return nil
}

func (r *run) resetOutput(ctx context.Context) error {
	mgr := builddir.NewManager(r.svc.fs)
	target := r.cfg.Paths.Build

	if r.cfg.Build.Staged {
		staging, err := mgr.Stage(ctx, target)
		if err != nil {
			return err
		}
		r.staging = staging
		target = staging.Path()
	} else if err := mgr.Reset(ctx, target); err != nil {
		return err
	}

	r.writer = output.NewWriter(r.svc.fs, target, r.cfg.Paths.Static, r.svc.compactor).
		WithConcurrency(r.cfg.Build.Concurrency).
		WithVerify(r.cfg.Build.VerifyCompaction)
	return nil
}

func (r *run) writePages(ctx context.Context) error {
	err := fanout.Each(ctx, r.pages, r.cfg.Build.Concurrency, func(ctx context.Context, page output.Page) error {
		return r.writer.WritePage(ctx, page)
	})
	if err != nil {
		return err
	}
	r.result.Pages = len(r.pages)
	r.svc.recorder.AddFilesWritten(metrics.FilePage, len(r.pages))
	return nil
}

func (r *run) writeIndex(ctx context.Context) error {
	if err := r.writer.WriteIndex(ctx, r.index); err != nil {
		return err
	}
	r.svc.recorder.AddFilesWritten(metrics.FileIndex, 1)
	return nil
}

func (r *run) writeStylesheet(ctx context.Context) error {
	sheet := render.DefaultStylesheet()

	path := r.cfg.Paths.Stylesheet
	if path != "" {
		ok, err := afero.Exists(r.svc.fs, path)
		if err != nil {
			return pserrors.FileSystemError("stat", path, err)
		}
		if ok {
			if sheet, err = afero.ReadFile(r.svc.fs, path); err != nil {
				return pserrors.FileSystemError("read", path, err)
			}
		}
	}

	if err := r.writer.WriteStylesheet(ctx, output.Stylesheet{Bytes: sheet}); err != nil {
		return err
	}
	r.svc.recorder.AddFilesWritten(metrics.FileStylesheet, 1)
	return nil
}

func (r *run) mirrorStatic(ctx context.Context) error {
	n, err := r.writer.MirrorStaticAssets(ctx)
	if err != nil {
		return err
	}
	r.result.Assets = n
	r.svc.recorder.AddFilesWritten(metrics.FileAsset, n)
	return nil
}

func (r *run) commit(ctx context.Context) error {
	return r.staging.Commit(ctx)
}

func (s *DefaultService) finish(ctx context.Context, result *Result, err error) (*Result, error) {
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	switch {
	case err == nil:
		result.Status = StatusSuccess
	case isCancellation(err):
		result.Status = StatusCancelled
	default:
		result.Status = StatusFailed
	}

	s.recorder.IncBuildOutcome(resultLabel(err))
	s.recorder.ObserveBuildDuration(result.Duration)

	rec := history.Record{
		BuildID:     result.BuildID,
		Status:      string(result.Status),
		StartedAt:   result.StartTime,
		EndedAt:     result.EndTime,
		Pages:       result.Pages,
		Assets:      result.Assets,
		Fingerprint: result.Fingerprint,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if herr := s.history.RecordBuild(ctx, rec); herr != nil {
		observability.WarnContext(ctx, "Failed to record build history", logfields.Error(herr))
	}

	ev := notify.Event{
		BuildID:     result.BuildID,
		Status:      string(result.Status),
		OutputPath:  result.OutputPath,
		Documents:   result.Documents,
		Pages:       result.Pages,
		Assets:      result.Assets,
		Fingerprint: result.Fingerprint,
		Error:       rec.Error,
		StartedAt:   result.StartTime,
		EndedAt:     result.EndTime,
		DurationMS:  result.Duration.Milliseconds(),
	}
	if nerr := s.notifier.Publish(ctx, ev); nerr != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(nerr))
	}

	if err != nil {
		observability.ErrorContext(ctx, "Build failed", logfields.Status(string(result.Status)), logfields.Error(err))
		return result, err
	}
	observability.InfoContext(ctx, "Build completed",
		logfields.Path(result.OutputPath),
		logfields.Count(result.Pages),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	return result, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func resultLabel(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case isCancellation(err):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}
