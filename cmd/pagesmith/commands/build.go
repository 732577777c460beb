package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/pagesmith/internal/build"
	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/history"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/notify"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Concurrency int  `short:"j" help:"Maximum parallel file operations (0 = unbounded, -1 = use config)" default:"-1"`
	Staged      bool `help:"Build into a staging directory and swap it in only on success"`
	Verify      bool `help:"Fail when compaction changes the visible text of a page"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := b.apply(cfg); err != nil {
		return err
	}
	return RunBuild(ctx, g, cfg)
}

// apply layers the command-line overrides on top of the loaded config.
func (b *BuildCmd) apply(cfg *config.Config) error {
	if b.Concurrency >= 0 {
		cfg.Build.Concurrency = b.Concurrency
	}
	if b.Staged {
		cfg.Build.Staged = true
	}
	if b.Verify {
		cfg.Build.VerifyCompaction = true
	}
	return config.Validate(cfg)
}

// RunBuild executes one build with the metrics and history sinks the
// configuration asks for.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config) error {
	out := g.out()
	_, _ = fmt.Fprintln(out, "Starting pagesmith build")

	svc := build.NewService(afero.NewOsFs())

	var reg *prometheus.Registry
	if cfg.Metrics.Textfile != "" {
		reg = prometheus.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(reg))
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				slog.Warn("Failed to close history store", "error", cerr)
			}
		}()
		svc.WithHistory(store)
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Build events disabled", "error", err)
		} else {
			defer func() { _ = pub.Close() }()
			svc.WithNotifier(pub)
		}
	}

	result, err := svc.Run(ctx, build.Request{Config: cfg})

	if reg != nil {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); werr != nil {
			slog.Warn("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}

	if err != nil {
		_, _ = fmt.Fprintln(out, "Build failed")
		return err
	}

	_, _ = fmt.Fprintf(out, "Built %d pages and %d static assets into %s in %s (build %s)\n",
		result.Pages, result.Assets, result.OutputPath, result.Duration.Round(time.Millisecond), result.BuildID)
	return nil
}
