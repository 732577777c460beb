package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return pserrors.ConfigError("build history is not enabled (set history.path)").Build()
	}
	if h.Limit <= 0 {
		return pserrors.ValidationError("limit must be positive").
			WithContext("limit", h.Limit).
			Build()
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}

	out := g.out()
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTATUS\tSTARTED\tDURATION\tPAGES\tASSETS\tERROR")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.BuildID, r.Status, r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond), r.Pages, r.Assets, r.Error)
	}
	return tw.Flush()
}
