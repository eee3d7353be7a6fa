package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sitemapgen/internal/builder"
	"sitemapgen/internal/watch"
)

// ErrRemoteWatch is returned when watch is asked to follow a URL source.
var ErrRemoteWatch = errors.New("watch requires a local source file")

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the sitemap whenever the content source changes",
		Long: "Generates once, then watches the source file and regenerates after each burst of " +
			"changes. A failed rebuild is logged and watching continues. Stops on Ctrl-C.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWatch(cmd.Context())
		},
	}
}

func (a *app) runWatch(ctx context.Context) error {
	if a.cfg.Source.IsRemote() {
		return fmt.Errorf("%w: %s", ErrRemoteWatch, a.cfg.Source.Path)
	}

	b, err := builder.New(a.cfg, a.log)
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) error {
		result, err := b.Run(ctx, false)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.stdout, "Sitemap generated successfully at %s\n", result.Destination)

		return nil
	}

	if err := rebuild(ctx); err != nil {
		a.log.Error("initial build failed", "error", err)
	}

	w, err := watch.New(b.SourcePath(), a.cfg.Watch.Debounce(), rebuild, a.log)
	if err != nil {
		return err
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()

	stats := w.Stats()
	a.log.Info("watch stopped", "rebuilds", stats.Rebuilds, "failures", stats.Failures)

	return nil
}
