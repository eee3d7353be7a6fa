package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sitemapgen/internal/builder"
	"sitemapgen/internal/metrics"
	"sitemapgen/internal/report"
)

type generateOptions struct {
	dryRun      bool
	metricsFile string
}

func (o *generateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Print the entries instead of writing the sitemap")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build and write the sitemap",
		Long:  "Reads the content source, assembles static and note entries, and replaces the destination sitemap.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd.Context(), opts)
		},
	}

	opts.bind(cmd)

	return cmd
}

func (a *app) runGenerate(ctx context.Context, opts *generateOptions) error {
	b, err := builder.New(a.cfg, a.log)
	if err != nil {
		return err
	}

	started := time.Now()
	result, runErr := b.Run(ctx, opts.dryRun)

	a.writeMetrics(opts.metricsFile, result, time.Since(started), runErr, started)

	if runErr != nil {
		return fmt.Errorf("sitemap generation failed: %w", runErr)
	}

	if opts.dryRun {
		fmt.Fprint(a.stdout, report.Entries(result.Document.URLs))
		fmt.Fprintf(a.stdout, "Dry run: %d URLs (%d static, %d notes), %s not written\n",
			result.Document.Len(), result.Document.StaticCount, result.Document.DynamicCount, result.Destination)

		return nil
	}

	fmt.Fprintf(a.stdout, "Sitemap generated successfully at %s\n", result.Destination)

	return nil
}

// writeMetrics exports the run outcome. Failures here never fail the run.
func (a *app) writeMetrics(path string, result *builder.Result, took time.Duration, runErr error, at time.Time) {
	if path == "" {
		path = a.cfg.Metrics.Textfile
	}

	if path == "" {
		return
	}

	rec := metrics.NewRecorder()

	var static, dynamic int
	if result != nil {
		static = result.Document.StaticCount
		dynamic = result.Document.DynamicCount
	}

	rec.RecordRun(static, dynamic, took, runErr, at)

	if err := rec.WriteTextfile(path); err != nil {
		a.log.Warn("failed to write metrics textfile", "path", path, "error", err)
		return
	}

	a.log.Debug("metrics written", "path", path)
}
