package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sitemapgen/internal/builder"
	"sitemapgen/internal/sitemap"
	"sitemapgen/internal/validator"
	"sitemapgen/pkg/metadata"
)

// Check outcomes that make the command exit non-zero.
var (
	ErrStaleSitemap   = errors.New("sitemap is out of date")
	ErrInvalidSitemap = errors.New("sitemap fails validation")
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the existing sitemap is valid and up to date",
		Long: "Decodes the destination sitemap, validates it against the sitemap protocol, and compares " +
			"it with a fresh build. lastmod is ignored, so a rebuild on a later day is still up to date.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd.Context())
		},
	}
}

func (a *app) runCheck(ctx context.Context) error {
	path := a.cfg.Output.Path

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	existing, err := sitemap.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	result := validator.NewSitemapValidator(a.cfg.Site.BaseURL).Validate(existing)
	result.PrintWarnings(a.stdout)

	if !result.IsValid {
		result.PrintErrors(a.stdout)
		return fmt.Errorf("%w: %s: %s", ErrInvalidSitemap, path, result.String())
	}

	b, err := builder.New(a.cfg, a.log)
	if err != nil {
		return err
	}

	fresh, err := b.Build(ctx)
	if err != nil {
		return err
	}

	if err := metadata.Verify(existing, metadata.Fingerprint(&fresh.URLSet)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStaleSitemap, path, err)
	}

	fmt.Fprintf(a.stdout, "Sitemap at %s is up to date (%d URLs, lastmod %s)\n",
		path, len(existing.URLs), metadata.LastModified(existing))

	return nil
}
