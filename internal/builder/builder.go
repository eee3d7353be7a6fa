// Package builder assembles the sitemap from the static route table and the
// identifiers discovered in the content source.
package builder

import (
	"context"
	"fmt"
	"time"

	"sitemapgen/internal/config"
	"sitemapgen/internal/extractor"
	"sitemapgen/internal/logger"
	"sitemapgen/internal/models"
	"sitemapgen/internal/output"
	"sitemapgen/internal/sitemap"
	"sitemapgen/internal/source"
	"sitemapgen/internal/validator"
)

// The two failure kinds of a run.
var (
	ErrSourceRead       = source.ErrSourceRead
	ErrDestinationWrite = output.ErrDestinationWrite
)

// ContentLoader returns the raw content of the source at path.
type ContentLoader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// FileWriter replaces the file at path with data.
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// Builder produces and persists sitemap documents.
type Builder struct {
	site       config.SiteConfig
	sourcePath string
	outputPath string
	loader     ContentLoader
	extractor  extractor.Extractor
	writer     FileWriter
	validator  *validator.SitemapValidator
	logger     *logger.Logger
	now        func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLoader replaces the source loader.
func WithLoader(l ContentLoader) Option {
	return func(b *Builder) { b.loader = l }
}

// WithWriter replaces the output writer.
func WithWriter(w FileWriter) Option {
	return func(b *Builder) { b.writer = w }
}

// WithClock sets the time source used for lastmod.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New creates a builder for cfg.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Builder, error) {
	ex, err := extractor.New(cfg.Source.Extractor, cfg.Source.IDField, cfg.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	b := &Builder{
		site:       cfg.Site,
		sourcePath: cfg.Source.Path,
		outputPath: cfg.Output.Path,
		loader:     source.NewLoader(cfg.Source, log),
		extractor:  ex,
		writer:     output.NewWriter(cfg.Output.Atomic),
		validator:  validator.NewSitemapValidator(cfg.Site.BaseURL),
		logger:     log.With("component", "builder"),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// ExtractIDs reads the source and returns the discovered identifiers.
func (b *Builder) ExtractIDs(ctx context.Context) ([]string, error) {
	content, err := b.loader.Load(ctx, b.sourcePath)
	if err != nil {
		return nil, err
	}

	ids, err := b.extractor.Extract(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, b.sourcePath, err)
	}

	b.logger.Info(fmt.Sprintf("Found %d notes.", len(ids)),
		"count", len(ids), "extractor", b.extractor.Name(), "source", b.sourcePath)

	return ids, nil
}

// Assemble creates the document: static routes in declaration order followed
// by one entry per identifier in extraction order.
func (b *Builder) Assemble(ids []string, now time.Time) *models.Document {
	lastmod := now.UTC().Format(models.DateLayout)

	doc := &models.Document{
		URLSet: models.URLSet{
			Xmlns: models.Namespace,
			URLs:  make([]models.URLEntry, 0, len(b.site.Routes)+len(ids)),
		},
		StaticCount:  len(b.site.Routes),
		DynamicCount: len(ids),
	}

	for _, route := range b.site.Routes {
		doc.URLs = append(doc.URLs, models.URLEntry{
			Loc:        b.site.BaseURL + route.Path,
			LastMod:    lastmod,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
			Kind:       models.KindStatic,
		})
	}

	for _, id := range ids {
		doc.URLs = append(doc.URLs, models.URLEntry{
			Loc:        b.site.BaseURL + b.site.Dynamic.Prefix + id,
			LastMod:    lastmod,
			ChangeFreq: b.site.Dynamic.ChangeFreq,
			Priority:   b.site.Dynamic.Priority,
			Kind:       models.KindDynamic,
		})
	}

	return doc
}

// Build reads the source and assembles the document without writing it.
func (b *Builder) Build(ctx context.Context) (*models.Document, error) {
	ids, err := b.ExtractIDs(ctx)
	if err != nil {
		return nil, err
	}

	return b.Assemble(ids, b.now()), nil
}

// Result describes a completed run.
type Result struct {
	Document    *models.Document
	Validation  *validator.ValidationResult
	Destination string
	Bytes       int
	Written     bool
	Duration    time.Duration
}

// Run builds, serializes and writes the sitemap. With dryRun the destination
// is left untouched.
func (b *Builder) Run(ctx context.Context, dryRun bool) (*Result, error) {
	start := time.Now()

	doc, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}

	validation := b.validator.Validate(&doc.URLSet)
	for _, w := range validation.Warnings {
		b.logger.Warn(w)
	}

	for _, e := range validation.Errors {
		b.logger.Warn("sitemap entry fails protocol check", "index", e.Index, "field", e.Field, "value", e.Value, "reason", e.Message)
	}

	data, err := sitemap.Marshal(&doc.URLSet)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Document:    doc,
		Validation:  validation,
		Destination: b.outputPath,
		Bytes:       len(data),
	}

	if !dryRun {
		if err := b.writer.WriteFile(b.outputPath, data); err != nil {
			return nil, err
		}

		result.Written = true
		b.logger.Info("sitemap written", "path", b.outputPath, "urls", doc.Len(), "bytes", len(data))
	}

	result.Duration = time.Since(start)

	return result, nil
}

// Destination returns the configured output path.
func (b *Builder) Destination() string {
	return b.outputPath
}

// SourcePath returns the configured source path.
func (b *Builder) SourcePath() string {
	return b.sourcePath
}
