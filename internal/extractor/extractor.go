// Package extractor pulls entity identifiers out of a content-definition source.
package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"sitemapgen/internal/config"
)

// Extractor errors.
var (
	ErrUnknownExtractor = errors.New("unknown extractor")
	ErrEmptyField       = errors.New("identifier field name is empty")
)

// Extractor returns identifiers in the order they appear in the source.
// Duplicates are kept.
type Extractor interface {
	Name() string
	Extract(content []byte) ([]string, error)
}

// New builds the extractor named by kind for the given identifier field.
// With kind "auto" the source path extension decides: YAML and JSON files
// are decoded as records, everything else is pattern-matched.
func New(kind, field, sourcePath string) (Extractor, error) {
	if field == "" {
		return nil, ErrEmptyField
	}

	if kind == "" || kind == config.ExtractorAuto {
		kind = detect(sourcePath)
	}

	switch kind {
	case config.ExtractorPattern:
		return NewPatternExtractor(field), nil
	case config.ExtractorSyntax:
		return NewSyntaxExtractor(field), nil
	case config.ExtractorRecords:
		return NewRecordExtractor(field), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownExtractor, kind)
}

func detect(sourcePath string) string {
	// Strip any query string from remote sources before looking at the extension.
	if i := strings.IndexAny(sourcePath, "?#"); i >= 0 {
		sourcePath = sourcePath[:i]
	}

	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".yaml", ".yml", ".json":
		return config.ExtractorRecords
	}

	return config.ExtractorPattern
}
