package extractor

import (
	"regexp"
)

// jsSpace is JavaScript's \s, which is wider than RE2's: it also covers \v
// and the Unicode spaces, U+FEFF included.
const jsSpace = `[\s\v\p{Z}\x{FEFF}]*`

// PatternExtractor scans raw text for `field: 'value'` or `field: "value"`.
// It does not understand the source structure, so a matching key anywhere in
// the text (comments, nested objects, strings) counts.
type PatternExtractor struct {
	field   string
	pattern *regexp.Regexp
}

// NewPatternExtractor creates a pattern extractor for the given field name.
func NewPatternExtractor(field string) *PatternExtractor {
	return &PatternExtractor{
		field:   field,
		pattern: regexp.MustCompile(regexp.QuoteMeta(field) + `:` + jsSpace + `['"]([^'"]+)['"]`),
	}
}

// Name implements Extractor.
func (p *PatternExtractor) Name() string {
	return "pattern"
}

// Extract returns the quoted value of every non-overlapping match, left to right.
func (p *PatternExtractor) Extract(content []byte) ([]string, error) {
	matches := p.pattern.FindAllSubmatch(content, -1)

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, string(m[1]))
	}

	return ids, nil
}
