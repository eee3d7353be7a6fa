// Package validator checks sitemap documents against the sitemaps.org protocol.
package validator

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"sitemapgen/internal/models"
)

// MaxURLs is the protocol limit of entries in one sitemap file.
const MaxURLs = 50000

// ValidationError describes one failing entry. Index is -1 for document-level errors.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Index   int
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalURLs    int
	ValidURLs    int
	InvalidURLs  int
	DuplicateLoc int
}

// SitemapValidator validates documents for one site.
type SitemapValidator struct {
	baseURL string
	base    *url.URL
}

// NewSitemapValidator creates a validator. An empty baseURL skips the
// same-site check on locations.
func NewSitemapValidator(baseURL string) *SitemapValidator {
	v := &SitemapValidator{baseURL: strings.TrimRight(baseURL, "/")}

	if v.baseURL != "" {
		if u, err := url.Parse(v.baseURL); err == nil && u.Host != "" {
			v.base = u
		}
	}

	return v
}

// sameSite reports whether u has the scheme and host of the base URL and lies
// under its path. An unparsable base URL matches nothing.
func (v *SitemapValidator) sameSite(u *url.URL) bool {
	if v.base == nil {
		return false
	}

	if !strings.EqualFold(u.Scheme, v.base.Scheme) || !strings.EqualFold(u.Host, v.base.Host) {
		return false
	}

	basePath := strings.TrimRight(v.base.Path, "/")
	if basePath == "" {
		return true
	}

	return u.Path == basePath || strings.HasPrefix(u.Path, basePath+"/")
}

// Validate checks every entry and the document as a whole.
func (v *SitemapValidator) Validate(set *models.URLSet) *ValidationResult {
	result := &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
	}

	result.Stats.TotalURLs = len(set.URLs)

	if len(set.URLs) > MaxURLs {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Index:   -1,
			Message: fmt.Sprintf("sitemap has %d URLs, protocol limit is %d", len(set.URLs), MaxURLs),
		})
	}

	seen := make(map[string]int, len(set.URLs))

	for i, entry := range set.URLs {
		errs := v.validateEntry(i, entry)
		if len(errs) > 0 {
			result.IsValid = false
			result.Stats.InvalidURLs++
			result.Errors = append(result.Errors, errs...)
		} else {
			result.Stats.ValidURLs++
		}

		if first, dup := seen[entry.Loc]; dup {
			result.Stats.DuplicateLoc++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("duplicate loc %s at #%d (first at #%d)", entry.Loc, i, first))
		} else {
			seen[entry.Loc] = i
		}
	}

	return result
}

// validateEntry validates a single <url> element.
func (v *SitemapValidator) validateEntry(i int, entry models.URLEntry) []ValidationError {
	var errs []ValidationError

	if entry.Loc == "" {
		errs = append(errs, ValidationError{Index: i, Field: "loc", Message: "loc is empty"})
	} else if u, err := url.Parse(entry.Loc); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Index:   i,
			Field:   "loc",
			Value:   truncate(entry.Loc, 80),
			Message: "loc is not an absolute http(s) URL",
		})
	} else if v.baseURL != "" && !v.sameSite(u) {
		errs = append(errs, ValidationError{
			Index:   i,
			Field:   "loc",
			Value:   truncate(entry.Loc, 80),
			Message: fmt.Sprintf("loc is outside %s", v.baseURL),
		})
	}

	if _, err := time.Parse(models.DateLayout, entry.LastMod); err != nil {
		errs = append(errs, ValidationError{
			Index:   i,
			Field:   "lastmod",
			Value:   entry.LastMod,
			Message: "lastmod is not YYYY-MM-DD",
		})
	}

	if !entry.ChangeFreq.Valid() {
		errs = append(errs, ValidationError{
			Index:   i,
			Field:   "changefreq",
			Value:   string(entry.ChangeFreq),
			Message: "changefreq is not a protocol value",
		})
	}

	if !entry.Priority.Valid() {
		errs = append(errs, ValidationError{
			Index:   i,
			Field:   "priority",
			Value:   entry.Priority.String(),
			Message: "priority is outside [0.0, 1.0]",
		})
	}

	return errs
}

// truncate truncates string to max length.
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}

	return s
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "VALID"
	if !r.IsValid {
		status = "INVALID"
	}

	return fmt.Sprintf(
		"%s | Total: %d | Valid: %d | Invalid: %d | Warnings: %d",
		status,
		r.Stats.TotalURLs,
		r.Stats.ValidURLs,
		r.Stats.InvalidURLs,
		len(r.Warnings),
	)
}

// PrintErrors writes validation errors in readable format.
func (r *ValidationResult) PrintErrors(w io.Writer) {
	if len(r.Errors) == 0 {
		return
	}

	fmt.Fprintln(w, "Validation errors:")

	for _, err := range r.Errors {
		if err.Index < 0 {
			fmt.Fprintf(w, "  %s\n", err.Message)
			continue
		}

		fmt.Fprintf(w, "  #%d [%s]: %s\n", err.Index, err.Field, err.Message)

		if err.Value != "" {
			fmt.Fprintf(w, "    Found: %q\n", err.Value)
		}
	}
}

// PrintWarnings writes validation warnings.
func (r *ValidationResult) PrintWarnings(w io.Writer) {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Fprintln(w, "Validation warnings:")

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  %s\n", warn)
	}
}
