// Package models defines the data structures shared across the sitemap tool.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ChangeFreq is the sitemap protocol hint for how often a page changes.
type ChangeFreq string

// Change frequencies defined by the sitemaps.org protocol.
const (
	ChangeAlways  ChangeFreq = "always"
	ChangeHourly  ChangeFreq = "hourly"
	ChangeDaily   ChangeFreq = "daily"
	ChangeWeekly  ChangeFreq = "weekly"
	ChangeMonthly ChangeFreq = "monthly"
	ChangeYearly  ChangeFreq = "yearly"
	ChangeNever   ChangeFreq = "never"
)

// ChangeFreqs lists every valid change frequency.
var ChangeFreqs = []ChangeFreq{
	ChangeAlways, ChangeHourly, ChangeDaily, ChangeWeekly, ChangeMonthly, ChangeYearly, ChangeNever,
}

// Valid reports whether c is one of the protocol values.
func (c ChangeFreq) Valid() bool {
	for _, f := range ChangeFreqs {
		if c == f {
			return true
		}
	}

	return false
}

// Priority is a relative crawl importance in [0.0, 1.0].
type Priority float64

// Valid reports whether p lies in the protocol range.
func (p Priority) Valid() bool {
	return p >= 0 && p <= 1
}

// String renders the priority with at least one decimal, e.g. 1.0, 0.7, 0.85.
func (p Priority) String() string {
	s := strconv.FormatFloat(float64(p), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(text)), 64)
	if err != nil {
		return fmt.Errorf("invalid priority %q: %w", string(text), err)
	}

	*p = Priority(v)

	return nil
}

// RouteDescriptor describes one static route of the site.
type RouteDescriptor struct {
	Path       string     `yaml:"path" validate:"required,startswith=/"`
	ChangeFreq ChangeFreq `yaml:"changefreq" validate:"required"`
	Priority   Priority   `yaml:"priority" validate:"gte=0,lte=1"`
}
