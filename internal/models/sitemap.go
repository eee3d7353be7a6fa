package models

import "encoding/xml"

// Namespace is the sitemaps.org schema namespace declared on the root element.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// DateLayout is the lastmod format written for every entry.
const DateLayout = "2006-01-02"

// EntryKind tells whether an entry came from the static table or the content source.
type EntryKind int

// Entry kinds.
const (
	KindStatic EntryKind = iota
	KindDynamic
)

func (k EntryKind) String() string {
	if k == KindDynamic {
		return "dynamic"
	}

	return "static"
}

// URLEntry is one <url> element. Field order is the element order on the wire.
type URLEntry struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod"`
	ChangeFreq ChangeFreq `xml:"changefreq"`
	Priority   Priority   `xml:"priority"`
	Kind       EntryKind  `xml:"-"`
}

// URLSet is the sitemap document root.
type URLSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []URLEntry `xml:"url"`
}

// Document is a built sitemap plus the counts that produced it.
type Document struct {
	URLSet
	StaticCount  int `xml:"-"`
	DynamicCount int `xml:"-"`
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.URLs)
}
