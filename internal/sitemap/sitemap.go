// Package sitemap encodes and decodes sitemaps.org XML documents.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"sitemapgen/internal/models"
)

// Serialization errors.
var (
	ErrWrongRoot      = errors.New("root element is not <urlset>")
	ErrWrongNamespace = errors.New("root element does not declare the sitemap namespace")
)

// Encode writes set as an indented UTF-8 XML document with declaration.
func Encode(w io.Writer, set *models.URLSet) error {
	out := *set
	out.XMLName = xml.Name{Local: "urlset"}
	out.Xmlns = models.Namespace

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode sitemap: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush sitemap: %w", err)
	}

	_, err := io.WriteString(w, "\n")

	return err
}

// Marshal returns the encoded document.
func Marshal(set *models.URLSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, set); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// anyRoot accepts whatever root element the document has so the caller can
// report it instead of a generic decoder error.
type anyRoot struct {
	XMLName xml.Name
	URLs    []models.URLEntry `xml:"url"`
}

// Decode reads a sitemap document and checks its root element.
func Decode(r io.Reader) (*models.URLSet, error) {
	var doc anyRoot
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap: %w", err)
	}

	if doc.XMLName.Local != "urlset" {
		return nil, fmt.Errorf("%w: <%s>", ErrWrongRoot, doc.XMLName.Local)
	}

	if doc.XMLName.Space != models.Namespace {
		return nil, fmt.Errorf("%w: %q", ErrWrongNamespace, doc.XMLName.Space)
	}

	return &models.URLSet{
		Xmlns: doc.XMLName.Space,
		URLs:  doc.URLs,
	}, nil
}
