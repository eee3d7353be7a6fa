package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Record extractor errors.
var (
	ErrNoRecords        = errors.New("source has no record list")
	ErrAmbiguousRecords = errors.New("source has more than one record list")
)

// RecordExtractor decodes a YAML or JSON document holding a list of records
// and reads the field of each record.
type RecordExtractor struct {
	field string
}

// NewRecordExtractor creates a record extractor.
func NewRecordExtractor(field string) *RecordExtractor {
	return &RecordExtractor{field: field}
}

// Name implements Extractor.
func (r *RecordExtractor) Name() string {
	return "records"
}

// Extract accepts either a top-level list or a mapping with exactly one list value.
func (r *RecordExtractor) Extract(content []byte) ([]string, error) {
	doc, err := decodeRecords(content)
	if err != nil {
		return nil, err
	}

	records, err := recordList(doc)
	if err != nil {
		return nil, err
	}

	ids := []string{}

	for _, rec := range records {
		fields, ok := rec.(map[string]any)
		if !ok {
			continue
		}

		if id, ok := fields[r.field].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// decodeRecords reads JSON with encoding/json, since the YAML decoder rejects
// some JSON escapes such as \/. A document that only looks like JSON (a YAML
// flow collection) falls back to YAML.
func decodeRecords(content []byte) (any, error) {
	var doc any

	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		jsonErr := json.Unmarshal(trimmed, &doc)
		if jsonErr == nil {
			return doc, nil
		}

		doc = nil
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", jsonErr)
		}

		return doc, nil
	}

	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	return doc, nil
}

func recordList(doc any) ([]any, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		var found []any

		lists := 0

		for _, val := range v {
			if list, ok := val.([]any); ok {
				found = list
				lists++
			}
		}

		switch lists {
		case 0:
			return nil, ErrNoRecords
		case 1:
			return found, nil
		default:
			return nil, ErrAmbiguousRecords
		}
	}

	return nil, ErrNoRecords
}
