package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/bytedance/sonic"
)

// ErrUnsupportedFieldType is returned for mapping field types the local backend cannot index
var ErrUnsupportedFieldType = errors.New("unsupported field type")

// property is the subset of an Elasticsearch field mapping understood here
type property struct {
	Type       string              `json:"type"`
	Index      *bool               `json:"index"`
	Dynamic    any                 `json:"dynamic"`
	Properties map[string]property `json:"properties"`
}

// buildIndexMapping turns per-type Elasticsearch mapping bodies into a bleve index mapping
func buildIndexMapping(mappings map[string]json.RawMessage) (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.TypeField = TypeField

	for docType, raw := range mappings {
		var body property
		if err := sonic.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decoding mapping %s: %w", docType, err)
		}

		docMapping, err := documentMapping(body)
		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", docType, err)
		}
		indexMapping.AddDocumentMapping(docType, docMapping)
	}

	if err := indexMapping.Validate(); err != nil {
		return nil, err
	}
	return indexMapping, nil
}

func documentMapping(p property) (*mapping.DocumentMapping, error) {
	docMapping := bleve.NewDocumentMapping()
	if isStrict(p.Dynamic) {
		docMapping.Dynamic = false
	}

	for name, field := range p.Properties {
		if field.Type == "" || field.Type == "object" || field.Type == "nested" {
			sub, err := documentMapping(field)
			if err != nil {
				return nil, fmt.Errorf("%s.%w", name, err)
			}
			docMapping.AddSubDocumentMapping(name, sub)
			continue
		}

		fieldMapping, err := newFieldMapping(field.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if field.Index != nil && !*field.Index {
			fieldMapping.Index = false
		}
		docMapping.AddFieldMappingsAt(name, fieldMapping)
	}

	return docMapping, nil
}

func newFieldMapping(fieldType string) (*mapping.FieldMapping, error) {
	switch fieldType {
	case "text":
		return bleve.NewTextFieldMapping(), nil
	case "keyword":
		return bleve.NewKeywordFieldMapping(), nil
	case "long", "integer", "short", "byte", "double", "float", "half_float", "scaled_float":
		return bleve.NewNumericFieldMapping(), nil
	case "boolean":
		return bleve.NewBooleanFieldMapping(), nil
	case "date":
		return bleve.NewDateTimeFieldMapping(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, fieldType)
	}
}

// isStrict reports whether an Elasticsearch "dynamic" setting disables dynamic fields
func isStrict(dynamic any) bool {
	switch d := dynamic.(type) {
	case bool:
		return !d
	case string:
		return d == "false" || d == "strict"
	default:
		return false
	}
}
