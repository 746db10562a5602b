package models

import (
	"errors"
	"fmt"
	"strconv"
)

// SourceDocument is a single record read from a source collection
type SourceDocument map[string]any

// IndexAction represents one document of a bulk index request
type IndexAction struct {
	Index  string         `json:"_index"`
	Type   string         `json:"_type"`
	ID     string         `json:"_id"`
	Source map[string]any `json:"_source"`
}

// ErrMissingPrimaryKey is returned when a document has no value for the primary key
var ErrMissingPrimaryKey = errors.New("document missing primary key")

// NewIndexAction converts a source document into an IndexAction.
// The primary key value becomes the action ID and is removed from the source.
// doc itself is left untouched.
func NewIndexAction(index, docType, primaryKey string, doc SourceDocument) (IndexAction, error) {
	id, ok := doc[primaryKey]
	if !ok || id == nil {
		return IndexAction{}, fmt.Errorf("%w %s", ErrMissingPrimaryKey, primaryKey)
	}

	source := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == primaryKey {
			continue
		}
		source[k] = v
	}

	return IndexAction{
		Index:  index,
		Type:   docType,
		ID:     FormatID(id),
		Source: source,
	}, nil
}

// FormatID returns the string form of a primary key value
func FormatID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case []byte:
		return string(id)
	case float64:
		// JSON decoders hand out integral keys as float64
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprintf("%v", id)
	}
}
