package formats

import (
	"errors"
	"path/filepath"
	"strings"

	"esmrebuild/models"
)

// DocumentParser is an interface for parsing exported documents from different formats
type DocumentParser interface {
	// Parse parses the input data and returns a slice of documents
	Parse(data []byte) ([]models.SourceDocument, error)
}

// ErrUnsupportedFormat is returned when the requested format is not supported
var ErrUnsupportedFormat = errors.New("unsupported format")

// Extensions lists the file extensions recognised by ForFile, in lookup order
var Extensions = []string{".jsonl", ".ndjson", ".json", ".msgpack", ".mpk"}

// GetParser returns the appropriate parser for the given format
func GetParser(format string) (DocumentParser, error) {
	switch format {
	case "jsoneachrow":
		return &JSONEachRowParser{}, nil
	case "msgpack":
		return &MsgpackParser{}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ForFile picks a parser from the extension of path
func ForFile(path string) (DocumentParser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return GetParser("jsoneachrow")
	case ".msgpack", ".mpk":
		return GetParser("msgpack")
	default:
		return nil, ErrUnsupportedFormat
	}
}
