package indexer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
)

// LoadMapping reads a mapping file and returns the mapping body for docType.
// The file must hold a JSON object whose single top-level key is docType.
func LoadMapping(path, docType string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}

	var mapping map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidMappingFile, path, err)
	}

	if len(mapping) != 1 {
		keys := make([]string, 0, len(mapping))
		for k := range mapping {
			keys = append(keys, k)
		}
		return nil, fmt.Errorf("%w: expected the single key %q, got %v", ErrMappingMismatch, docType, keys)
	}

	var key string
	for key = range mapping {
	}
	if key != docType {
		return nil, fmt.Errorf("%w\n- Mapping: %s\n- Doctype: %s", ErrMappingMismatch, key, docType)
	}

	return mapping[key], nil
}
