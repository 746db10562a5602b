package models

import "encoding/json"

// IndexConfig describes an index held by the local backend
type IndexConfig struct {
	Name string `json:"name"`
	// Mappings holds the mapping body applied for each document type
	Mappings map[string]json.RawMessage `json:"mappings,omitempty"`
}
