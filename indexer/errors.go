package indexer

import "errors"

var (
	// ErrIndexNotFound is returned when deleting an index that does not exist
	ErrIndexNotFound = errors.New("index does not exist")

	// ErrIndexNotCreated is returned when an index is still missing after creation
	ErrIndexNotCreated = errors.New("index not present after create")

	// ErrIndexNotDeleted is returned when an index is still present after deletion
	ErrIndexNotDeleted = errors.New("index still present after delete")

	// ErrMappingMismatch is returned when a mapping file is not keyed by its document type
	ErrMappingMismatch = errors.New("mapping key does not match document type")

	// ErrInvalidMappingFile is returned when a mapping file is not a JSON object
	ErrInvalidMappingFile = errors.New("invalid mapping file")

	// ErrEmptyMapping is returned when the engine reports no mappings after a put
	ErrEmptyMapping = errors.New("no mappings reported after put")
)
