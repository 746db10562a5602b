package runner

import (
	"errors"
	"io/fs"

	"esmrebuild/indexer"
	"esmrebuild/models"
	"esmrebuild/sources"
)

// Kind classifies why a run failed
type Kind string

const (
	// KindConfig covers invalid options and mismatched mapping files
	KindConfig Kind = "config"
	// KindFilesystem covers unreadable or malformed local files
	KindFilesystem Kind = "filesystem"
	// KindRemote covers failures reported by the index engine or the source database
	KindRemote Kind = "remote"
	// KindVerification covers state that did not match after an operation
	KindVerification Kind = "verification"
)

// Error is the single error value a run returns
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fail wraps err into an Error of the given kind
func Fail(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" if err is not an Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// classify wraps an error from a lower package with the kind it belongs to
func classify(op string, err error) error {
	var pathErr *fs.PathError

	switch {
	case errors.Is(err, indexer.ErrMappingMismatch),
		errors.Is(err, sources.ErrUnknownType),
		errors.Is(err, sources.ErrInvalidPageSize):
		return Fail(KindConfig, op, err)

	case errors.Is(err, indexer.ErrIndexNotFound),
		errors.Is(err, indexer.ErrIndexNotCreated),
		errors.Is(err, indexer.ErrIndexNotDeleted),
		errors.Is(err, indexer.ErrEmptyMapping),
		errors.Is(err, models.ErrMissingPrimaryKey):
		return Fail(KindVerification, op, err)

	case errors.Is(err, indexer.ErrInvalidMappingFile),
		errors.As(err, &pathErr):
		return Fail(KindFilesystem, op, err)

	default:
		return Fail(KindRemote, op, err)
	}
}
