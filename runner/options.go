package runner

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"esmrebuild/sources"
)

// DefaultPageSize is the number of documents fetched per page
const DefaultPageSize = 500

// Options are the resolved command line choices of one run
type Options struct {
	Rebuild  bool
	Mappings bool
	Push     bool
	Verbose  bool

	Node     string
	Index    string
	DocTypes []string
	MapPath  string

	Source     string
	Host       string
	Database   string
	PageSize   int
	PrimaryKey string
	MaxConns   int32
}

// Validate checks the options against each other.
// sourceTypes lists the source types that can be opened.
func (o *Options) Validate(sourceTypes []string) error {
	if !o.Rebuild && !o.Mappings && !o.Push {
		return Fail(KindConfig, "validate", errors.New("no action selected, use any of --rebuild, --mappings, --push"))
	}
	if strings.TrimSpace(o.Node) == "" {
		return Fail(KindConfig, "validate", errors.New("no search node specified"))
	}
	if strings.TrimSpace(o.Index) == "" {
		return Fail(KindConfig, "validate", errors.New("no index specified"))
	}

	if o.Mappings {
		if o.MapPath == "" {
			return Fail(KindConfig, "validate", errors.New("--mappings requires --mappath"))
		}
		info, err := os.Stat(o.MapPath)
		if err != nil {
			return Fail(KindConfig, "validate", fmt.Errorf("mappings path does not exist (%s)", o.MapPath))
		}
		if !info.IsDir() {
			return Fail(KindConfig, "validate", fmt.Errorf("mappings path is not a directory (%s)", o.MapPath))
		}
	}

	if o.PageSize <= 0 {
		return Fail(KindConfig, "validate", fmt.Errorf("page size must be positive, got %d", o.PageSize))
	}

	if o.Push {
		if !slices.Contains(sourceTypes, o.Source) {
			return Fail(KindConfig, "validate", fmt.Errorf("%w: %q (known: %s)",
				sources.ErrUnknownType, o.Source, strings.Join(sourceTypes, ", ")))
		}
		if o.Host == "" {
			return Fail(KindConfig, "validate", errors.New("--push requires the source --host"))
		}
		if o.Database == "" && o.Source != "file" {
			return Fail(KindConfig, "validate", errors.New("--push requires the source --db"))
		}
		if len(o.DocTypes) == 0 {
			return Fail(KindConfig, "validate", errors.New("--push requires at least one --doctypes entry"))
		}
	}

	return nil
}

// SourceConfig returns the configuration used to open the source
func (o *Options) SourceConfig() sources.Config {
	return sources.Config{
		Type:       o.Source,
		Host:       o.Host,
		Database:   o.Database,
		PrimaryKey: o.PrimaryKey,
		MaxConns:   o.MaxConns,
	}
}

// Actions returns the names of the selected actions in execution order
func (o *Options) Actions() []string {
	var actions []string
	if o.Rebuild {
		actions = append(actions, "rebuild")
	}
	if o.Mappings {
		actions = append(actions, "mappings")
	}
	if o.Push {
		actions = append(actions, "push")
	}
	return actions
}
