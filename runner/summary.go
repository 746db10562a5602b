package runner

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// RenderSummary writes the resolved options as a table.
// Source settings are listed only when documents are pushed.
func RenderSummary(w io.Writer, o *Options) error {
	rows := [][]string{
		{"Index", "Node", o.Node},
		{"", "Index", o.Index},
	}
	if len(o.DocTypes) > 0 {
		rows = append(rows, []string{"", "Doc types", strings.Join(o.DocTypes, ", ")})
	}
	if o.Mappings {
		rows = append(rows, []string{"", "Mappings path", o.MapPath})
	}

	rows = append(rows,
		[]string{"Tasks", "Rebuild index", strconv.FormatBool(o.Rebuild)},
		[]string{"", "Update mappings", strconv.FormatBool(o.Mappings)},
		[]string{"", "Push documents", strconv.FormatBool(o.Push)},
		[]string{"", "Verbose", strconv.FormatBool(o.Verbose)},
	)

	if o.Push {
		rows = append(rows,
			[]string{"Source", "Type", o.Source},
			[]string{"", "Server", o.Host},
		)
		if o.Database != "" {
			rows = append(rows, []string{"", "Database", o.Database})
		}
		rows = append(rows,
			[]string{"", "Collections", strings.Join(o.DocTypes, ", ")},
			[]string{"", "Page size", strconv.Itoa(o.PageSize)},
		)
		if o.PrimaryKey != "" {
			rows = append(rows, []string{"", "Primary key", o.PrimaryKey})
		}
	}

	table := tablewriter.NewWriter(w)
	table.Header("Section", "Setting", "Value")
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building summary table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering summary table: %w", err)
	}
	return nil
}
