// Package output renders a query result as table, CSV, or JSON text, the
// same role smf's internal/output plays for schema diffs and migrations
// (a Format enum plus a NewFormatter factory), retargeted at SQL row sets.
package output

import (
	"fmt"
	"strings"

	"tegdb/internal/types"
)

// Format is an enum type over the result-rendering modes the CLI accepts.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// Formatter renders one query result (columns plus rows of typed values).
type Formatter interface {
	FormatResult(columns []string, rows [][]types.Value) (string, error)
}

// NewFormatter creates a Formatter for name. An empty name defaults to
// table.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatTable:
		return tableFormatter{}, nil
	case FormatCSV:
		return csvFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported mode: %s; use 'table', 'csv', or 'json'", name)
	}
}

func cellText(v types.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.String()
}
