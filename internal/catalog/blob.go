package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"tegdb/internal/dberr"
	"tegdb/internal/types"
)

// EncodeSchemaBlob renders s in the on-disk schema-blob format stored under
// "S:<table>": pipe-separated column entries, each
// "<name>:<type-debug-string>[:<constraints>]" where constraints are
// comma-separated tokens from {PRIMARY_KEY, NOT_NULL, UNIQUE}.
func EncodeSchemaBlob(s *Schema) []byte {
	parts := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		entry := col.Name + ":" + col.Type.String()
		if len(col.Constraints) > 0 {
			tokens := make([]string, len(col.Constraints))
			for j, c := range col.Constraints {
				tokens[j] = string(c)
			}
			entry += ":" + strings.Join(tokens, ",")
		}
		parts[i] = entry
	}
	return []byte(strings.Join(parts, "|"))
}

// DecodeSchemaBlob parses the on-disk schema-blob format back into a
// validated Schema for table.
func DecodeSchemaBlob(table string, blob []byte) (*Schema, error) {
	text := string(blob)
	if text == "" {
		return nil, fmt.Errorf("%w: empty schema blob for table %q", dberr.ErrCorruption, table)
	}
	entries := strings.Split(text, "|")
	columns := make([]*Column, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Split(entry, ":")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: malformed column entry %q in schema for table %q", dberr.ErrCorruption, entry, table)
		}
		colType, err := parseTypeDebugString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: table %q column %q: %v", dberr.ErrCorruption, table, fields[0], err)
		}
		col := &Column{Name: fields[0], Type: colType}
		if len(fields) >= 3 && fields[2] != "" {
			for _, tok := range strings.Split(fields[2], ",") {
				col.Constraints = append(col.Constraints, Constraint(tok))
			}
		}
		columns = append(columns, col)
	}
	return NewSchema(table, columns)
}

// parseTypeDebugString parses the type-debug-string produced by
// types.ColumnType.String(): "INTEGER", "REAL", "TEXT(N)", "VECTOR(D)".
func parseTypeDebugString(s string) (types.ColumnType, error) {
	switch {
	case s == "INTEGER":
		return types.ColumnType{Kind: types.ColInteger}, nil
	case s == "REAL":
		return types.ColumnType{Kind: types.ColReal}, nil
	case strings.HasPrefix(s, "TEXT(") && strings.HasSuffix(s, ")"):
		n, err := strconv.Atoi(s[len("TEXT(") : len(s)-1])
		if err != nil {
			return types.ColumnType{}, fmt.Errorf("invalid TEXT length in %q", s)
		}
		return types.ColumnType{Kind: types.ColText, Param: n}, nil
	case strings.HasPrefix(s, "VECTOR(") && strings.HasSuffix(s, ")"):
		d, err := strconv.Atoi(s[len("VECTOR(") : len(s)-1])
		if err != nil {
			return types.ColumnType{}, fmt.Errorf("invalid VECTOR dimension in %q", s)
		}
		return types.ColumnType{Kind: types.ColVector, Param: d}, nil
	default:
		return types.ColumnType{}, fmt.Errorf("unrecognized type %q", s)
	}
}

// IndexDescriptor describes a secondary index: its name, the table and
// column it covers, and whether it enforces uniqueness.
type IndexDescriptor struct {
	Name   string
	Table  string
	Column string
	Unique bool
}

// EncodeIndexDescriptor renders d in the on-disk format stored under
// "I:<index>": "<table>|<column>|<UNIQUE|NON_UNIQUE>".
func EncodeIndexDescriptor(d *IndexDescriptor) []byte {
	uniq := "NON_UNIQUE"
	if d.Unique {
		uniq = "UNIQUE"
	}
	return []byte(strings.Join([]string{d.Table, d.Column, uniq}, "|"))
}

// DecodeIndexDescriptor parses the on-disk index-descriptor blob format.
func DecodeIndexDescriptor(name string, blob []byte) (*IndexDescriptor, error) {
	fields := strings.Split(string(blob), "|")
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: malformed index descriptor %q", dberr.ErrCorruption, name)
	}
	return &IndexDescriptor{
		Name:   name,
		Table:  fields[0],
		Column: fields[1],
		Unique: fields[2] == "UNIQUE",
	}, nil
}

// indexEntrySeparator is the canonical separator used to build and split
// secondary-index entry keys: "I:<table>:<index>:<encoded column
// value>:<encoded pk value>".
const indexEntrySeparator = ":"

// EncodeIndexEntryKey builds the storage key for one secondary-index entry.
func EncodeIndexEntryKey(table, index string, columnValue, pkValue types.Value) []byte {
	parts := []string{"I", table, index, columnValue.String(), pkValue.String()}
	return []byte(strings.Join(parts, indexEntrySeparator))
}

// IndexEntryPrefix returns the half-open range start for every entry of
// index on table.
func IndexEntryPrefix(table, index string) []byte {
	return []byte(strings.Join([]string{"I", table, index, ""}, indexEntrySeparator))
}

// DecodeIndexEntryKey splits an index-entry key back into its table, index,
// and the printable-encoded column/pk strings.
func DecodeIndexEntryKey(key []byte) (table, index, columnValue, pkValue string, err error) {
	fields := strings.SplitN(string(key), indexEntrySeparator, 5)
	if len(fields) != 5 || fields[0] != "I" {
		return "", "", "", "", fmt.Errorf("%w: malformed index entry key %q", dberr.ErrCorruption, key)
	}
	return fields[1], fields[2], fields[3], fields[4], nil
}
