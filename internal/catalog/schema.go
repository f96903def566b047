// Package catalog maps table names to schemas and secondary-index
// descriptors, persisting both under the engine's dedicated key prefixes
// and caching them in memory for the life of the engine.
package catalog

import (
	"fmt"
	"strings"

	"tegdb/internal/dberr"
	"tegdb/internal/types"
)

// Constraint is a column-level constraint token as persisted in a schema
// blob: PRIMARY_KEY, NOT_NULL, or UNIQUE.
type Constraint string

const (
	ConstraintPrimaryKey Constraint = "PRIMARY_KEY"
	ConstraintNotNull    Constraint = "NOT_NULL"
	ConstraintUnique     Constraint = "UNIQUE"
)

// Column describes one column of a table, including the storage metadata
// (Offset, Size, TypeCode) computed when the schema is added to the
// catalog.
type Column struct {
	Name        string
	Type        types.ColumnType
	Constraints []Constraint

	// Derived storage fields, recomputed by Schema.recomputeLayout.
	Offset   int
	Size     int
	TypeCode byte
}

// HasConstraint reports whether c carries the given constraint.
func (c *Column) HasConstraint(want Constraint) bool {
	for _, have := range c.Constraints {
		if have == want {
			return true
		}
	}
	return false
}

// Schema is a table's column list plus the derived record layout.
type Schema struct {
	Table       string
	Columns     []*Column
	RecordSize  int
	PrimaryKey  int // index into Columns, or -1 if somehow absent (rejected at create time)
}

// ValidTableName preserves disambiguation of the engine's key-space
// prefix scheme: table names may not contain ':' or '~', and may not be
// literally "S" or "I".
func ValidTableName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: table name must not be empty", dberr.ErrSchemaError)
	}
	if strings.ContainsAny(name, ":~") {
		return fmt.Errorf("%w: table name %q must not contain ':' or '~'", dberr.ErrSchemaError, name)
	}
	if name == "S" || name == "I" {
		return fmt.Errorf("%w: table name %q is reserved", dberr.ErrSchemaError, name)
	}
	for _, r := range name {
		if r > 127 {
			return fmt.Errorf("%w: table name %q must be printable ASCII", dberr.ErrSchemaError, name)
		}
	}
	return nil
}

// NewSchema validates columns (exactly one primary key, no composite PK, no
// variable-length TEXT/VECTOR) and computes the derived storage layout.
func NewSchema(table string, columns []*Column) (*Schema, error) {
	if err := ValidTableName(table); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %q must declare at least one column", dberr.ErrSchemaError, table)
	}

	pkIdx := -1
	seen := map[string]bool{}
	for i, col := range columns {
		if seen[col.Name] {
			return nil, fmt.Errorf("%w: duplicate column %q", dberr.ErrSchemaError, col.Name)
		}
		seen[col.Name] = true

		if col.Type.Kind == types.ColText || col.Type.Kind == types.ColVector {
			if col.Type.Param <= 0 {
				return nil, fmt.Errorf("%w: column %q declares a variable-length %s; length must be declared", dberr.ErrSchemaError, col.Name, col.Type.Kind)
			}
		}

		if col.HasConstraint(ConstraintPrimaryKey) {
			if pkIdx != -1 {
				return nil, fmt.Errorf("%w: table %q declares a composite primary key (columns %q and %q)", dberr.ErrSchemaError, table, columns[pkIdx].Name, col.Name)
			}
			pkIdx = i
		}
	}
	if pkIdx == -1 {
		return nil, fmt.Errorf("%w: table %q must declare exactly one PRIMARY KEY column", dberr.ErrSchemaError, table)
	}

	s := &Schema{Table: table, Columns: columns, PrimaryKey: pkIdx}
	s.recomputeLayout()
	return s, nil
}

// recomputeLayout assigns Offset/Size/TypeCode to every column in declared
// order, starting at 0, and sets RecordSize to their sum.
func (s *Schema) recomputeLayout() {
	offset := 0
	for _, col := range s.Columns {
		col.Offset = offset
		col.Size = col.Type.StorageSize()
		col.TypeCode = col.Type.Kind.TypeCode()
		offset += col.Size
	}
	s.RecordSize = offset
}

// ColumnByName returns the column named name and its index, or (nil, -1) if
// absent.
func (s *Schema) ColumnByName(name string) (*Column, int) {
	for i, c := range s.Columns {
		if c.Name == name {
			return c, i
		}
	}
	return nil, -1
}

// PrimaryKeyColumn returns the table's single primary-key column.
func (s *Schema) PrimaryKeyColumn() *Column {
	return s.Columns[s.PrimaryKey]
}

