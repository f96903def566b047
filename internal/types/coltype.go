package types

import "fmt"

// ColumnKind is the declared SQL type of a column.
type ColumnKind byte

const (
	ColInteger ColumnKind = iota
	ColReal
	ColText
	ColVector
)

// Type codes stored alongside each column's offset/size in the in-memory
// schema cache for zero-copy decode. The schema blob does not persist them;
// they are recomputed from the declared type when a schema is built.
const (
	TypeCodeInteger byte = 1
	TypeCodeReal    byte = 2
	TypeCodeText    byte = 3
	TypeCodeVector  byte = 4
)

func (k ColumnKind) String() string {
	switch k {
	case ColInteger:
		return "INTEGER"
	case ColReal:
		return "REAL"
	case ColText:
		return "TEXT"
	case ColVector:
		return "VECTOR"
	default:
		return "UNKNOWN"
	}
}

// TypeCode returns the one-byte type code stored in schema metadata for k.
func (k ColumnKind) TypeCode() byte {
	switch k {
	case ColInteger:
		return TypeCodeInteger
	case ColReal:
		return TypeCodeReal
	case ColText:
		return TypeCodeText
	case ColVector:
		return TypeCodeVector
	default:
		return 0
	}
}

// KindFromTypeCode recovers a ColumnKind from its stored type code.
func KindFromTypeCode(code byte) (ColumnKind, error) {
	switch code {
	case TypeCodeInteger:
		return ColInteger, nil
	case TypeCodeReal:
		return ColReal, nil
	case TypeCodeText:
		return ColText, nil
	case TypeCodeVector:
		return ColVector, nil
	default:
		return 0, fmt.Errorf("unknown type code %d", code)
	}
}

// ColumnType is a column's declared type: INTEGER and REAL are always 8
// bytes; TEXT(N) declares N bytes; VECTOR(D) declares D float64 lanes (8*D
// bytes).
type ColumnType struct {
	Kind ColumnKind
	// Param is N for TEXT(N), D for VECTOR(D); unused for INTEGER/REAL.
	Param int
}

// StorageSize returns the fixed number of bytes this type occupies in a
// record.
func (t ColumnType) StorageSize() int {
	switch t.Kind {
	case ColInteger, ColReal:
		return 8
	case ColText:
		return t.Param
	case ColVector:
		return t.Param * 8
	default:
		return 0
	}
}

// String renders the declared type the way it would appear in DDL, e.g.
// "TEXT(16)" or "VECTOR(3)".
func (t ColumnType) String() string {
	switch t.Kind {
	case ColInteger:
		return "INTEGER"
	case ColReal:
		return "REAL"
	case ColText:
		return fmt.Sprintf("TEXT(%d)", t.Param)
	case ColVector:
		return fmt.Sprintf("VECTOR(%d)", t.Param)
	default:
		return "UNKNOWN"
	}
}
