// Package rowcodec is the fixed-layout row codec (L3): it encodes and
// decodes records using the schema's embedded (offset, size, type code)
// triples, and evaluates simple predicates directly against the raw
// buffer without materializing a full row.
package rowcodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"tegdb/internal/catalog"
	"tegdb/internal/dberr"
	"tegdb/internal/types"
)

// Encode allocates a buffer of exactly schema.RecordSize and writes every
// column's typed representation at its offset. row must supply a value for
// every column; a missing column fails with dberr.ErrConstraintViolation
// wrapping MissingColumn semantics.
func Encode(schema *catalog.Schema, row map[string]types.Value) ([]byte, error) {
	buf := make([]byte, schema.RecordSize)
	for _, col := range schema.Columns {
		v, ok := row[col.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", dberr.ErrConstraintViolation, col.Name)
		}
		if err := encodeColumn(buf[col.Offset:col.Offset+col.Size], col, v); err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
	}
	return buf, nil
}

func encodeColumn(dst []byte, col *catalog.Column, v types.Value) error {
	switch col.Type.Kind {
	case types.ColInteger:
		n, err := asInteger(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(dst, uint64(n))
	case types.ColReal:
		f, err := asReal(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
	case types.ColText:
		s, err := asText(v)
		if err != nil {
			return err
		}
		b := []byte(s)
		if len(b) > col.Size {
			b = b[:col.Size]
		}
		copy(dst, b)
		for i := len(b); i < col.Size; i++ {
			dst[i] = 0
		}
	case types.ColVector:
		vec, err := asVector(v)
		if err != nil {
			return err
		}
		if len(vec) != col.Type.Param {
			return fmt.Errorf("%w: expected %d vector components, got %d", dberr.ErrTypeMismatch, col.Type.Param, len(vec))
		}
		for i, f := range vec {
			binary.LittleEndian.PutUint64(dst[i*8:], math.Float64bits(f))
		}
	default:
		return fmt.Errorf("%w: unsupported column type", dberr.ErrSchemaError)
	}
	return nil
}

func asInteger(v types.Value) (int64, error) {
	if v.Kind != types.KindInteger {
		return 0, fmt.Errorf("%w: expected INTEGER, got %s", dberr.ErrTypeMismatch, v.Kind)
	}
	return v.Int, nil
}

func asReal(v types.Value) (float64, error) {
	switch v.Kind {
	case types.KindReal:
		return v.Real, nil
	case types.KindInteger:
		return float64(v.Int), nil
	default:
		return 0, fmt.Errorf("%w: expected REAL, got %s", dberr.ErrTypeMismatch, v.Kind)
	}
}

func asText(v types.Value) (string, error) {
	if v.Kind != types.KindText {
		return "", fmt.Errorf("%w: expected TEXT, got %s", dberr.ErrTypeMismatch, v.Kind)
	}
	return v.Text, nil
}

func asVector(v types.Value) ([]float64, error) {
	if v.Kind != types.KindVector {
		return nil, fmt.Errorf("%w: expected VECTOR, got %s", dberr.ErrTypeMismatch, v.Kind)
	}
	return v.Vector, nil
}

// DecodeFull decodes every column of row into a name -> value map.
func DecodeFull(schema *catalog.Schema, row []byte) (map[string]types.Value, error) {
	out := make(map[string]types.Value, len(schema.Columns))
	for i, col := range schema.Columns {
		v, err := DecodeColumnAt(schema, row, i)
		if err != nil {
			return nil, err
		}
		out[col.Name] = v
	}
	return out, nil
}

// DecodeColumn decodes a single named column from row.
func DecodeColumn(schema *catalog.Schema, row []byte, name string) (types.Value, error) {
	_, idx := schema.ColumnByName(name)
	if idx < 0 {
		return types.Value{}, fmt.Errorf("%w: unknown column %q", dberr.ErrSchemaError, name)
	}
	return DecodeColumnAt(schema, row, idx)
}

// DecodeColumnAt decodes the column at schema.Columns[idx] from row,
// bounds-checking offset+size before decoding by type code.
func DecodeColumnAt(schema *catalog.Schema, row []byte, idx int) (types.Value, error) {
	col := schema.Columns[idx]
	if col.Offset+col.Size > len(row) {
		return types.Value{}, fmt.Errorf("%w: column %q out of bounds for row of %d bytes", dberr.ErrCorruption, col.Name, len(row))
	}
	buf := row[col.Offset : col.Offset+col.Size]

	kind, err := types.KindFromTypeCode(col.TypeCode)
	if err != nil {
		return types.Value{}, err
	}
	switch kind {
	case types.ColInteger:
		return types.Integer(int64(binary.LittleEndian.Uint64(buf))), nil
	case types.ColReal:
		return types.Real(math.Float64frombits(binary.LittleEndian.Uint64(buf))), nil
	case types.ColText:
		n := 0
		for n < len(buf) && buf[n] != 0 {
			n++
		}
		s := buf[:n]
		if !utf8.Valid(s) {
			return types.TextValue(strings.ToValidUTF8(string(s), "�")), nil
		}
		return types.TextValue(string(s)), nil
	case types.ColVector:
		if len(buf)%8 != 0 {
			return types.Value{}, fmt.Errorf("%w: vector column %q has size %d not a multiple of 8", dberr.ErrCorruption, col.Name, len(buf))
		}
		vec := make([]float64, len(buf)/8)
		for i := range vec {
			vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		return types.VectorValue(vec), nil
	default:
		return types.Value{}, fmt.Errorf("%w: unhandled column type", dberr.ErrSchemaError)
	}
}
