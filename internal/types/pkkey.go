package types

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Primary-key type tags embedded in an encoded storage key, distinct from
// the schema type codes so a key byte sequence is self-describing even
// without consulting the schema.
const (
	pkTagInteger byte = 1
	pkTagReal    byte = 2
	pkTagText    byte = 3
	pkTagVector  byte = 4
	pkTagNull    byte = 5
)

// EncodeTableName writes the [4-byte little-endian length][name bytes]
// prefix shared by every row key for table.
func EncodeTableName(table string) []byte {
	buf := make([]byte, 4+len(table))
	binary.LittleEndian.PutUint32(buf, uint32(len(table)))
	copy(buf[4:], table)
	return buf
}

// EncodePK builds the full row storage key for table and primary-key value
// pk: [EncodeTableName(table)] ':' [type-tag byte] [typed-key bytes].
//
// Integer and real payloads are written big-endian so lexicographic byte
// order matches numeric order; text is written as-is; vector and null are
// accepted (discouraged, not totally ordered).
func EncodePK(table string, pk Value) ([]byte, error) {
	head := EncodeTableName(table)
	var tag byte
	var body []byte
	switch pk.Kind {
	case KindInteger:
		tag = pkTagInteger
		body = make([]byte, 8)
		// Flip the sign bit so two's-complement big-endian bytes sort the
		// same way as the signed integers they represent.
		binary.BigEndian.PutUint64(body, uint64(pk.Int)^(1<<63))
	case KindReal:
		tag = pkTagReal
		body = make([]byte, 8)
		bits := math.Float64bits(pk.Real)
		if pk.Real < 0 || (pk.Real == 0 && math.Signbit(pk.Real)) {
			bits = ^bits
		} else {
			bits ^= 1 << 63
		}
		binary.BigEndian.PutUint64(body, bits)
	case KindText:
		tag = pkTagText
		body = []byte(pk.Text)
	case KindVector:
		tag = pkTagVector
		body = make([]byte, 8*len(pk.Vector))
		for i, f := range pk.Vector {
			binary.BigEndian.PutUint64(body[i*8:], math.Float64bits(f))
		}
	case KindNull:
		tag = pkTagNull
	default:
		return nil, fmt.Errorf("primary key value of kind %s cannot be encoded", pk.Kind)
	}

	key := make([]byte, 0, len(head)+1+1+len(body))
	key = append(key, head...)
	key = append(key, ':')
	key = append(key, tag)
	key = append(key, body...)
	return key, nil
}

// TablePrefix returns the half-open range start for every row belonging to
// table: the bytes preceding any typed PK tag.
func TablePrefix(table string) []byte {
	head := EncodeTableName(table)
	return append(head, ':')
}

// TableEndMarker returns an exclusive upper bound one past every possible
// row key for table (the table prefix incremented in its last byte).
func TableEndMarker(table string) []byte {
	prefix := TablePrefix(table)
	end := make([]byte, len(prefix))
	copy(end, prefix)
	end[len(end)-1]++
	return end
}

// BumpPK returns the next representable PK value strictly greater than v,
// for converting an exclusive range bound into an inclusive one.
// Integers are incremented by 1; reals move to the next representable
// float via math.Nextafter; text gets U+10FFFF appended. NaN is rejected.
func BumpPK(v Value) (Value, error) {
	switch v.Kind {
	case KindInteger:
		return Integer(v.Int + 1), nil
	case KindReal:
		if math.IsNaN(v.Real) {
			return Value{}, fmt.Errorf("cannot bump NaN")
		}
		return Real(math.Nextafter(v.Real, math.Inf(1))), nil
	case KindText:
		return TextValue(v.Text + string(rune(0x10FFFF))), nil
	default:
		return Value{}, fmt.Errorf("cannot bump PK value of kind %s", v.Kind)
	}
}
