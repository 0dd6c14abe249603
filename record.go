package sq3

import (
	"encoding/binary"
	"math"

	"github.com/dropbox/godropbox/errors"
)

// A record is a varint header length (which counts its own bytes), a
// sequence of serial-type varints filling the rest of the header, and then
// each value's body bytes in header order.  Serial types 0-9 have fixed
// sizes, 10 and 11 are reserved, even types from 12 up are blobs of
// (N-12)/2 bytes, and odd types from 13 up are text of (N-13)/2 bytes.

var fixedSerialTypeSizes = [10]int{0, 1, 2, 3, 4, 6, 8, 8, 0, 0}

func serialTypeSize(st int64) (int, error) {
	switch {
	case st < 0 || st == 10 || st == 11:
		return 0, errors.Wrapf(ErrInvalidSerialType, "serial type %d", st)
	case st <= 9:
		return fixedSerialTypeSizes[st], nil
	case st%2 == 0:
		return int(st-12) / 2, nil
	default:
		return int(st-13) / 2, nil
	}
}

// DecodeRecord decodes a complete cell payload into column values.  The
// payload must be exactly the record's declared length: any leftover or
// missing bytes fail with ErrRecordLengthMismatch rather than producing a
// silently truncated row.
func DecodeRecord(payload []byte) (Record, error) {
	headerLen, n, err := GetVarint(payload)
	if err != nil {
		return nil, err
	}
	if headerLen < int64(n) || headerLen > int64(len(payload)) {
		return nil, errors.Wrapf(
			ErrRecordLengthMismatch,
			"header length %d, payload length %d", headerLen, len(payload))
	}
	var serialTypes []int64
	for pos := n; pos < int(headerLen); {
		st, m, err := GetVarint(payload[pos:headerLen])
		if err != nil {
			return nil, err
		}
		serialTypes = append(serialTypes, st)
		pos += m
	}
	values := make(Record, len(serialTypes))
	pos := int(headerLen)
	for i, st := range serialTypes {
		size, err := serialTypeSize(st)
		if err != nil {
			return nil, err
		}
		if pos+size > len(payload) {
			return nil, errors.Wrapf(
				ErrRecordLengthMismatch,
				"value %d (serial type %d) extends past payload end", i, st)
		}
		values[i] = decodeValue(st, payload[pos:pos+size])
		pos += size
	}
	if pos != len(payload) {
		return nil, errors.Wrapf(
			ErrRecordLengthMismatch,
			"%d trailing bytes after record body", len(payload)-pos)
	}
	return values, nil
}

// Precondition: st is a valid serial type and len(b) == serialTypeSize(st).
func decodeValue(st int64, b []byte) Value {
	switch st {
	case 0:
		return nil
	case 1, 2, 3, 4, 5, 6:
		return twosComplement(b)
	case 7:
		return math.Float64frombits(binary.BigEndian.Uint64(b))
	case 8:
		return int64(0)
	case 9:
		return int64(1)
	}
	if st%2 == 0 {
		blob := make([]byte, len(b))
		copy(blob, b)
		return blob
	}
	// Text is decoded as UTF-8; databases declaring UTF-16 encodings are
	// rejected at open.
	return string(b)
}

// twosComplement decodes a big-endian signed integer of 1 to 8 bytes.
func twosComplement(b []byte) int64 {
	v := int64(int8(b[0]))
	for _, x := range b[1:] {
		v = v<<8 | int64(x)
	}
	return v
}

// EncodeRecord is the inverse of DecodeRecord, choosing the smallest serial
// type for each value.  Like PutVarint it exists for round-trip tests and
// for the fixture builder; the decoder itself never writes records.
func EncodeRecord(values Record) ([]byte, error) {
	serialTypes := make([]int64, len(values))
	var body []byte
	for i, v := range values {
		st, b, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		serialTypes[i] = st
		body = append(body, b...)
	}
	stLen := 0
	for _, st := range serialTypes {
		stLen += VarintLen(st)
	}
	// The header length counts its own varint, so grow it until it's
	// self-consistent.
	headerLen := int64(stLen + 1)
	for int64(stLen+VarintLen(headerLen)) != headerLen {
		headerLen = int64(stLen + VarintLen(headerLen))
	}
	out := make([]byte, 0, int(headerLen)+len(body))
	out = PutVarint(out, headerLen)
	for _, st := range serialTypes {
		out = PutVarint(out, st)
	}
	return append(out, body...), nil
}

func encodeValue(v Value) (int64, []byte, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil, nil
	case int64:
		return encodeInt(x)
	case float64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(x))
		return 7, b[:], nil
	case string:
		return 13 + 2*int64(len(x)), []byte(x), nil
	case []byte:
		return 12 + 2*int64(len(x)), x, nil
	default:
		return 0, nil, errors.Newf("cannot encode value of type %T", v)
	}
}

func encodeInt(x int64) (int64, []byte, error) {
	switch {
	case x == 0:
		return 8, nil, nil
	case x == 1:
		return 9, nil, nil
	}
	size, st := 8, int64(6)
	switch {
	case x >= math.MinInt8 && x <= math.MaxInt8:
		size, st = 1, 1
	case x >= math.MinInt16 && x <= math.MaxInt16:
		size, st = 2, 2
	case x >= -(1<<23) && x < 1<<23:
		size, st = 3, 3
	case x >= math.MinInt32 && x <= math.MaxInt32:
		size, st = 4, 4
	case x >= -(1<<47) && x < 1<<47:
		size, st = 6, 5
	}
	b := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		b[i] = byte(x)
		x >>= 8
	}
	return st, b, nil
}
