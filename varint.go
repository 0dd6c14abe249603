package sq3

// SQLite varints are big-endian: each of the first eight bytes contributes
// its low seven bits, with the high bit set on every byte except the last.
// A ninth byte, if reached, contributes all eight of its bits, so a varint
// can carry any 64-bit value in at most nine bytes.

const MaxVarintLen = 9

// GetVarint decodes a varint from the start of p, returning the value and
// the number of bytes consumed (1 to 9).  Fails with ErrTruncatedVarint if
// p ends before a terminating byte is found.
func GetVarint(p []byte) (int64, int, error) {
	var v uint64
	for i := 0; i < 8; i++ {
		if i >= len(p) {
			return 0, 0, ErrTruncatedVarint
		}
		v = v<<7 | uint64(p[i]&0x7f)
		if p[i]&0x80 == 0 {
			return int64(v), i + 1, nil
		}
	}
	if len(p) < MaxVarintLen {
		return 0, 0, ErrTruncatedVarint
	}
	v = v<<8 | uint64(p[8])
	return int64(v), MaxVarintLen, nil
}

// PutVarint appends the varint encoding of v to buf.  A read-only decoder
// never writes varints into a database, but the encoder keeps the
// round-trip property testable and lets the fixture builder author pages.
func PutVarint(buf []byte, v int64) []byte {
	u := uint64(v)
	if u >= 1<<56 {
		// All nine bytes are needed; the last one carries a full 8 bits.
		for i := 0; i < 8; i++ {
			buf = append(buf, byte(u>>(57-7*uint(i)))&0x7f|0x80)
		}
		return append(buf, byte(u))
	}
	n := 1
	for u>>(7*uint(n)) != 0 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := byte(u>>(7*uint(i))) & 0x7f
		if i > 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// VarintLen returns the number of bytes PutVarint would use for v.
func VarintLen(v int64) int {
	u := uint64(v)
	if u >= 1<<56 {
		return MaxVarintLen
	}
	n := 1
	for u>>(7*uint(n)) != 0 {
		n++
	}
	return n
}
