package sq3

import (
	"math"

	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"
)

type VarintSuite struct{}

var _ = Suite(&VarintSuite{})

func (s *VarintSuite) TestDecodeWidths(c *C) {
	// Trailing garbage after the terminating byte must be ignored.
	for _, testCase := range []struct {
		input    []byte
		expected int64
		length   int
	}{
		{[]byte{0x01, 0x25, 0x37}, 1, 1},
		{[]byte{0x7f, 0xff}, 0x7f, 1},
		{[]byte{0x81, 0x25, 0x37}, 0x80 + 0x25, 2},
		{[]byte{0x81, 0xa5, 0x37, 0xf2}, 0x4000 + 0x1280 + 0x37, 3},
		{[]byte{0x81, 0xa5, 0x97, 0x62, 0xaa}, 0x200000 + 0x94000 + 0xb80 + 0x62, 4},
		{[]byte{0x81, 0xa5, 0x97, 0xf2, 0x3a}, 0x10000000 + 0x4a00000 + 0x5c000 + 0x3900 + 0x3a, 5},
		{
			[]byte{0x81, 0xa5, 0x97, 0xf2, 0xaa, 0x81, 0x99, 0x83, 0x1b},
			0x200000000000000 + 0x94000000000000 + 0xb80000000000 + 0x72000000000 +
				0x540000000 + 0x400000 + 0xc8000 + 0x300 + 0x1b,
			9,
		},
	} {
		v, n, err := GetVarint(testCase.input)
		c.Assert(err, IsNil)
		c.Assert(v, Equals, testCase.expected)
		c.Assert(n, Equals, testCase.length)
	}
}

func (s *VarintSuite) TestTruncated(c *C) {
	_, _, err := GetVarint(nil)
	c.Assert(err, Equals, ErrTruncatedVarint)
	// Continuation bit set on the last available byte.
	_, _, err = GetVarint([]byte{0x81})
	c.Assert(err, Equals, ErrTruncatedVarint)
	// Eight continuation bytes promise a ninth that isn't there.
	_, _, err = GetVarint([]byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81})
	c.Assert(err, Equals, ErrTruncatedVarint)
}

func (s *VarintSuite) TestRoundTrip(c *C) {
	values := []int64{
		0, 1, 2, 0x7f, 0x80, 0x3fff, 0x4000, 0x1fffff, 0x200000,
		0xfffffff, 0x7ffffffff, 0x3ffffffffff, 0x1ffffffffffff,
		0xffffffffffffff, 0x100000000000000,
		math.MaxInt64, math.MinInt64, -1, -42,
	}
	for _, v := range values {
		buf := PutVarint(nil, v)
		c.Assert(len(buf) <= MaxVarintLen, IsTrue)
		c.Assert(len(buf), Equals, VarintLen(v))
		decoded, n, err := GetVarint(buf)
		c.Assert(err, IsNil)
		c.Assert(n, Equals, len(buf))
		c.Assert(decoded, Equals, v)
	}
}

func (s *VarintSuite) TestNegativeUsesNineBytes(c *C) {
	// Negative values have the top bit set, so they always need all nine
	// bytes.
	c.Assert(VarintLen(-1), Equals, 9)
	c.Assert(VarintLen(math.MinInt64), Equals, 9)
}
