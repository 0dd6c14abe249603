package sq3

import (
	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"
)

type PredicatesSuite struct{}

var _ = Suite(&PredicatesSuite{})

func (s *PredicatesSuite) TestColumnPredicates(c *C) {
	row := Row{ID: 1, Values: Record{int64(5), "Susan Calvin"}}
	c.Assert(ColumnEquals(0, int64(5))(row), IsTrue)
	c.Assert(ColumnEquals(0, int64(6))(row), IsFalse)
	c.Assert(ColumnEquals(1, "Susan Calvin")(row), IsTrue)
	// Integer and float compare numerically, as in SQL.
	c.Assert(ColumnEquals(0, float64(5))(row), IsTrue)
	// Out-of-range column index matches nothing.
	c.Assert(ColumnEquals(2, nil)(row), IsFalse)

	c.Assert(ColumnLess(0, int64(6))(row), IsTrue)
	c.Assert(ColumnLess(0, int64(5))(row), IsFalse)
	c.Assert(ColumnLess(1, "T")(row), IsTrue)
}

func (s *PredicatesSuite) TestRowIDEquals(c *C) {
	row := Row{ID: 42, Values: Record{nil}}
	c.Assert(RowIDEquals(42)(row), IsTrue)
	c.Assert(RowIDEquals(41)(row), IsFalse)
}
