package rows

import (
	. "gopkg.in/check.v1"

	"github.com/robot-dreams/sq3"
)

type LimitSuite struct{}

var _ = Suite(&LimitSuite{})

func (s *LimitSuite) TestLimit(c *C) {
	limit := NewLimit(sq3.NewInMemoryScan(userRows), 2)
	sq3.CheckIterator(c, limit, userRows[:2])

	// A limit greater than the input length returns everything.
	limit = NewLimit(sq3.NewInMemoryScan(userRows), 4)
	sq3.CheckIterator(c, limit, userRows)

	limit = NewLimit(sq3.NewInMemoryScan(userRows), 0)
	sq3.CheckIterator(c, limit, nil)
}
