package rows

import (
	. "gopkg.in/check.v1"

	"github.com/robot-dreams/sq3"
)

type ProjectionSuite struct{}

var _ = Suite(&ProjectionSuite{})

func (s *ProjectionSuite) TestProjection(c *C) {
	projection := NewProjection(sq3.NewInMemoryScan(userRows), []int{2, 0})
	expected := []sq3.Row{
		{ID: 1, Values: sq3.Record{"rob", "Rob"}},
		{ID: 2, Values: sq3.Record{"ken", "Ken"}},
		{ID: 3, Values: sq3.Record{"gri", "Robert"}},
	}
	sq3.CheckIterator(c, projection, expected)
}

func (s *ProjectionSuite) TestProjectionPastRowEnd(c *C) {
	// Rows written before ALTER TABLE ADD COLUMN are short; the missing
	// column reads as NULL.
	short := []sq3.Row{
		{ID: 1, Values: sq3.Record{"Rob"}},
	}
	projection := NewProjection(sq3.NewInMemoryScan(short), []int{0, 5})
	expected := []sq3.Row{
		{ID: 1, Values: sq3.Record{"Rob", nil}},
	}
	sq3.CheckIterator(c, projection, expected)
}
