package btree_test

import (
	"strings"

	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/btree"
	"github.com/robot-dreams/sq3/sqtest"
)

type OverflowSuite struct{}

var _ = Suite(&OverflowSuite{})

const overflowPageSize = 512

// spillImage builds an image whose only table holds one row big enough to
// need several overflow pages, and returns the image plus the root page.
// Pages are allocated in order, so the chain occupies page 3 through the
// end of the file.
func spillImage() ([]byte, int64) {
	b := sqtest.NewBuilder(overflowPageSize)
	root := b.AddTableLeaf([]sq3.Row{
		{ID: 1, Values: sq3.Record{strings.Repeat("x", 3000)}},
	})
	return b.Bytes(), root
}

func scanErr(c *C, image []byte, root int64) error {
	db := openImage(c, image)
	defer db.Close()
	iter, err := btree.Scan(db, root)
	c.Assert(err, IsNil)
	_, err = iter.Next()
	return err
}

func (s *OverflowSuite) TestChainTruncated(c *C) {
	image, root := spillImage()
	// Cut the chain at its first page.
	firstOverflow := 2 * overflowPageSize
	for i := 0; i < 4; i++ {
		image[firstOverflow+i] = 0
	}
	err := scanErr(c, image, root)
	c.Assert(sq3.IsError(err, sq3.ErrOverflowChainTruncated), IsTrue)
}

func (s *OverflowSuite) TestChainTooLong(c *C) {
	image, root := spillImage()
	// Point the final page back into the chain so it never terminates.
	lastOverflow := len(image) - overflowPageSize
	image[lastOverflow] = 0
	image[lastOverflow+1] = 0
	image[lastOverflow+2] = 0
	image[lastOverflow+3] = 3
	err := scanErr(c, image, root)
	c.Assert(sq3.IsError(err, sq3.ErrOverflowChainTooLong), IsTrue)
}

func (s *OverflowSuite) TestChainCycle(c *C) {
	image, root := spillImage()
	// First chain page points at itself.
	firstOverflow := 2 * overflowPageSize
	image[firstOverflow] = 0
	image[firstOverflow+1] = 0
	image[firstOverflow+2] = 0
	image[firstOverflow+3] = 3
	err := scanErr(c, image, root)
	c.Assert(sq3.IsError(err, sq3.ErrOverflowChainTooLong), IsTrue)
}

func (s *OverflowSuite) TestChainIntoMissingPage(c *C) {
	image, root := spillImage()
	// Last page points past the end of the file.
	lastOverflow := len(image) - overflowPageSize
	image[lastOverflow] = 0
	image[lastOverflow+1] = 0
	image[lastOverflow+2] = 0
	image[lastOverflow+3] = 200
	err := scanErr(c, image, root)
	c.Assert(sq3.IsError(err, sq3.ErrOverflowChainTooLong), IsTrue)
}
