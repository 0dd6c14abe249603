package btree_test

import (
	"io"
	"strings"

	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/btree"
	"github.com/robot-dreams/sq3/db_file"
	"github.com/robot-dreams/sq3/sqtest"
)

type CursorSuite struct{}

var _ = Suite(&CursorSuite{})

func openImage(c *C, data []byte) *db_file.DBFile {
	db, err := db_file.OpenSource(db_file.NewBytesSource(data))
	c.Assert(err, IsNil)
	return db
}

func (s *CursorSuite) TestSingleLeafScan(c *C) {
	b := sqtest.NewBuilder(512)
	rows := []sq3.Row{
		{ID: 1, Values: sq3.Record{"alpha", int64(10)}},
		{ID: 2, Values: sq3.Record{"beta", nil}},
		{ID: 7, Values: sq3.Record{"gamma", 2.5}},
	}
	root := b.AddTableLeaf(rows)
	db := openImage(c, b.Bytes())
	defer db.Close()

	iter, err := btree.Scan(db, root)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, rows)
}

func (s *CursorSuite) TestEmptyTableScan(c *C) {
	b := sqtest.NewBuilder(512)
	root := b.AddTableLeaf(nil)
	db := openImage(c, b.Bytes())
	defer db.Close()

	iter, err := btree.Scan(db, root)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, nil)
}

// threeLeafTree builds the multi-level shape used by the seek tests: an
// interior root over three leaves holding rowids 1, 5, and 9.
func threeLeafTree(c *C, b *sqtest.Builder) (int64, []sq3.Row) {
	rows := []sq3.Row{
		{ID: 1, Values: sq3.Record{"one"}},
		{ID: 5, Values: sq3.Record{"five"}},
		{ID: 9, Values: sq3.Record{"nine"}},
	}
	leaf1 := b.AddTableLeaf(rows[0:1])
	leaf2 := b.AddTableLeaf(rows[1:2])
	leaf3 := b.AddTableLeaf(rows[2:3])
	root := b.AddTableInterior([]sqtest.ChildEntry{
		{Key: 1, Page: leaf1},
		{Key: 5, Page: leaf2},
	}, leaf3)
	return root, rows
}

func (s *CursorSuite) TestMultiLevelScan(c *C) {
	b := sqtest.NewBuilder(512)
	root, rows := threeLeafTree(c, b)
	db := openImage(c, b.Bytes())
	defer db.Close()

	iter, err := btree.Scan(db, root)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, rows)
}

func (s *CursorSuite) TestSeek(c *C) {
	b := sqtest.NewBuilder(512)
	root, rows := threeLeafTree(c, b)
	db := openImage(c, b.Bytes())
	defer db.Close()

	// Exact hit.
	iter, err := btree.Seek(db, root, 5)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, rows[1:])

	// Between rowids: lands on the next larger one.
	iter, err = btree.Seek(db, root, 6)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, rows[2:])

	// Before the first rowid: full scan.
	iter, err = btree.Seek(db, root, 0)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, rows)

	// Past the last rowid: empty.
	iter, err = btree.Seek(db, root, 10)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, nil)
}

func (s *CursorSuite) TestOverflowPayload(c *C) {
	b := sqtest.NewBuilder(512)
	big := strings.Repeat("x", 3000)
	rows := []sq3.Row{
		{ID: 1, Values: sq3.Record{big, int64(1)}},
	}
	root := b.AddTableLeaf(rows)
	db := openImage(c, b.Bytes())
	defer db.Close()

	iter, err := btree.Scan(db, root)
	c.Assert(err, IsNil)
	sq3.CheckIterator(c, iter, rows)
}

func (s *CursorSuite) TestOutOfOrderRowIDs(c *C) {
	b := sqtest.NewBuilder(512)
	root := b.AddTableLeaf([]sq3.Row{
		{ID: 5, Values: sq3.Record{"five"}},
		{ID: 1, Values: sq3.Record{"one"}},
	})
	db := openImage(c, b.Bytes())
	defer db.Close()

	iter, err := btree.Scan(db, root)
	c.Assert(err, IsNil)
	_, err = iter.Next()
	c.Assert(err, IsNil)
	_, err = iter.Next()
	c.Assert(sq3.IsError(err, sq3.ErrCorruptDatabase), IsTrue)
	// The cursor stays poisoned.
	_, err = iter.Next()
	c.Assert(sq3.IsError(err, sq3.ErrCorruptDatabase), IsTrue)
}

func (s *CursorSuite) TestIndexPageInTableTree(c *C) {
	b := sqtest.NewBuilder(512)
	root := b.AddIndexLeaf([]sq3.Record{{"a", int64(1)}})
	db := openImage(c, b.Bytes())
	defer db.Close()

	_, err := btree.Scan(db, root)
	c.Assert(sq3.IsError(err, sq3.ErrCorruptDatabase), IsTrue)
}

func (s *CursorSuite) TestRootPageOutOfBounds(c *C) {
	b := sqtest.NewBuilder(512)
	b.AddTableLeaf(nil)
	db := openImage(c, b.Bytes())
	defer db.Close()

	_, err := btree.Scan(db, 99)
	c.Assert(sq3.IsError(err, sq3.ErrPageOutOfBounds), IsTrue)
}

func (s *CursorSuite) TestCursorClose(c *C) {
	b := sqtest.NewBuilder(512)
	root, _ := threeLeafTree(c, b)
	db := openImage(c, b.Bytes())
	defer db.Close()

	iter, err := btree.Scan(db, root)
	c.Assert(err, IsNil)
	_, err = iter.Next()
	c.Assert(err, IsNil)
	c.Assert(iter.Close(), IsNil)
	_, err = iter.Next()
	c.Assert(err, Equals, io.EOF)
	c.Assert(iter.Close(), IsNil)
}
