//go:build unix

package db_file_test

import (
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"

	"github.com/robot-dreams/sq3/db_file"
)

type MmapSuite struct{}

var _ = Suite(&MmapSuite{})

func (s *MmapSuite) TestMmapSource(c *C) {
	path := filepath.Join(c.MkDir(), "test.db")
	c.Assert(os.WriteFile(path, buildImage(), 0o644), IsNil)

	src, err := db_file.OpenMmapSource(path)
	c.Assert(err, IsNil)
	db, err := db_file.OpenSource(src)
	c.Assert(err, IsNil)

	data, err := db.ReadPage(2)
	c.Assert(err, IsNil)
	c.Assert(len(data), Equals, 512)

	// ReadAt hands back copies, so the mapping can be unmapped underneath.
	c.Assert(db.Close(), IsNil)
	c.Assert(len(data), Equals, 512)
}
