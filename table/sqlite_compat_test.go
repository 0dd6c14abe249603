package table

import (
	"database/sql"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	. "gopkg.in/check.v1"

	. "github.com/dropbox/godropbox/gocheck2"

	_ "modernc.org/sqlite"

	"github.com/robot-dreams/sq3"
)

// SqliteCompatSuite cross-checks the decoder against database files written
// by a real SQLite implementation rather than the test builder.
type SqliteCompatSuite struct{}

var _ = Suite(&SqliteCompatSuite{})

func createFixture(c *C, statements []string) string {
	path := filepath.Join(c.MkDir(), "fixture.db")
	conn, err := sql.Open("sqlite", path)
	c.Assert(err, IsNil)
	defer conn.Close()
	for _, stmt := range statements {
		_, err := conn.Exec(stmt)
		c.Assert(err, IsNil, Commentf("%s", stmt))
	}
	return path
}

func (s *SqliteCompatSuite) TestScanRealFile(c *C) {
	path := createFixture(c, []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, score REAL, avatar BLOB)`,
		`INSERT INTO users VALUES (1, 'Susan Calvin', 99.5, x'010203')`,
		`INSERT INTO users VALUES (5, 'Daneel Olivaw', 87.25, NULL)`,
		`INSERT INTO users VALUES (9, 'Hari Seldon', NULL, x'')`,
	})

	db, err := Open(path)
	c.Assert(err, IsNil)
	defer db.Close()

	iter, err := db.Scan("users")
	c.Assert(err, IsNil)
	defer iter.Close()

	var ids []int64
	var names []string
	for {
		row, err := iter.Next()
		if err == io.EOF {
			break
		}
		c.Assert(err, IsNil)
		// An INTEGER PRIMARY KEY column is the rowid itself and is stored
		// as NULL in the record.
		c.Assert(row.Values[0], IsNil)
		ids = append(ids, row.ID)
		names = append(names, row.Values[1].(string))
	}
	c.Assert(ids, DeepEquals, []int64{1, 5, 9})
	c.Assert(names, DeepEquals, []string{
		"Susan Calvin", "Daneel Olivaw", "Hari Seldon",
	})

	row, found, err := db.Get("users", 5)
	c.Assert(err, IsNil)
	c.Assert(found, IsTrue)
	c.Assert(row.Values[2], Equals, 87.25)

	_, found, err = db.Get("users", 6)
	c.Assert(err, IsNil)
	c.Assert(found, IsFalse)
}

func (s *SqliteCompatSuite) TestOverflowInRealFile(c *C) {
	// A text value far larger than the page size has to spill onto an
	// overflow chain.
	big := strings.Repeat("abcdefgh", 4096)
	path := createFixture(c, []string{
		`CREATE TABLE blobs (body TEXT)`,
		`INSERT INTO blobs VALUES ('` + big + `')`,
	})

	db, err := Open(path)
	c.Assert(err, IsNil)
	defer db.Close()

	iter, err := db.Scan("blobs")
	c.Assert(err, IsNil)
	defer iter.Close()

	row, err := iter.Next()
	c.Assert(err, IsNil)
	c.Assert(row.Values[0], Equals, big)
	_, err = iter.Next()
	c.Assert(err, Equals, io.EOF)
}

func (s *SqliteCompatSuite) TestMultiLevelRealFile(c *C) {
	// Enough rows to force the table b-tree past a single leaf.
	statements := []string{
		`CREATE TABLE seq (n INTEGER)`,
	}
	var values []string
	for i := 1; i <= 2000; i++ {
		values = append(values, "("+strconv.Itoa(i)+")")
	}
	statements = append(statements, `INSERT INTO seq (n) VALUES `+strings.Join(values, ","))
	path := createFixture(c, statements)

	db, err := Open(path)
	c.Assert(err, IsNil)
	defer db.Close()

	iter, err := db.Scan("seq")
	c.Assert(err, IsNil)
	defer iter.Close()

	var count int64
	for {
		row, err := iter.Next()
		if err == io.EOF {
			break
		}
		c.Assert(err, IsNil)
		count++
		c.Assert(row.ID, Equals, count)
		c.Assert(row.Values[0], Equals, count)
	}
	c.Assert(count, Equals, int64(2000))

	// Seek lands mid-tree without scanning from the start.
	iter, err = db.Seek("seq", 1500)
	c.Assert(err, IsNil)
	defer iter.Close()
	row, err := iter.Next()
	c.Assert(err, IsNil)
	c.Assert(row.ID, Equals, int64(1500))
}

func (s *SqliteCompatSuite) TestIndexInRealFile(c *C) {
	path := createFixture(c, []string{
		`CREATE TABLE words (w TEXT)`,
		`INSERT INTO words VALUES ('cherry'), ('apple'), ('banana')`,
		`CREATE INDEX words_by_w ON words (w)`,
	})

	db, err := Open(path)
	c.Assert(err, IsNil)
	defer db.Close()

	iter, err := db.ScanIndex("words_by_w")
	c.Assert(err, IsNil)
	defer iter.Close()

	var keys []string
	for {
		entry, err := iter.Next()
		if err == io.EOF {
			break
		}
		c.Assert(err, IsNil)
		keys = append(keys, entry[0].(string))
	}
	c.Assert(keys, DeepEquals, []string{"apple", "banana", "cherry"})

	entry, found, err := db.IndexLookup("words_by_w", sq3.Record{"banana"})
	c.Assert(err, IsNil)
	c.Assert(found, IsTrue)
	c.Assert(entry[1], Equals, int64(3))
}
