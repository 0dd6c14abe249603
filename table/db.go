package table

import (
	"io"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/btree"
	"github.com/robot-dreams/sq3/db_file"
)

// DB is an open database with its schema catalog loaded.
type DB struct {
	file    *db_file.DBFile
	catalog []SchemaEntry
}

// Open reads the database at path and loads its schema.
func Open(path string) (*DB, error) {
	file, err := db_file.Open(path)
	if err != nil {
		return nil, err
	}
	db, err := newDB(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return db, nil
}

// OpenSource wraps an already-open byte source.
func OpenSource(src db_file.ByteSource) (*DB, error) {
	file, err := db_file.OpenSource(src)
	if err != nil {
		return nil, err
	}
	db, err := newDB(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return db, nil
}

func newDB(file *db_file.DBFile) (*DB, error) {
	catalog, err := loadCatalog(file)
	if err != nil {
		return nil, err
	}
	return &DB{
		file:    file,
		catalog: catalog,
	}, nil
}

// File exposes the underlying page-level reader, mainly for inspection
// tooling.
func (db *DB) File() *db_file.DBFile {
	return db.file
}

// Catalog returns every schema entry in rowid order.
func (db *DB) Catalog() []SchemaEntry {
	return db.catalog
}

// RootPage resolves a table name to its b-tree root.
func (db *DB) RootPage(name string) (int64, error) {
	entry, err := findEntry(db.catalog, "table", name)
	if err != nil {
		return 0, err
	}
	if entry.RootPage < 1 {
		return 0, errors.Wrapf(
			sq3.ErrSchemaCorrupt, "table %q has root page %d", name, entry.RootPage)
	}
	return entry.RootPage, nil
}

// Scan returns an iterator over every row of the named table, in rowid
// order.
func (db *DB) Scan(name string) (sq3.Iterator, error) {
	root, err := db.RootPage(name)
	if err != nil {
		return nil, err
	}
	return btree.Scan(db.file, root)
}

// Seek returns an iterator positioned at the first row of the named table
// with rowid >= key.
func (db *DB) Seek(name string, key int64) (sq3.Iterator, error) {
	root, err := db.RootPage(name)
	if err != nil {
		return nil, err
	}
	return btree.Seek(db.file, root, key)
}

// Get fetches a single row by rowid.  The bool result reports whether the
// rowid exists.
func (db *DB) Get(name string, rowID int64) (sq3.Row, bool, error) {
	iter, err := db.Seek(name, rowID)
	if err != nil {
		return sq3.Row{}, false, err
	}
	defer func() { _ = iter.Close() }()
	row, err := iter.Next()
	if err == io.EOF {
		return sq3.Row{}, false, nil
	}
	if err != nil {
		return sq3.Row{}, false, err
	}
	if row.ID != rowID {
		return sq3.Row{}, false, nil
	}
	return row, true, nil
}

// indexRootPage resolves an index name to its b-tree root.
func (db *DB) indexRootPage(name string) (int64, error) {
	entry, err := findEntry(db.catalog, "index", name)
	if err != nil {
		return 0, err
	}
	if entry.RootPage < 1 {
		return 0, errors.Wrapf(
			sq3.ErrSchemaCorrupt, "index %q has root page %d", name, entry.RootPage)
	}
	return entry.RootPage, nil
}

// ScanIndex returns a cursor over the named index's entries in key order.
func (db *DB) ScanIndex(name string) (*btree.IndexCursor, error) {
	root, err := db.indexRootPage(name)
	if err != nil {
		return nil, err
	}
	return btree.ScanIndex(db.file, root)
}

// IndexLookup probes the named index for the first entry whose leading
// columns equal key.
func (db *DB) IndexLookup(name string, key sq3.Record) (sq3.Record, bool, error) {
	root, err := db.indexRootPage(name)
	if err != nil {
		return nil, false, err
	}
	return btree.IndexLookup(db.file, root, key)
}

func (db *DB) Close() error {
	return db.file.Close()
}
