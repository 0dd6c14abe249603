package db_file

import (
	"io"
	"sync"

	"github.com/dropbox/godropbox/errors"
	"github.com/golang/groupcache/lru"

	"github.com/robot-dreams/sq3"
)

// DefaultCacheSize is the number of pages the LRU cache retains.
const DefaultCacheSize = 64

// DBFile owns a read-only database image and serves 1-indexed pages out of
// it.  Cached page buffers are shared between callers and with the cache
// itself; treat them as immutable.
type DBFile struct {
	src    ByteSource
	header *Header

	// numPages is the declared page count, which is authoritative for
	// traversal; the file length is only a sanity bound enforced per read.
	numPages int64

	// The lru.Cache is not safe for concurrent use.
	mu    sync.Mutex
	cache *lru.Cache
}

// Open opens the database file at path.
func Open(path string) (*DBFile, error) {
	src, err := OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	db, err := OpenSource(src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return db, nil
}

// OpenSource validates the header of src and prepares page access.  DBFile
// takes ownership of src.
func OpenSource(src ByteSource) (*DBFile, error) {
	buf := make([]byte, HeaderSize)
	if _, err := src.ReadAt(buf, 0); err != nil {
		return nil, sq3.ErrNotASqliteFile
	}
	header, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	numPages := int64(header.PageCount)
	if numPages == 0 || header.ChangeCounter != header.VersionValidFor {
		// The in-header page count is stale; fall back to the file length.
		numPages = src.Size() / int64(header.PageSize)
	}
	return &DBFile{
		src:      src,
		header:   header,
		numPages: numPages,
		cache:    lru.New(DefaultCacheSize),
	}, nil
}

func (db *DBFile) Header() *Header {
	return db.header
}

// NumPages returns the page count used as the traversal bound.
func (db *DBFile) NumPages() int64 {
	return db.numPages
}

// ReadPage returns the raw bytes of the given 1-indexed page.  The returned
// buffer is shared with the page cache and must not be modified.
func (db *DBFile) ReadPage(pageNo int64) ([]byte, error) {
	if pageNo < 1 || pageNo > db.numPages {
		return nil, errors.Wrapf(
			sq3.ErrPageOutOfBounds,
			"page %d, database has %d pages", pageNo, db.numPages)
	}
	db.mu.Lock()
	cached, ok := db.cache.Get(pageNo)
	db.mu.Unlock()
	if ok {
		return cached.([]byte), nil
	}
	buf := make([]byte, db.header.PageSize)
	off := (pageNo - 1) * int64(db.header.PageSize)
	n, err := db.src.ReadAt(buf, off)
	if n < len(buf) {
		// Declared page count runs past the end of the file, e.g. a
		// truncated database.
		return nil, errors.Wrapf(
			sq3.ErrPageOutOfBounds,
			"page %d extends past end of file (read %d of %d bytes)",
			pageNo, n, len(buf))
	}
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "reading page %d", pageNo)
	}
	db.mu.Lock()
	db.cache.Add(pageNo, buf)
	db.mu.Unlock()
	return buf, nil
}

func (db *DBFile) Close() error {
	db.mu.Lock()
	db.cache.Clear()
	db.mu.Unlock()
	return db.src.Close()
}
