package db_file

import (
	"bytes"
	"os"

	"github.com/dropbox/godropbox/errors"
)

// ByteSource provides stateless positioned reads over a database image.
// Implementations must support concurrent ReadAt calls with no shared
// cursor state, so multiple open cursors can interleave page reads without
// synchronization.
type ByteSource interface {
	ReadAt(b []byte, off int64) (int, error)
	Size() int64
	Close() error
}

type fileSource struct {
	file *os.File
	size int64
}

var _ ByteSource = (*fileSource)(nil)

// OpenFileSource opens path read-only.  The database file is never written,
// truncated, or locked.
func OpenFileSource(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileSource{
		file: f,
		size: stat.Size(),
	}, nil
}

func (fs *fileSource) ReadAt(b []byte, off int64) (int, error) {
	return fs.file.ReadAt(b, off)
}

func (fs *fileSource) Size() int64 {
	return fs.size
}

func (fs *fileSource) Close() error {
	return fs.file.Close()
}

type bytesSource struct {
	r *bytes.Reader
}

var _ ByteSource = (*bytesSource)(nil)

// NewBytesSource serves a database image held in memory.
func NewBytesSource(data []byte) *bytesSource {
	return &bytesSource{
		r: bytes.NewReader(data),
	}
}

func (bs *bytesSource) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Newf("negative offset %d", off)
	}
	return bs.r.ReadAt(b, off)
}

func (bs *bytesSource) Size() int64 {
	return bs.r.Size()
}

func (bs *bytesSource) Close() error {
	return nil
}
