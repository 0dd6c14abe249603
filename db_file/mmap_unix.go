//go:build unix

package db_file

import (
	"io"
	"os"

	"github.com/dropbox/godropbox/errors"
	"golang.org/x/sys/unix"
)

type mmapSource struct {
	file *os.File
	data []byte
}

var _ ByteSource = (*mmapSource)(nil)

// OpenMmapSource maps path read-only into memory.  Page reads become plain
// copies out of the mapping, which avoids a syscall per page on deep
// traversals.
func OpenMmapSource(path string) (*mmapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.Size() == 0 {
		_ = f.Close()
		return nil, errors.Newf("cannot mmap empty file %v", path)
	}
	data, err := unix.Mmap(
		int(f.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "mmap %v", path)
	}
	return &mmapSource{
		file: f,
		data: data,
	}, nil
}

func (ms *mmapSource) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(ms.data)) {
		return 0, io.EOF
	}
	n := copy(b, ms.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (ms *mmapSource) Size() int64 {
	return int64(len(ms.data))
}

func (ms *mmapSource) Close() error {
	if ms.data != nil {
		if err := unix.Munmap(ms.data); err != nil {
			return err
		}
		ms.data = nil
	}
	return ms.file.Close()
}
