package rows

import (
	"io"

	"github.com/robot-dreams/sq3"
)

// limit sets an upper bound on the number of rows that can be read from the
// input iterator.
type limit struct {
	iter        sq3.Iterator
	maxRows     int
	numRowsRead int
}

var _ sq3.Iterator = (*limit)(nil)

func NewLimit(iter sq3.Iterator, maxRows int) *limit {
	return &limit{
		iter:    iter,
		maxRows: maxRows,
	}
}

func (l *limit) Next() (sq3.Row, error) {
	if l.numRowsRead == l.maxRows {
		return sq3.Row{}, io.EOF
	}
	row, err := l.iter.Next()
	if err != nil {
		return sq3.Row{}, err
	}
	l.numRowsRead++
	return row, nil
}

func (l *limit) Close() error {
	return l.iter.Close()
}
