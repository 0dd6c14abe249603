package sq3

import (
	"io"
)

type inMemoryScan struct {
	rows []Row
}

var _ Iterator = (*inMemoryScan)(nil)

// NewInMemoryScan yields the given rows in order.  It's mainly useful for
// testing operators that consume Iterators without building a database file.
func NewInMemoryScan(rows []Row) *inMemoryScan {
	return &inMemoryScan{
		rows: rows,
	}
}

func (m *inMemoryScan) Next() (Row, error) {
	if len(m.rows) == 0 {
		return Row{}, io.EOF
	}
	r := m.rows[0]
	m.rows = m.rows[1:]
	return r, nil
}

func (m *inMemoryScan) Close() error {
	m.rows = nil
	return nil
}
