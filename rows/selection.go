// Package rows provides composable iterator transforms over table rows:
// selection, projection, and limit.  They exist so inspection tooling can
// filter a scan without materializing it.
package rows

import "github.com/robot-dreams/sq3"

// selection restricts rows from the input to those that satisfy the
// predicate.
type selection struct {
	iter sq3.Iterator
	p    sq3.Predicate
}

var _ sq3.Iterator = (*selection)(nil)

func NewSelection(iter sq3.Iterator, p sq3.Predicate) *selection {
	return &selection{
		iter: iter,
		p:    p,
	}
}

func (s *selection) Next() (sq3.Row, error) {
	for {
		row, err := s.iter.Next()
		if err != nil {
			return sq3.Row{}, err
		}
		if s.p(row) {
			return row, nil
		}
	}
}

func (s *selection) Close() error {
	return s.iter.Close()
}
