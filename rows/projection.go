package rows

import "github.com/robot-dreams/sq3"

// projection keeps only the columns at the given positions, in the given
// order.  A position past the end of a row projects to NULL, since rows
// written before an ALTER TABLE ADD COLUMN are shorter than the current
// schema.
type projection struct {
	iter      sq3.Iterator
	positions []int
}

var _ sq3.Iterator = (*projection)(nil)

func NewProjection(iter sq3.Iterator, positions []int) *projection {
	return &projection{
		iter:      iter,
		positions: positions,
	}
}

func (p *projection) Next() (sq3.Row, error) {
	row, err := p.iter.Next()
	if err != nil {
		return sq3.Row{}, err
	}
	projected := make(sq3.Record, len(p.positions))
	for i, position := range p.positions {
		if position < len(row.Values) {
			projected[i] = row.Values[position]
		}
	}
	return sq3.Row{ID: row.ID, Values: projected}, nil
}

func (p *projection) Close() error {
	return p.iter.Close()
}
