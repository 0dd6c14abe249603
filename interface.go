package sq3

// Value is a single decoded column value.  The concrete type is determined
// by the serial type stored in the record header:
//
//	nil      NULL
//	int64    integer serial types (1-6, 8, 9)
//	float64  serial type 7
//	string   odd serial types >= 13
//	[]byte   even serial types >= 12
type Value interface{}

// Record is an ordered sequence of column values decoded from one cell
// payload.
type Record []Value

func (r1 Record) Equals(r2 Record) bool {
	if len(r1) != len(r2) {
		return false
	}
	for i := range r1 {
		if !ValueEquals(r1[i], r2[i]) {
			return false
		}
	}
	return true
}

// Row is one table row: the rowid key plus its decoded columns.
type Row struct {
	ID     int64
	Values Record
}

func (r1 Row) Equals(r2 Row) bool {
	return r1.ID == r2.ID && r1.Values.Equals(r2.Values)
}

type Predicate func(Row) bool

// Iterator yields Rows in strictly increasing rowid order.
type Iterator interface {
	// Returns io.EOF if there are no more rows.
	Next() (Row, error)
	Close() error
}
