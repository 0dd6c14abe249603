package sq3

// ColumnEquals matches rows whose column at index i equals v under SQLite
// value semantics.
func ColumnEquals(i int, v Value) Predicate {
	return func(row Row) bool {
		return i < len(row.Values) && ValueEquals(row.Values[i], v)
	}
}

// ColumnLess matches rows whose column at index i sorts before v.
func ColumnLess(i int, v Value) Predicate {
	return func(row Row) bool {
		return i < len(row.Values) && CompareValues(row.Values[i], v) < 0
	}
}

// RowIDEquals matches a single rowid.
func RowIDEquals(id int64) Predicate {
	return func(row Row) bool {
		return row.ID == id
	}
}
