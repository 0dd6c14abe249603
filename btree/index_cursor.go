package btree

import (
	"io"
	"sort"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/db_file"
)

// indexFrame tracks in-order traversal of an interior index page: child i
// is visited before cell i's own entry.  descended is set once child
// nextCell has been entered, so popping back emits the separator entry.
type indexFrame struct {
	page      *indexInteriorPage
	nextCell  int
	descended bool
}

// IndexCursor streams the entries of an index b-tree in key order.  Unlike
// table trees, interior index pages carry entries of their own, so the
// traversal is a full in-order walk.
type IndexCursor struct {
	db    *db_file.DBFile
	stack []indexFrame
	leaf  *indexLeafPage
	// nextCell indexes into leaf's cell pointer array.
	nextCell int
	err      error
}

// ScanIndex opens a cursor over the index b-tree rooted at rootPage.
// Next returns each entry's full record (key columns followed by the
// rowid) and io.EOF at the end.
func ScanIndex(db *db_file.DBFile, rootPage int64) (*IndexCursor, error) {
	cur := &IndexCursor{db: db}
	if err := cur.descend(rootPage); err != nil {
		return nil, err
	}
	return cur, nil
}

func (cur *IndexCursor) descend(pageNo int64) error {
	for {
		p, err := readPage(cur.db, pageNo)
		if err != nil {
			return err
		}
		switch page := p.(type) {
		case *indexLeafPage:
			cur.leaf = page
			cur.nextCell = 0
			return nil
		case *indexInteriorPage:
			if len(cur.stack) >= maxTreeDepth {
				return errors.Wrapf(
					sq3.ErrCorruptDatabase,
					"index b-tree deeper than %d levels", maxTreeDepth)
			}
			child, err := page.childAt(0)
			if err != nil {
				return err
			}
			cur.stack = append(cur.stack, indexFrame{page: page, descended: true})
			pageNo = child
		default:
			return errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d: table page inside an index b-tree", p.header().pageNo)
		}
	}
}

// Next returns the next index entry in key order.
func (cur *IndexCursor) Next() (sq3.Record, error) {
	if cur.err != nil {
		return nil, cur.err
	}
	for {
		if cur.leaf != nil {
			if cur.nextCell < cur.leaf.numCells {
				cell, err := cur.leaf.cell(cur.nextCell)
				if err != nil {
					cur.fail(err)
					return nil, err
				}
				cur.nextCell++
				return cur.decode(cell)
			}
			cur.leaf = nil
		}
		if len(cur.stack) == 0 {
			cur.err = io.EOF
			return nil, io.EOF
		}
		top := &cur.stack[len(cur.stack)-1]
		switch {
		case top.descended:
			// Just came back up from child nextCell; emit the separator
			// entry sitting to its right, if any.
			top.descended = false
			if top.nextCell < top.page.numCells {
				cell, err := top.page.cell(top.nextCell)
				if err != nil {
					cur.fail(err)
					return nil, err
				}
				return cur.decode(cell)
			}
			cur.stack = cur.stack[:len(cur.stack)-1]
		default:
			top.nextCell++
			child, err := top.page.childAt(top.nextCell)
			if err != nil {
				cur.fail(err)
				return nil, err
			}
			top.descended = true
			if err := cur.descend(child); err != nil {
				cur.fail(err)
				return nil, err
			}
		}
	}
}

func (cur *IndexCursor) decode(cell *indexCell) (sq3.Record, error) {
	payload, err := cellPayload(cur.db, cell.local, cell.payloadSize, cell.overflowPage)
	if err != nil {
		cur.fail(err)
		return nil, err
	}
	record, err := sq3.DecodeRecord(payload)
	if err != nil {
		cur.fail(err)
		return nil, err
	}
	return record, nil
}

func (cur *IndexCursor) fail(err error) {
	cur.err = err
	cur.leaf = nil
	cur.stack = nil
}

func (cur *IndexCursor) Close() error {
	cur.fail(io.EOF)
	return nil
}

// IndexLookup finds the first index entry whose leading columns equal key
// and returns its full record.  The bool result reports whether a match
// exists.  A search key shorter than the indexed record matches on prefix,
// which is how a single-column lookup works against a multi-column index.
func IndexLookup(
	db *db_file.DBFile,
	rootPage int64,
	key sq3.Record,
) (sq3.Record, bool, error) {
	// An equal separator on an interior page is only the answer when its
	// left child holds no equal entry, so remember it and keep descending.
	var fallback sq3.Record
	pageNo := rootPage
	for depth := 0; ; depth++ {
		if depth >= maxTreeDepth {
			return nil, false, errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"index b-tree deeper than %d levels", maxTreeDepth)
		}
		p, err := readPage(db, pageNo)
		if err != nil {
			return nil, false, err
		}
		switch page := p.(type) {
		case *indexLeafPage:
			record, cmp, err := searchIndexPage(db, page.numCells, key,
				func(i int) (*indexCell, error) { return page.cell(i) })
			if err != nil {
				return nil, false, err
			}
			if cmp == 0 {
				return record, true, nil
			}
			if fallback != nil {
				return fallback, true, nil
			}
			return nil, false, nil
		case *indexInteriorPage:
			record, cmp, err := searchIndexPage(db, page.numCells, key,
				func(i int) (*indexCell, error) { return page.cell(i) })
			if err != nil {
				return nil, false, err
			}
			if cmp == 0 {
				fallback = record
			}
			child, err := descentChild(db, page, key)
			if err != nil {
				return nil, false, err
			}
			pageNo = child
		default:
			return nil, false, errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d: table page inside an index b-tree", p.header().pageNo)
		}
	}
}

// searchIndexPage binary-searches a page's cells for the first entry whose
// key prefix is >= key.  Returns that entry's record and its comparison
// against key, or (nil, 1) when every entry is smaller.
func searchIndexPage(
	db *db_file.DBFile,
	numCells int,
	key sq3.Record,
	cellAt func(int) (*indexCell, error),
) (sq3.Record, int, error) {
	var searchErr error
	records := make(map[int]sq3.Record)
	compareAt := func(i int) (int, error) {
		cell, err := cellAt(i)
		if err != nil {
			return 0, err
		}
		payload, err := cellPayload(db, cell.local, cell.payloadSize, cell.overflowPage)
		if err != nil {
			return 0, err
		}
		record, err := sq3.DecodeRecord(payload)
		if err != nil {
			return 0, err
		}
		records[i] = record
		return compareKeyPrefix(key, record), nil
	}
	i := sort.Search(numCells, func(i int) bool {
		if searchErr != nil {
			return true
		}
		cmp, err := compareAt(i)
		if err != nil {
			searchErr = err
			return true
		}
		return cmp <= 0
	})
	if searchErr != nil {
		return nil, 0, searchErr
	}
	if i == numCells {
		return nil, 1, nil
	}
	record := records[i]
	return record, -compareKeyPrefix(key, record), nil
}

// descentChild picks the interior child subtree that can contain key: the
// child left of the first separator >= key, or the right-most pointer.
func descentChild(
	db *db_file.DBFile,
	page *indexInteriorPage,
	key sq3.Record,
) (int64, error) {
	var searchErr error
	i := sort.Search(page.numCells, func(i int) bool {
		if searchErr != nil {
			return true
		}
		cell, err := page.cell(i)
		if err != nil {
			searchErr = err
			return true
		}
		payload, err := cellPayload(db, cell.local, cell.payloadSize, cell.overflowPage)
		if err != nil {
			searchErr = err
			return true
		}
		record, err := sq3.DecodeRecord(payload)
		if err != nil {
			searchErr = err
			return true
		}
		return compareKeyPrefix(key, record) <= 0
	})
	if searchErr != nil {
		return 0, searchErr
	}
	return page.childAt(i)
}

// compareKeyPrefix compares a search key against an index entry column by
// column.  A key shorter than the entry compares equal on a full prefix
// match, since the entry's trailing columns (at minimum the rowid) are not
// part of the search.
func compareKeyPrefix(key, entry sq3.Record) int {
	for i, kv := range key {
		if i >= len(entry) {
			return 1
		}
		if cmp := sq3.CompareValues(kv, entry[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}
