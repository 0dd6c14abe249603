package btree

import (
	"io"
	"sort"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/db_file"
)

// frame records one interior page on the path from the root to the current
// leaf, plus which child to descend next when the subtree below is
// exhausted.
type frame struct {
	page      *tableInteriorPage
	nextChild int
}

// Cursor streams the rows of one table b-tree in rowid order.  It keeps an
// explicit stack of ancestor frames instead of parent pointers, so the
// memory footprint is the tree height regardless of table size.
type Cursor struct {
	db    *db_file.DBFile
	stack []frame
	leaf  *tableLeafPage
	// nextCell indexes into leaf's cell pointer array.
	nextCell int
	lastID   int64
	started  bool
	done     bool
	err      error
}

var _ sq3.Iterator = (*Cursor)(nil)

// Scan opens a cursor positioned before the first row of the tree rooted at
// rootPage.
func Scan(db *db_file.DBFile, rootPage int64) (*Cursor, error) {
	cur := &Cursor{db: db}
	if err := cur.descend(rootPage, 0); err != nil {
		return nil, err
	}
	return cur, nil
}

// Seek opens a cursor positioned at the first row whose rowid is >= key.
// Interior pages hold the largest rowid of each child subtree, so binary
// search for the first separator >= key picks the only child that can
// contain it.
func Seek(db *db_file.DBFile, rootPage int64, key int64) (*Cursor, error) {
	cur := &Cursor{db: db}
	pageNo := rootPage
	for {
		p, err := readPage(db, pageNo)
		if err != nil {
			return nil, err
		}
		switch page := p.(type) {
		case *tableLeafPage:
			i, err := page.searchRowID(key)
			if err != nil {
				return nil, err
			}
			cur.leaf = page
			cur.nextCell = i
			if i == page.numCells {
				// Past the last cell of this leaf; pop up to the next
				// subtree on the first read.
				cur.leaf = nil
			}
			return cur, nil
		case *tableInteriorPage:
			if len(cur.stack) >= maxTreeDepth {
				return nil, errors.Wrapf(
					sq3.ErrCorruptDatabase,
					"table b-tree deeper than %d levels", maxTreeDepth)
			}
			i, err := page.searchKey(key)
			if err != nil {
				return nil, err
			}
			child, err := page.childAt(i)
			if err != nil {
				return nil, err
			}
			cur.stack = append(cur.stack, frame{page: page, nextChild: i + 1})
			pageNo = child
		default:
			return nil, errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d: index page inside a table b-tree", p.header().pageNo)
		}
	}
}

// searchRowID returns the index of the first cell with rowid >= key, or
// numCells when every cell is smaller.
func (p *tableLeafPage) searchRowID(key int64) (int, error) {
	var searchErr error
	i := sort.Search(p.numCells, func(i int) bool {
		if searchErr != nil {
			return true
		}
		cell, err := p.cell(i)
		if err != nil {
			searchErr = err
			return true
		}
		return cell.rowID >= key
	})
	if searchErr != nil {
		return 0, searchErr
	}
	return i, nil
}

// searchKey returns the index of the first separator key >= key, which is
// also the descent index of the child subtree covering key.
func (p *tableInteriorPage) searchKey(key int64) (int, error) {
	var searchErr error
	i := sort.Search(p.numCells, func(i int) bool {
		if searchErr != nil {
			return true
		}
		cell, err := p.cell(i)
		if err != nil {
			searchErr = err
			return true
		}
		return cell.key >= key
	})
	if searchErr != nil {
		return 0, searchErr
	}
	return i, nil
}

// descend walks to the left-most leaf of the subtree rooted at pageNo,
// starting each interior page at child index firstChild.
func (cur *Cursor) descend(pageNo int64, firstChild int) error {
	for {
		p, err := readPage(cur.db, pageNo)
		if err != nil {
			return err
		}
		switch page := p.(type) {
		case *tableLeafPage:
			cur.leaf = page
			cur.nextCell = 0
			return nil
		case *tableInteriorPage:
			if len(cur.stack) >= maxTreeDepth {
				return errors.Wrapf(
					sq3.ErrCorruptDatabase,
					"table b-tree deeper than %d levels", maxTreeDepth)
			}
			child, err := page.childAt(firstChild)
			if err != nil {
				return err
			}
			cur.stack = append(cur.stack, frame{page: page, nextChild: firstChild + 1})
			pageNo = child
			firstChild = 0
		default:
			return errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d: index page inside a table b-tree", p.header().pageNo)
		}
	}
}

// advance moves to the next leaf cell, popping exhausted ancestors as
// needed.  Sets done when the tree is exhausted.
func (cur *Cursor) advance() error {
	if cur.leaf != nil && cur.nextCell < cur.leaf.numCells {
		return nil
	}
	cur.leaf = nil
	for len(cur.stack) > 0 {
		top := &cur.stack[len(cur.stack)-1]
		if top.nextChild > top.page.numCells {
			cur.stack = cur.stack[:len(cur.stack)-1]
			continue
		}
		child, err := top.page.childAt(top.nextChild)
		if err != nil {
			return err
		}
		top.nextChild++
		if err := cur.descend(child, 0); err != nil {
			return err
		}
		if cur.leaf.numCells > 0 {
			return nil
		}
		cur.leaf = nil
	}
	cur.done = true
	return nil
}

func (cur *Cursor) Next() (sq3.Row, error) {
	if cur.err != nil {
		return sq3.Row{}, cur.err
	}
	if err := cur.advance(); err != nil {
		cur.fail(err)
		return sq3.Row{}, err
	}
	if cur.done {
		cur.err = io.EOF
		return sq3.Row{}, io.EOF
	}
	cell, err := cur.leaf.cell(cur.nextCell)
	if err != nil {
		cur.fail(err)
		return sq3.Row{}, err
	}
	cur.nextCell++
	if cur.started && cell.rowID <= cur.lastID {
		err = errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"page %d: rowid %d out of order after %d",
			cur.leaf.pageNo, cell.rowID, cur.lastID)
		cur.fail(err)
		return sq3.Row{}, err
	}
	cur.started = true
	cur.lastID = cell.rowID

	payload, err := cellPayload(cur.db, cell.local, cell.payloadSize, cell.overflowPage)
	if err != nil {
		cur.fail(errors.Wrapf(err, "rowid %d", cell.rowID))
		return sq3.Row{}, cur.err
	}
	values, err := sq3.DecodeRecord(payload)
	if err != nil {
		cur.fail(errors.Wrapf(err, "page %d rowid %d", cur.leaf.pageNo, cell.rowID))
		return sq3.Row{}, cur.err
	}
	return sq3.Row{ID: cell.rowID, Values: values}, nil
}

// fail poisons the cursor so every later Next returns the same error.
func (cur *Cursor) fail(err error) {
	cur.err = err
	cur.leaf = nil
	cur.stack = nil
}

func (cur *Cursor) Close() error {
	cur.fail(io.EOF)
	return nil
}

// maxTreeDepth bounds descent so a page cycle fails instead of recursing
// forever.  SQLite's own limit is far lower.
const maxTreeDepth = 64
