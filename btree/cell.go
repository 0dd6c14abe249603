package btree

import (
	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/sq3"
)

// tableLeafCell is varint payload length, varint rowid, then the in-page
// payload prefix, then (only when the payload spills) a 4-byte first
// overflow page number.
type tableLeafCell struct {
	rowID        int64
	payloadSize  int64
	local        []byte
	overflowPage int64
}

// tableInteriorCell is a 4-byte child page number followed by a varint key:
// the largest rowid in that child's subtree.
type tableInteriorCell struct {
	childPage int64
	key       int64
}

// indexCell carries a serialized record as its key.  childPage is zero on
// leaf pages.
type indexCell struct {
	childPage    int64
	payloadSize  int64
	local        []byte
	overflowPage int64
}

// LocalPayload returns how many payload bytes are stored in the cell itself;
// the rest live on the overflow chain.  The thresholds are part of the file
// format: with U the usable page size, a table leaf cell may embed up to
// X = U-35 bytes (index cells: X = ((U-12)*64/255)-23) and never embeds
// fewer than M = ((U-12)*32/255)-23.  A spilling cell keeps
// K = M + (payload-M) mod (U-4) bytes locally when that still fits, so the
// final overflow page is as full as possible.
func LocalPayload(payloadSize int64, usableSize int, indexPage bool) int {
	u := int64(usableSize)
	x := u - 35
	if indexPage {
		x = (u-12)*64/255 - 23
	}
	if payloadSize <= x {
		return int(payloadSize)
	}
	m := (u-12)*32/255 - 23
	k := m + (payloadSize-m)%(u-4)
	if k <= x {
		return int(k)
	}
	return int(m)
}

func (p *tableLeafPage) cell(i int) (*tableLeafCell, error) {
	b := p.data[p.cellPointers[i]:]
	payloadSize, n, err := sq3.GetVarint(b)
	if err != nil {
		return nil, wrapCellErr(err, p.pageNo, i)
	}
	rowID, m, err := sq3.GetVarint(b[n:])
	if err != nil {
		return nil, wrapCellErr(err, p.pageNo, i)
	}
	if payloadSize < 0 {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"page %d cell %d: negative payload length %d", p.pageNo, i, payloadSize)
	}
	local := LocalPayload(payloadSize, p.usableSize, false)
	body := b[n+m:]
	if local > len(body) {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"page %d cell %d: local payload %d overruns the page", p.pageNo, i, local)
	}
	cell := &tableLeafCell{
		rowID:       rowID,
		payloadSize: payloadSize,
		local:       body[:local],
	}
	if int64(local) < payloadSize {
		if local+4 > len(body) {
			return nil, errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d cell %d: overflow pointer overruns the page", p.pageNo, i)
		}
		cell.overflowPage = int64(byteOrder.Uint32(body[local:]))
	}
	return cell, nil
}

func (p *tableInteriorPage) cell(i int) (*tableInteriorCell, error) {
	b := p.data[p.cellPointers[i]:]
	if len(b) < 5 {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"page %d cell %d: interior cell truncated", p.pageNo, i)
	}
	key, _, err := sq3.GetVarint(b[4:])
	if err != nil {
		return nil, wrapCellErr(err, p.pageNo, i)
	}
	return &tableInteriorCell{
		childPage: int64(byteOrder.Uint32(b)),
		key:       key,
	}, nil
}

// childAt maps a descent index to a child page: index numCells is the
// right-most pointer.
func (p *tableInteriorPage) childAt(i int) (int64, error) {
	if i == p.numCells {
		return p.rightMost, nil
	}
	cell, err := p.cell(i)
	if err != nil {
		return 0, err
	}
	return cell.childPage, nil
}

func (p *indexLeafPage) cell(i int) (*indexCell, error) {
	return parseIndexCell(p.data, p.cellPointers[i], p.pageNo, i, p.usableSize, false)
}

func (p *indexInteriorPage) cell(i int) (*indexCell, error) {
	return parseIndexCell(p.data, p.cellPointers[i], p.pageNo, i, p.usableSize, true)
}

func (p *indexInteriorPage) childAt(i int) (int64, error) {
	if i == p.numCells {
		return p.rightMost, nil
	}
	cell, err := p.cell(i)
	if err != nil {
		return 0, err
	}
	return cell.childPage, nil
}

func parseIndexCell(
	data []byte,
	ptr uint16,
	pageNo int64,
	i int,
	usableSize int,
	interior bool,
) (*indexCell, error) {
	b := data[ptr:]
	cell := &indexCell{}
	if interior {
		if len(b) < 4 {
			return nil, errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d cell %d: interior cell truncated", pageNo, i)
		}
		cell.childPage = int64(byteOrder.Uint32(b))
		b = b[4:]
	}
	payloadSize, n, err := sq3.GetVarint(b)
	if err != nil {
		return nil, wrapCellErr(err, pageNo, i)
	}
	if payloadSize < 0 {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"page %d cell %d: negative payload length %d", pageNo, i, payloadSize)
	}
	cell.payloadSize = payloadSize
	local := LocalPayload(payloadSize, usableSize, true)
	body := b[n:]
	if local > len(body) {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"page %d cell %d: local payload %d overruns the page", pageNo, i, local)
	}
	cell.local = body[:local]
	if int64(local) < payloadSize {
		if local+4 > len(body) {
			return nil, errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d cell %d: overflow pointer overruns the page", pageNo, i)
		}
		cell.overflowPage = int64(byteOrder.Uint32(body[local:]))
	}
	return cell, nil
}

func wrapCellErr(err error, pageNo int64, cell int) error {
	return errors.Wrapf(err, "page %d cell %d", pageNo, cell)
}
