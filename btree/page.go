package btree

import (
	"encoding/binary"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/db_file"
)

// Page type markers, the first byte of every b-tree page header.
const (
	pageTypeIndexInterior = 0x02
	pageTypeTableInterior = 0x05
	pageTypeIndexLeaf     = 0x0a
	pageTypeTableLeaf     = 0x0d
)

const (
	leafHeaderSize     = 8
	interiorHeaderSize = 12
)

var byteOrder = binary.BigEndian

// pageHeader holds the fields shared by all four page variants.  Cell
// pointers are 2-byte offsets from the start of the page buffer; on page 1
// they already account for the 100-byte file header.
type pageHeader struct {
	pageNo           int64
	firstFreeblock   int
	numCells         int
	cellContentStart int
	fragmentedBytes  int
	cellPointers     []uint16
	usableSize       int
}

func (h *pageHeader) header() *pageHeader {
	return h
}

// page is the closed set of b-tree page variants.  Modeling the variants as
// separate types keeps invalid combinations (a leaf with a right-most
// pointer) unrepresentable.
type page interface {
	header() *pageHeader
}

type tableLeafPage struct {
	pageHeader
	data []byte
}

type tableInteriorPage struct {
	pageHeader
	data []byte
	// rightMost covers keys greater than every explicit cell key.
	rightMost int64
}

type indexLeafPage struct {
	pageHeader
	data []byte
}

type indexInteriorPage struct {
	pageHeader
	data      []byte
	rightMost int64
}

var (
	_ page = (*tableLeafPage)(nil)
	_ page = (*tableInteriorPage)(nil)
	_ page = (*indexLeafPage)(nil)
	_ page = (*indexInteriorPage)(nil)
)

// parsePage maps a raw page buffer into a typed page view.  It is a pure
// transform over a buffer the caller owns; nothing is read from disk.
func parsePage(data []byte, pageNo int64, usableSize int) (page, error) {
	off := 0
	if pageNo == 1 {
		// Page 1 shares its buffer with the database file header.
		off = db_file.HeaderSize
	}
	if len(data) < off+leafHeaderSize {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase, "page %d: buffer too small (%d bytes)",
			pageNo, len(data))
	}
	typeByte := data[off]
	interior := typeByte == pageTypeTableInterior || typeByte == pageTypeIndexInterior
	switch typeByte {
	case pageTypeTableLeaf, pageTypeTableInterior, pageTypeIndexLeaf, pageTypeIndexInterior:
	default:
		return nil, errors.Wrapf(
			sq3.ErrUnknownPageType, "page %d: type byte 0x%02x", pageNo, typeByte)
	}
	h := pageHeader{
		pageNo:           pageNo,
		firstFreeblock:   int(byteOrder.Uint16(data[off+1:])),
		numCells:         int(byteOrder.Uint16(data[off+3:])),
		cellContentStart: int(byteOrder.Uint16(data[off+5:])),
		fragmentedBytes:  int(data[off+7]),
		usableSize:       usableSize,
	}
	if h.cellContentStart == 0 {
		// Stored as 0 when the content area starts at 65536.
		h.cellContentStart = db_file.MaxPageSize
	}
	headerSize := leafHeaderSize
	var rightMost int64
	if interior {
		if len(data) < off+interiorHeaderSize {
			return nil, errors.Wrapf(
				sq3.ErrCorruptDatabase, "page %d: interior header truncated", pageNo)
		}
		rightMost = int64(byteOrder.Uint32(data[off+8:]))
		headerSize = interiorHeaderSize
	}
	ptrStart := off + headerSize
	ptrEnd := ptrStart + 2*h.numCells
	if ptrEnd > usableSize || ptrEnd > len(data) {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"page %d: cell pointer array for %d cells overruns the page",
			pageNo, h.numCells)
	}
	h.cellPointers = make([]uint16, h.numCells)
	for i := range h.cellPointers {
		p := byteOrder.Uint16(data[ptrStart+2*i:])
		if int(p) < ptrEnd || int(p) >= len(data) {
			return nil, errors.Wrapf(
				sq3.ErrCorruptDatabase,
				"page %d: cell %d points at offset %d", pageNo, i, p)
		}
		h.cellPointers[i] = p
	}
	switch typeByte {
	case pageTypeTableLeaf:
		return &tableLeafPage{pageHeader: h, data: data}, nil
	case pageTypeTableInterior:
		return &tableInteriorPage{pageHeader: h, data: data, rightMost: rightMost}, nil
	case pageTypeIndexLeaf:
		return &indexLeafPage{pageHeader: h, data: data}, nil
	default:
		return &indexInteriorPage{pageHeader: h, data: data, rightMost: rightMost}, nil
	}
}

// freeSpace returns the unallocated gap between the cell pointer array and
// the cell content area, plus any fragmented bytes.  Freeblocks inside the
// content area are not walked here; see freeblocks.
func (h *pageHeader) freeSpace(headerSize int) int {
	off := 0
	if h.pageNo == 1 {
		off = db_file.HeaderSize
	}
	gap := h.cellContentStart - (off + headerSize + 2*h.numCells)
	if gap < 0 {
		gap = 0
	}
	return gap + h.fragmentedBytes
}

// freeblock is one entry in a page's freeblock chain.
type freeblock struct {
	offset int
	next   int
	size   int
}

// freeblocks walks the freeblock chain of a page.  Inert for traversal, but
// surfaced for inspection tooling.
func freeblocks(data []byte, h *pageHeader) ([]freeblock, error) {
	var out []freeblock
	for off := h.firstFreeblock; off != 0; {
		if off+4 > len(data) || len(out) > h.usableSize/4 {
			return nil, errors.Wrapf(
				sq3.ErrCorruptDatabase, "page %d: bad freeblock chain", h.pageNo)
		}
		fb := freeblock{
			offset: off,
			next:   int(byteOrder.Uint16(data[off:])),
			size:   int(byteOrder.Uint16(data[off+2:])),
		}
		out = append(out, fb)
		off = fb.next
	}
	return out, nil
}

// readPage fetches and parses a b-tree page in one step.
func readPage(db *db_file.DBFile, pageNo int64) (page, error) {
	data, err := db.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	return parsePage(data, pageNo, db.Header().UsableSize())
}
