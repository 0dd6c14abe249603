// Package sqtest builds small database images in memory for tests.  The
// builder writes the same on-disk structures the decoder reads: a 100-byte
// file header, b-tree pages with tail-allocated cells, and overflow chains
// for payloads that do not fit locally.
package sqtest

import (
	"encoding/binary"
	"fmt"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/btree"
)

const headerSize = 100

var byteOrder = binary.BigEndian

// SchemaEntry is one row of the schema table on page 1.
type SchemaEntry struct {
	Type      string
	Name      string
	TableName string
	RootPage  int64
	SQL       string
}

// ChildEntry pairs an interior table cell's child page with its separator
// key (the largest rowid in the child's subtree).
type ChildEntry struct {
	Key  int64
	Page int64
}

// IndexChildEntry pairs an interior index cell's child page with the
// separator record stored in the cell itself.
type IndexChildEntry struct {
	Record sq3.Record
	Page   int64
}

// Builder accumulates pages and emits a complete database image.  Page 1 is
// reserved for the schema table; every Add method allocates the next free
// page and returns its number.  Builder methods panic on impossible input
// since they only ever run under tests.
type Builder struct {
	pageSize   int
	pages      [][]byte
	schema     []SchemaEntry
	schemaRows []sq3.Row
}

func NewBuilder(pageSize int) *Builder {
	return &Builder{
		pageSize: pageSize,
		// Slot 0 is page 1, filled in by Bytes.
		pages: make([][]byte, 1),
	}
}

func (b *Builder) usableSize() int {
	return b.pageSize
}

func (b *Builder) allocate() int64 {
	b.pages = append(b.pages, nil)
	return int64(len(b.pages))
}

func (b *Builder) setPage(pageNo int64, data []byte) {
	if len(data) != b.pageSize {
		panic(fmt.Sprintf("page %d: %d bytes, want %d", pageNo, len(data), b.pageSize))
	}
	b.pages[pageNo-1] = data
}

// SetSchema declares the rows of the schema table.  They are written to
// page 1 when Bytes assembles the image.
func (b *Builder) SetSchema(entries []SchemaEntry) {
	b.schema = entries
}

// SetSchemaRows overrides the schema table with arbitrary records, for
// tests that need malformed schema rows.
func (b *Builder) SetSchemaRows(rows []sq3.Row) {
	b.schemaRows = rows
}

// AddTableLeaf writes a table leaf page holding the given rows, spilling
// any oversized payload onto freshly allocated overflow pages.  Rows must
// already be in rowid order.
func (b *Builder) AddTableLeaf(rows []sq3.Row) int64 {
	pageNo := b.allocate()
	cells := make([][]byte, len(rows))
	for i, row := range rows {
		cells[i] = b.tableLeafCell(row)
	}
	b.setPage(pageNo, b.buildPage(pageNo, 0x0d, cells, 0))
	return pageNo
}

// AddTableInterior writes an interior table page.  Children must be in key
// order; rightMost covers keys greater than every entry.
func (b *Builder) AddTableInterior(children []ChildEntry, rightMost int64) int64 {
	pageNo := b.allocate()
	cells := make([][]byte, len(children))
	for i, child := range children {
		cell := make([]byte, 4, 4+sq3.MaxVarintLen)
		byteOrder.PutUint32(cell, uint32(child.Page))
		cells[i] = sq3.PutVarint(cell, child.Key)
	}
	b.setPage(pageNo, b.buildPage(pageNo, 0x05, cells, rightMost))
	return pageNo
}

// AddIndexLeaf writes an index leaf page holding the given entries, in key
// order.
func (b *Builder) AddIndexLeaf(records []sq3.Record) int64 {
	pageNo := b.allocate()
	cells := make([][]byte, len(records))
	for i, record := range records {
		cells[i] = b.indexCell(record, 0, false)
	}
	b.setPage(pageNo, b.buildPage(pageNo, 0x0a, cells, 0))
	return pageNo
}

// AddIndexInterior writes an interior index page.
func (b *Builder) AddIndexInterior(children []IndexChildEntry, rightMost int64) int64 {
	pageNo := b.allocate()
	cells := make([][]byte, len(children))
	for i, child := range children {
		cells[i] = b.indexCell(child.Record, child.Page, true)
	}
	b.setPage(pageNo, b.buildPage(pageNo, 0x02, cells, rightMost))
	return pageNo
}

// AddRawPage claims a page number for an arbitrary page image, for tests
// that need malformed pages.
func (b *Builder) AddRawPage(data []byte) int64 {
	pageNo := b.allocate()
	page := make([]byte, b.pageSize)
	copy(page, data)
	b.setPage(pageNo, page)
	return pageNo
}

func (b *Builder) tableLeafCell(row sq3.Row) []byte {
	payload, err := sq3.EncodeRecord(row.Values)
	if err != nil {
		panic(err)
	}
	cell := make([]byte, 0, 2*sq3.MaxVarintLen+len(payload)+4)
	cell = sq3.PutVarint(cell, int64(len(payload)))
	cell = sq3.PutVarint(cell, row.ID)
	return b.appendPayload(cell, payload, false)
}

func (b *Builder) indexCell(record sq3.Record, childPage int64, interior bool) []byte {
	payload, err := sq3.EncodeRecord(record)
	if err != nil {
		panic(err)
	}
	var cell []byte
	if interior {
		cell = make([]byte, 4, 4+sq3.MaxVarintLen+len(payload)+4)
		byteOrder.PutUint32(cell, uint32(childPage))
	} else {
		cell = make([]byte, 0, sq3.MaxVarintLen+len(payload)+4)
	}
	cell = sq3.PutVarint(cell, int64(len(payload)))
	return b.appendPayload(cell, payload, true)
}

// appendPayload embeds as much payload as the format allows and moves the
// rest onto an overflow chain.
func (b *Builder) appendPayload(cell, payload []byte, indexPage bool) []byte {
	local := btree.LocalPayload(int64(len(payload)), b.usableSize(), indexPage)
	cell = append(cell, payload[:local]...)
	if local < len(payload) {
		first := b.addOverflowChain(payload[local:])
		var ptr [4]byte
		byteOrder.PutUint32(ptr[:], uint32(first))
		cell = append(cell, ptr[:]...)
	}
	return cell
}

// addOverflowChain stores spilled payload across linked overflow pages and
// returns the first page number.
func (b *Builder) addOverflowChain(spilled []byte) int64 {
	capacity := b.usableSize() - 4
	var pageNos []int64
	for n := 0; n < (len(spilled)+capacity-1)/capacity; n++ {
		pageNos = append(pageNos, b.allocate())
	}
	for i, pageNo := range pageNos {
		data := make([]byte, b.pageSize)
		if i+1 < len(pageNos) {
			byteOrder.PutUint32(data, uint32(pageNos[i+1]))
		}
		chunk := spilled[i*capacity:]
		if len(chunk) > capacity {
			chunk = chunk[:capacity]
		}
		copy(data[4:], chunk)
		b.setPage(pageNo, data)
	}
	return pageNos[0]
}

// buildPage lays out a b-tree page: header, cell pointer array, then cells
// allocated from the tail of the page.
func (b *Builder) buildPage(pageNo int64, pageType byte, cells [][]byte, rightMost int64) []byte {
	data := make([]byte, b.pageSize)
	off := 0
	if pageNo == 1 {
		off = headerSize
	}
	hdrSize := 8
	interior := pageType == 0x05 || pageType == 0x02
	if interior {
		hdrSize = 12
	}
	ptrStart := off + hdrSize
	content := b.pageSize
	ptrs := make([]int, len(cells))
	for i := len(cells) - 1; i >= 0; i-- {
		content -= len(cells[i])
		if content < ptrStart+2*len(cells) {
			panic(fmt.Sprintf("page %d: cells do not fit", pageNo))
		}
		copy(data[content:], cells[i])
		ptrs[i] = content
	}
	data[off] = pageType
	byteOrder.PutUint16(data[off+3:], uint16(len(cells)))
	byteOrder.PutUint16(data[off+5:], uint16(content))
	if interior {
		byteOrder.PutUint32(data[off+8:], uint32(rightMost))
	}
	for i, p := range ptrs {
		byteOrder.PutUint16(data[ptrStart+2*i:], uint16(p))
	}
	return data
}

// Bytes assembles the final image: it writes the schema table to page 1,
// prefixes the file header, and concatenates all pages.
func (b *Builder) Bytes() []byte {
	b.buildSchemaPage()
	out := make([]byte, 0, len(b.pages)*b.pageSize)
	for pageNo, page := range b.pages {
		if page == nil {
			panic(fmt.Sprintf("page %d was allocated but never written", pageNo+1))
		}
		out = append(out, page...)
	}
	b.writeHeader(out[:headerSize])
	return out
}

func (b *Builder) buildSchemaPage() {
	if b.schemaRows != nil {
		cells := make([][]byte, len(b.schemaRows))
		for i, row := range b.schemaRows {
			cells[i] = b.tableLeafCell(row)
		}
		b.setPage(1, b.buildPage(1, 0x0d, cells, 0))
		return
	}
	cells := make([][]byte, len(b.schema))
	for i, entry := range b.schema {
		var sql sq3.Value
		if entry.SQL != "" {
			sql = entry.SQL
		}
		record := sq3.Record{
			entry.Type, entry.Name, entry.TableName, entry.RootPage, sql,
		}
		cells[i] = b.tableLeafCell(sq3.Row{ID: int64(i + 1), Values: record})
	}
	b.setPage(1, b.buildPage(1, 0x0d, cells, 0))
}

func (b *Builder) writeHeader(h []byte) {
	copy(h, "SQLite format 3\x00")
	rawPageSize := b.pageSize
	if rawPageSize == 1<<16 {
		rawPageSize = 1
	}
	byteOrder.PutUint16(h[16:], uint16(rawPageSize))
	h[18] = 1 // write version: legacy
	h[19] = 1 // read version: legacy
	h[21] = 64
	h[22] = 32
	h[23] = 32
	byteOrder.PutUint32(h[24:], 1) // change counter
	byteOrder.PutUint32(h[28:], uint32(len(b.pages)))
	byteOrder.PutUint32(h[40:], 1) // schema cookie
	byteOrder.PutUint32(h[44:], 4) // schema format
	byteOrder.PutUint32(h[56:], 1) // UTF-8
	byteOrder.PutUint32(h[92:], 1) // version valid for
	byteOrder.PutUint32(h[96:], 3045000)
}
