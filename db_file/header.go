package db_file

import (
	"encoding/binary"

	"github.com/dropbox/godropbox/errors"
	"github.com/robot-dreams/sq3"
)

// HeaderSize is the length of the database file header at the start of
// page 1.
const HeaderSize = 100

const magic = "SQLite format 3\x00"

const (
	MinPageSize = 512
	MaxPageSize = 65536
)

type TextEncoding uint32

const (
	EncodingUTF8    TextEncoding = 1
	EncodingUTF16LE TextEncoding = 2
	EncodingUTF16BE TextEncoding = 3
)

// Header is the decoded 100-byte database file header.  It is parsed once
// at open and immutable afterwards; a read-only session never sees it
// change.
type Header struct {
	// PageSize is in bytes.  The on-disk field stores 1 to mean 65536.
	PageSize int

	WriteVersion byte // 1 legacy, 2 WAL
	ReadVersion  byte

	// ReservedSpace is unusable bytes at the end of every page.
	ReservedSpace int

	MaxPayloadFrac  byte
	MinPayloadFrac  byte
	LeafPayloadFrac byte

	ChangeCounter uint32

	// PageCount is the database size in pages.  Zero in files written
	// before the field existed; see DBFile for how the page count is then
	// derived from the file length.
	PageCount uint32

	FreelistTrunk uint32
	FreelistCount uint32

	SchemaCookie uint32
	SchemaFormat uint32

	TextEncoding TextEncoding

	// VersionValidFor is the change counter value at which PageCount was
	// last known to be accurate.
	VersionValidFor uint32
}

// ParseHeader decodes the first 100 bytes of a database file.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize || string(b[:16]) != magic {
		return nil, sq3.ErrNotASqliteFile
	}
	rawPageSize := binary.BigEndian.Uint16(b[16:18])
	pageSize := int(rawPageSize)
	if rawPageSize == 1 {
		pageSize = MaxPageSize
	}
	if pageSize < MinPageSize || pageSize&(pageSize-1) != 0 {
		return nil, errors.Wrapf(
			sq3.ErrUnsupportedPageSize, "page size %d", rawPageSize)
	}
	h := &Header{
		PageSize:        pageSize,
		WriteVersion:    b[18],
		ReadVersion:     b[19],
		ReservedSpace:   int(b[20]),
		MaxPayloadFrac:  b[21],
		MinPayloadFrac:  b[22],
		LeafPayloadFrac: b[23],
		ChangeCounter:   binary.BigEndian.Uint32(b[24:28]),
		PageCount:       binary.BigEndian.Uint32(b[28:32]),
		FreelistTrunk:   binary.BigEndian.Uint32(b[32:36]),
		FreelistCount:   binary.BigEndian.Uint32(b[36:40]),
		SchemaCookie:    binary.BigEndian.Uint32(b[40:44]),
		SchemaFormat:    binary.BigEndian.Uint32(b[44:48]),
		TextEncoding:    TextEncoding(binary.BigEndian.Uint32(b[56:60])),
		VersionValidFor: binary.BigEndian.Uint32(b[92:96]),
	}
	if h.ReservedSpace >= h.PageSize {
		return nil, errors.Wrapf(
			sq3.ErrCorruptDatabase,
			"reserved space %d exceeds page size %d", h.ReservedSpace, h.PageSize)
	}
	// A zero encoding only appears in empty databases that have never had a
	// table created; treat it as UTF-8.  Records are decoded as UTF-8, so
	// UTF-16 databases are rejected outright rather than silently mangled.
	if h.TextEncoding == 0 {
		h.TextEncoding = EncodingUTF8
	}
	if h.TextEncoding != EncodingUTF8 {
		return nil, errors.Wrapf(
			sq3.ErrUnsupportedEncoding, "text encoding %d", h.TextEncoding)
	}
	return h, nil
}

// UsableSize is the per-page byte count available to the b-tree layer.
func (h *Header) UsableSize() int {
	return h.PageSize - h.ReservedSpace
}
