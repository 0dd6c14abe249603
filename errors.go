package sq3

import (
	"github.com/dropbox/godropbox/errors"
)

// Decoding errors.  Every decoding function either returns one of these
// directly or wraps it with added context (page number, cell index) via
// errors.Wrapf; no error is swallowed and no partial row is ever returned
// alongside a nil error.
var (
	// ErrNotASqliteFile means the 16-byte magic string was missing.
	ErrNotASqliteFile = errors.New("not a SQLite database file")

	// ErrUnsupportedPageSize means the declared page size was not a power of
	// two in [512, 65536].
	ErrUnsupportedPageSize = errors.New("unsupported page size")

	// ErrUnsupportedEncoding means the header declared a text encoding other
	// than UTF-8.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")

	// ErrPageOutOfBounds means a page number was 0 or beyond the end of the
	// database.
	ErrPageOutOfBounds = errors.New("page number out of bounds")

	// ErrUnknownPageType means a b-tree page's type byte was outside the
	// four valid markers (0x02, 0x05, 0x0a, 0x0d).
	ErrUnknownPageType = errors.New("unknown page type")

	// ErrTruncatedVarint means a buffer ended before a varint terminated.
	ErrTruncatedVarint = errors.New("truncated varint")

	// ErrInvalidSerialType means a record header contained serial type 10 or
	// 11 (reserved) or a negative value.
	ErrInvalidSerialType = errors.New("invalid serial type")

	// ErrRecordLengthMismatch means a record's header plus body did not
	// consume its declared payload length exactly.
	ErrRecordLengthMismatch = errors.New("record length mismatch")

	// ErrOverflowChainTruncated means an overflow chain ended before the
	// declared payload length was collected.
	ErrOverflowChainTruncated = errors.New("overflow chain truncated")

	// ErrOverflowChainTooLong means an overflow chain claimed more pages
	// than the declared payload length can account for.
	ErrOverflowChainTooLong = errors.New("overflow chain too long")

	// ErrCorruptDatabase covers structural invariant violations not named
	// above, e.g. non-increasing rowids within a leaf.
	ErrCorruptDatabase = errors.New("corrupt database")

	// ErrSchemaCorrupt means a schema table row had fewer than 5 columns or
	// malformed column values.
	ErrSchemaCorrupt = errors.New("corrupt schema table")

	ErrTableNotFound = errors.New("table not found")
)

// IsError reports whether err is target or wraps it (via errors.Wrap /
// errors.Wrapf).
func IsError(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		dbx, ok := err.(errors.DropboxError)
		if !ok {
			return false
		}
		err = dbx.Unwrap()
	}
	return false
}
