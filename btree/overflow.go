package btree

import (
	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/db_file"
)

// collectOverflow walks an overflow chain and appends the spilled payload
// bytes to dst.  Each overflow page is a 4-byte next-page pointer (zero on
// the last page) followed by payload.  The chain length is bounded by the
// number of pages the remaining payload could possibly need, so a pointer
// cycle fails instead of looping.
func collectOverflow(
	db *db_file.DBFile,
	dst []byte,
	firstPage int64,
	remaining int64,
) ([]byte, error) {
	capacity := int64(db.Header().UsableSize() - 4)
	if capacity <= 0 {
		return nil, errors.Wrap(
			sq3.ErrCorruptDatabase, "reserved space leaves no room for overflow")
	}
	maxPages := remaining/capacity + 1

	pageNo := firstPage
	for pages := int64(0); remaining > 0; pages++ {
		if pageNo == 0 {
			return nil, errors.Wrapf(
				sq3.ErrOverflowChainTruncated,
				"overflow chain ended with %d bytes missing", remaining)
		}
		if pages >= maxPages {
			return nil, errors.Wrapf(
				sq3.ErrOverflowChainTooLong,
				"overflow chain exceeds %d pages", maxPages)
		}
		data, err := db.ReadPage(pageNo)
		if err != nil {
			return nil, errors.Wrapf(err, "overflow page %d", pageNo)
		}
		next := int64(byteOrder.Uint32(data))
		take := capacity
		if take > remaining {
			take = remaining
		}
		dst = append(dst, data[4:4+int(take)]...)
		remaining -= take
		pageNo = next
	}
	if pageNo != 0 {
		return nil, errors.Wrapf(
			sq3.ErrOverflowChainTooLong,
			"overflow chain continues past page %d after the payload is complete",
			pageNo)
	}
	return dst, nil
}

// cellPayload assembles a cell's full payload from its local prefix and
// overflow chain.  When nothing spilled the local slice is returned as is.
func cellPayload(
	db *db_file.DBFile,
	local []byte,
	payloadSize int64,
	overflowPage int64,
) ([]byte, error) {
	if int64(len(local)) == payloadSize {
		return local, nil
	}
	dst := make([]byte, 0, payloadSize)
	dst = append(dst, local...)
	return collectOverflow(db, dst, overflowPage, payloadSize-int64(len(local)))
}
