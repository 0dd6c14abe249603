// Command sq3dump inspects SQLite database files: file header fields, the
// schema catalog, table contents, and single-row fetches by rowid.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/btree"
	"github.com/robot-dreams/sq3/rows"
	"github.com/robot-dreams/sq3/table"
)

var CLI struct {
	Mmap bool `help:"Map the file into memory instead of using file reads."`

	Header HeaderCmd `cmd:"" help:"Print database file header fields."`
	Tables TablesCmd `cmd:"" help:"List schema objects."`
	Scan   ScanCmd   `cmd:"" help:"Print every row of a table."`
	Get    GetCmd    `cmd:"" help:"Fetch one row by rowid."`
	Index  IndexCmd  `cmd:"" help:"Print every entry of an index."`
}

type HeaderCmd struct {
	Path string `arg:"" help:"Database file." type:"existingfile"`
}

func (cmd *HeaderCmd) Run() error {
	db, err := openDB(cmd.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	h := db.File().Header()
	fmt.Printf("page size:       %d\n", h.PageSize)
	fmt.Printf("usable size:     %d\n", h.UsableSize())
	fmt.Printf("reserved space:  %d\n", h.ReservedSpace)
	fmt.Printf("page count:      %d\n", db.File().NumPages())
	fmt.Printf("change counter:  %d\n", h.ChangeCounter)
	fmt.Printf("freelist pages:  %d\n", h.FreelistCount)
	fmt.Printf("schema cookie:   %d\n", h.SchemaCookie)
	fmt.Printf("schema format:   %d\n", h.SchemaFormat)
	fmt.Printf("text encoding:   %d\n", h.TextEncoding)
	return nil
}

type TablesCmd struct {
	Path string `arg:"" help:"Database file." type:"existingfile"`
}

func (cmd *TablesCmd) Run() error {
	db, err := openDB(cmd.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, entry := range db.Catalog() {
		fmt.Printf("%-8s %-24s root=%-4d %s\n",
			entry.Type, entry.Name, entry.RootPage, entry.SQL)
	}
	return nil
}

type ScanCmd struct {
	Path    string `arg:"" help:"Database file." type:"existingfile"`
	Table   string `arg:"" help:"Table name."`
	Limit   int    `help:"Stop after this many rows." default:"0"`
	Columns []int  `help:"Print only these column positions."`
}

func (cmd *ScanCmd) Run() error {
	db, err := openDB(cmd.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	iter, err := db.Scan(cmd.Table)
	if err != nil {
		return err
	}
	defer iter.Close()

	out := sq3.Iterator(iter)
	if len(cmd.Columns) > 0 {
		out = rows.NewProjection(out, cmd.Columns)
	}
	if cmd.Limit > 0 {
		out = rows.NewLimit(out, cmd.Limit)
	}
	return printRows(out)
}

type GetCmd struct {
	Path  string `arg:"" help:"Database file." type:"existingfile"`
	Table string `arg:"" help:"Table name."`
	RowID int64  `arg:"" help:"Rowid to fetch."`
}

func (cmd *GetCmd) Run() error {
	db, err := openDB(cmd.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	row, found, err := db.Get(cmd.Table, cmd.RowID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no row with rowid %d", cmd.RowID)
	}
	fmt.Println(formatRow(row))
	return nil
}

type IndexCmd struct {
	Path  string `arg:"" help:"Database file." type:"existingfile"`
	Index string `arg:"" help:"Index name."`
}

func (cmd *IndexCmd) Run() error {
	db, err := openDB(cmd.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	iter, err := db.ScanIndex(cmd.Index)
	if err != nil {
		return err
	}
	defer iter.Close()

	return printRecords(iter)
}

func openDB(path string) (*table.DB, error) {
	if CLI.Mmap {
		src, err := openMmap(path)
		if err != nil {
			return nil, err
		}
		return table.OpenSource(src)
	}
	return table.Open(path)
}

func printRows(iter sq3.Iterator) error {
	for {
		row, err := iter.Next()
		if err != nil {
			return ignoreEOF(err)
		}
		fmt.Println(formatRow(row))
	}
}

func printRecords(iter *btree.IndexCursor) error {
	for {
		record, err := iter.Next()
		if err != nil {
			return ignoreEOF(err)
		}
		fmt.Println(formatRecord(record))
	}
}

func ignoreEOF(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

func formatRow(row sq3.Row) string {
	return fmt.Sprintf("%d|%s", row.ID, formatRecord(row.Values))
}

func formatRecord(record sq3.Record) string {
	parts := make([]string, len(record))
	for i, v := range record {
		switch v := v.(type) {
		case nil:
			parts[i] = "NULL"
		case []byte:
			parts[i] = fmt.Sprintf("x'%x'", v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, "|")
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sq3dump"),
		kong.Description("Read-only SQLite file inspector"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
