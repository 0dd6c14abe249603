// Package table exposes the top-level read API: open a database file, list
// its schema, and scan or probe its tables and indexes by name.
package table

import (
	"io"

	"github.com/dropbox/godropbox/errors"

	"github.com/robot-dreams/sq3"
	"github.com/robot-dreams/sq3/btree"
	"github.com/robot-dreams/sq3/db_file"
)

// schemaRootPage is where the schema table always lives.
const schemaRootPage = 1

// SchemaEntry is one row of the schema table: a table, index, view, or
// trigger definition.
type SchemaEntry struct {
	// Type is "table", "index", "view", or "trigger".
	Type string
	Name string
	// TableName is the table the object belongs to; for tables it repeats
	// Name.
	TableName string
	// RootPage is the object's b-tree root, or 0 for views and triggers.
	RootPage int64
	// SQL is the original CREATE statement, empty for auto-created
	// structures.
	SQL string
}

// loadCatalog walks the schema table on page 1.  Each row must carry the
// five schema columns with their expected types.
func loadCatalog(db *db_file.DBFile) ([]SchemaEntry, error) {
	iter, err := btree.Scan(db, schemaRootPage)
	if err != nil {
		return nil, errors.Wrap(err, "schema table")
	}
	defer func() { _ = iter.Close() }()

	var catalog []SchemaEntry
	for {
		row, err := iter.Next()
		if err == io.EOF {
			return catalog, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "schema table")
		}
		entry, err := schemaEntryFromRow(row)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, entry)
	}
}

func schemaEntryFromRow(row sq3.Row) (SchemaEntry, error) {
	if len(row.Values) < 5 {
		return SchemaEntry{}, errors.Wrapf(
			sq3.ErrSchemaCorrupt,
			"schema rowid %d: %d columns", row.ID, len(row.Values))
	}
	objType, ok1 := row.Values[0].(string)
	name, ok2 := row.Values[1].(string)
	tableName, ok3 := row.Values[2].(string)
	rootPage, ok4 := row.Values[3].(int64)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return SchemaEntry{}, errors.Wrapf(
			sq3.ErrSchemaCorrupt,
			"schema rowid %d: unexpected column types", row.ID)
	}
	entry := SchemaEntry{
		Type:      objType,
		Name:      name,
		TableName: tableName,
		RootPage:  rootPage,
	}
	// The sql column is NULL for auto-created indexes.
	switch v := row.Values[4].(type) {
	case nil:
	case string:
		entry.SQL = v
	default:
		return SchemaEntry{}, errors.Wrapf(
			sq3.ErrSchemaCorrupt,
			"schema rowid %d: sql column holds %T", row.ID, v)
	}
	return entry, nil
}

// findEntry returns the catalog entry with the given type and name.
func findEntry(catalog []SchemaEntry, objType, name string) (SchemaEntry, error) {
	for _, entry := range catalog {
		if entry.Type == objType && entry.Name == name {
			return entry, nil
		}
	}
	return SchemaEntry{}, errors.Wrapf(
		sq3.ErrTableNotFound, "no %s named %q", objType, name)
}
