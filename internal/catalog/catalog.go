package catalog

import (
	"fmt"
	"strings"

	"tegdb/internal/dberr"
	"tegdb/internal/kv"
	"tegdb/internal/types"
)

const (
	schemaKeyPrefix = "S:"
	indexKeyPrefix  = "I:"
)

func schemaKey(table string) []byte         { return []byte(schemaKeyPrefix + table) }
func indexDescriptorKey(name string) []byte { return []byte(indexKeyPrefix + name) }

// prefixEnd returns the exclusive upper bound of an ASCII key prefix (the
// prefix with its last byte incremented), mirroring
// types.TableEndMarker for the "S:" and "I:" namespaces.
func prefixEnd(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}

// Catalog is the in-memory cache of every table schema and secondary-index
// descriptor, backed by the engine's "S:" and "I:" key-space prefixes. It is
// rebuilt by Load at database open and kept in sync by
// CreateTable/DropTable/CreateIndex/DropIndex, each of which persists
// through the supplied kv.Store: a bare engine at open time, or a live
// transaction once one is in flight.
type Catalog struct {
	schemas map[string]*Schema
	indexes map[string]*IndexDescriptor
	byTable map[string][]*IndexDescriptor
}

// Load scans store's "S:" and "I:" key ranges and builds a Catalog from
// every schema blob and index descriptor found. Index-entry keys
// ("I:<table>:<index>:<col>:<pk>", 5 colon-separated fields) are skipped
// here; they are read lazily through IndexEntryPrefix by the executor, not
// cached in the catalog.
func Load(store kv.Store) (*Catalog, error) {
	c := &Catalog{
		schemas: make(map[string]*Schema),
		indexes: make(map[string]*IndexDescriptor),
		byTable: make(map[string][]*IndexDescriptor),
	}

	it := store.Scan([]byte(schemaKeyPrefix), prefixEnd(schemaKeyPrefix))
	for it.Next() {
		table := strings.TrimPrefix(string(it.Key()), schemaKeyPrefix)
		schema, err := DecodeSchemaBlob(table, it.Value())
		if err != nil {
			return nil, err
		}
		c.schemas[table] = schema
	}

	it = store.Scan([]byte(indexKeyPrefix), prefixEnd(indexKeyPrefix))
	for it.Next() {
		fields := strings.Split(string(it.Key()), ":")
		if len(fields) != 2 {
			continue
		}
		name := fields[1]
		desc, err := DecodeIndexDescriptor(name, it.Value())
		if err != nil {
			return nil, err
		}
		c.indexes[name] = desc
		c.byTable[desc.Table] = append(c.byTable[desc.Table], desc)
	}

	return c, nil
}

// TableSchema returns the cached schema for table, or (nil, false) if no
// such table exists.
func (c *Catalog) TableSchema(table string) (*Schema, bool) {
	s, ok := c.schemas[table]
	return s, ok
}

// TableNames returns every known table name, in no particular order.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	return names
}

// IndexesForTable returns every secondary-index descriptor registered
// against table.
func (c *Catalog) IndexesForTable(table string) []*IndexDescriptor {
	return c.byTable[table]
}

// IndexByName returns the descriptor for the named index, or (nil, false)
// if absent.
func (c *Catalog) IndexByName(name string) (*IndexDescriptor, bool) {
	d, ok := c.indexes[name]
	return d, ok
}

// CreateTable persists schema's blob under its "S:" key and registers it in
// the cache. Fails with dberr.ErrSchemaError if the table already exists.
func (c *Catalog) CreateTable(store kv.Store, schema *Schema) error {
	if _, exists := c.schemas[schema.Table]; exists {
		return fmt.Errorf("%w: table %q already exists", dberr.ErrSchemaError, schema.Table)
	}
	if err := store.Set(schemaKey(schema.Table), EncodeSchemaBlob(schema)); err != nil {
		return err
	}
	c.schemas[schema.Table] = schema
	return nil
}

// DropTable removes table's schema, every index registered against it (and
// their index entries), and every row of table itself. Fails with
// dberr.ErrSchemaError if the table does not exist.
func (c *Catalog) DropTable(store kv.Store, table string) error {
	if _, exists := c.schemas[table]; !exists {
		return fmt.Errorf("%w: table %q does not exist", dberr.ErrSchemaError, table)
	}

	for _, desc := range append([]*IndexDescriptor(nil), c.byTable[table]...) {
		if err := c.DropIndex(store, desc.Name); err != nil {
			return err
		}
	}

	if err := deleteRange(store, types.TablePrefix(table), types.TableEndMarker(table)); err != nil {
		return err
	}

	if err := store.Delete(schemaKey(table)); err != nil {
		return err
	}
	delete(c.schemas, table)
	delete(c.byTable, table)
	return nil
}

// CreateIndex persists desc's blob under its "I:" key and registers it in
// the cache. It does not backfill index entries for table's existing rows —
// the executor does that, since building entries requires decoding rows via
// the row codec, which the catalog package must not import (rowcodec
// already imports catalog for Schema). Fails with dberr.ErrSchemaError if
// the index name is already taken.
func (c *Catalog) CreateIndex(store kv.Store, desc *IndexDescriptor) error {
	if _, exists := c.indexes[desc.Name]; exists {
		return fmt.Errorf("%w: index %q already exists", dberr.ErrSchemaError, desc.Name)
	}
	if err := store.Set(indexDescriptorKey(desc.Name), EncodeIndexDescriptor(desc)); err != nil {
		return err
	}
	c.indexes[desc.Name] = desc
	c.byTable[desc.Table] = append(c.byTable[desc.Table], desc)
	return nil
}

// DropIndex removes the named index's descriptor and every entry it owns.
// Fails with dberr.ErrSchemaError if no such index exists.
func (c *Catalog) DropIndex(store kv.Store, name string) error {
	desc, exists := c.indexes[name]
	if !exists {
		return fmt.Errorf("%w: index %q does not exist", dberr.ErrSchemaError, name)
	}

	prefix := IndexEntryPrefix(desc.Table, desc.Name)
	end := make([]byte, len(prefix))
	copy(end, prefix)
	end[len(end)-1]++
	if err := deleteRange(store, prefix, end); err != nil {
		return err
	}

	if err := store.Delete(indexDescriptorKey(name)); err != nil {
		return err
	}

	delete(c.indexes, name)
	peers := c.byTable[desc.Table]
	for i, d := range peers {
		if d.Name == name {
			c.byTable[desc.Table] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	return nil
}

// deleteRange deletes every key in the half-open range [start, end) of
// store. Keys are collected before deleting since mutating a store while
// its own Scan iterator is live is unsupported.
func deleteRange(store kv.Store, start, end []byte) error {
	var keys [][]byte
	it := store.Scan(start, end)
	for it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	for _, k := range keys {
		if err := store.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
