package executor

import (
	"fmt"

	"tegdb/internal/catalog"
	"tegdb/internal/dberr"
	"tegdb/internal/planner"
	"tegdb/internal/rowcodec"
	"tegdb/internal/types"
)

func (ex *Executor) execCreateTable(p planner.CreateTable) (*Result, error) {
	if err := ex.cat.CreateTable(ex.txn, p.Schema); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (ex *Executor) execDropTable(p planner.DropTable) (*Result, error) {
	if err := ex.cat.DropTable(ex.txn, p.Table); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// execCreateIndex installs the index descriptor and then backfills an
// entry for every row already in the table: catalog.CreateIndex persists
// only the descriptor (it cannot decode existing rows without importing
// rowcodec, which already imports catalog), so the executor performs the
// backfill here where both packages are available.
func (ex *Executor) execCreateIndex(p planner.CreateIndex) (*Result, error) {
	schema, ok := ex.cat.TableSchema(p.Desc.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, p.Desc.Table)
	}

	if err := ex.cat.CreateIndex(ex.txn, p.Desc); err != nil {
		return nil, err
	}

	lo := types.TablePrefix(p.Desc.Table)
	hi := types.TableEndMarker(p.Desc.Table)
	it := ex.txn.Scan(lo, hi)
	for it.Next() {
		buf := it.Value()
		colValue, err := rowcodec.DecodeColumn(schema, buf, p.Desc.Column)
		if err != nil {
			return nil, err
		}
		pkValue, err := rowcodec.DecodeColumn(schema, buf, schema.PrimaryKeyColumn().Name)
		if err != nil {
			return nil, err
		}
		if p.Desc.Unique {
			if err := ex.checkUniqueIndexes(p.Desc.Table, map[string]types.Value{p.Desc.Column: colValue}, pkValue); err != nil {
				return nil, err
			}
		}
		key := catalog.EncodeIndexEntryKey(p.Desc.Table, p.Desc.Name, colValue, pkValue)
		if err := ex.txn.Set(key, []byte{1}); err != nil {
			return nil, err
		}
	}
	return &Result{}, nil
}

func (ex *Executor) execDropIndex(p planner.DropIndex) (*Result, error) {
	if err := ex.cat.DropIndex(ex.txn, p.Index); err != nil {
		return nil, err
	}
	return &Result{}, nil
}
