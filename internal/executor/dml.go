package executor

import (
	"fmt"
	"strings"

	"tegdb/internal/ast"
	"tegdb/internal/catalog"
	"tegdb/internal/dberr"
	"tegdb/internal/evalexpr"
	"tegdb/internal/planner"
	"tegdb/internal/rowcodec"
	"tegdb/internal/types"
)

// validateRow checks every NOT NULL constraint in schema against row.
func validateRow(schema *catalog.Schema, row map[string]types.Value) error {
	for _, col := range schema.Columns {
		if col.HasConstraint(catalog.ConstraintNotNull) {
			if v, ok := row[col.Name]; !ok || v.IsNull() {
				return fmt.Errorf("%w: column %q must not be NULL", dberr.ErrConstraintViolation, col.Name)
			}
		}
	}
	return nil
}

// indexValuePrefix is the half-open range covering every entry of index on
// table whose indexed column holds exactly value.
func indexValuePrefix(table, index string, value types.Value) []byte {
	return []byte(strings.Join([]string{"I", table, index, value.String(), ""}, ":"))
}

func indexValueEnd(table, index string, value types.Value) []byte {
	prefix := indexValuePrefix(table, index, value)
	end := make([]byte, len(prefix))
	copy(end, prefix)
	end[len(end)-1]++
	return end
}

// checkUniqueIndexes reports a constraint violation if inserting row (whose
// primary key is pkValue) would collide with an existing entry on any
// UNIQUE index of table, ignoring any existing entry that already belongs
// to pkValue itself (so UPDATE re-checking a row against its own prior
// entry does not spuriously fail).
func (ex *Executor) checkUniqueIndexes(table string, row map[string]types.Value, pkValue types.Value) error {
	for _, desc := range ex.cat.IndexesForTable(table) {
		if !desc.Unique {
			continue
		}
		colValue, ok := row[desc.Column]
		if !ok {
			continue
		}
		it := ex.txn.Scan(indexValuePrefix(table, desc.Name, colValue), indexValueEnd(table, desc.Name, colValue))
		for it.Next() {
			_, _, _, pk, err := catalog.DecodeIndexEntryKey(it.Key())
			if err != nil {
				return err
			}
			if pk != pkValue.String() {
				return fmt.Errorf("%w: value %q violates unique index %q", dberr.ErrConstraintViolation, colValue.String(), desc.Name)
			}
		}
	}
	return nil
}

// writeIndexEntries installs one index entry per secondary index on table
// for row.
func (ex *Executor) writeIndexEntries(table string, row map[string]types.Value, pkValue types.Value) error {
	for _, desc := range ex.cat.IndexesForTable(table) {
		colValue, ok := row[desc.Column]
		if !ok {
			continue
		}
		key := catalog.EncodeIndexEntryKey(table, desc.Name, colValue, pkValue)
		if err := ex.txn.Set(key, []byte{1}); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndexEntries removes row's entry from every secondary index on
// table.
func (ex *Executor) deleteIndexEntries(table string, row map[string]types.Value, pkValue types.Value) error {
	for _, desc := range ex.cat.IndexesForTable(table) {
		colValue, ok := row[desc.Column]
		if !ok {
			continue
		}
		key := catalog.EncodeIndexEntryKey(table, desc.Name, colValue, pkValue)
		if err := ex.txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) execInsert(p planner.Insert) (*Result, error) {
	schema, ok := ex.cat.TableSchema(p.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, p.Table)
	}

	affected := 0
	for _, row := range p.Rows {
		if err := validateRow(schema, row); err != nil {
			return nil, err
		}
		pkValue := row[schema.PrimaryKeyColumn().Name]
		key, err := types.EncodePK(p.Table, pkValue)
		if err != nil {
			return nil, err
		}
		if _, present := ex.txn.Get(key); present {
			return nil, fmt.Errorf("%w: primary key %s already exists in table %q", dberr.ErrConstraintViolation, pkValue.String(), p.Table)
		}
		if err := ex.checkUniqueIndexes(p.Table, row, pkValue); err != nil {
			return nil, err
		}
		buf, err := rowcodec.Encode(schema, row)
		if err != nil {
			return nil, err
		}
		if err := ex.txn.Set(key, buf); err != nil {
			return nil, err
		}
		if err := ex.writeIndexEntries(p.Table, row, pkValue); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{Affected: affected}, nil
}

// scanKeys collects the primary-key storage keys of every row that Scan
// plans to visit, buffering them up front so the subsequent mutation
// (UPDATE/DELETE) does not mutate the engine map while an iterator derived
// from it is still live.
func (ex *Executor) scanKeys(scan planner.Plan) ([][]byte, error) {
	var lo, hi []byte
	var table string
	switch p := scan.(type) {
	case planner.PrimaryKeyLookup:
		table = p.Table
		key, err := types.EncodePK(p.Table, p.PKValue)
		if err != nil {
			return nil, err
		}
		schema, ok := ex.cat.TableSchema(table)
		if !ok {
			return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, table)
		}
		buf, present := ex.txn.Get(key)
		if !present {
			return nil, nil
		}
		if p.AdditionalFilter != nil {
			ok, err := rowcodec.MatchesCondition(schema, buf, p.AdditionalFilter)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
		}
		return [][]byte{key}, nil
	case planner.TableRangeScan:
		table = p.Table
		var err error
		lo, hi, err = rangeKeys(table, p.Start, p.End)
		if err != nil {
			return nil, err
		}
		return ex.filteredKeys(table, lo, hi, p.AdditionalFilter)
	case planner.TableScan:
		table = p.Table
		lo = types.TablePrefix(table)
		hi = types.TableEndMarker(table)
		return ex.filteredKeys(table, lo, hi, p.Filter)
	default:
		return nil, fmt.Errorf("%w: not a scan plan %T", dberr.ErrOther, scan)
	}
}

func (ex *Executor) filteredKeys(table string, lo, hi []byte, filter ast.Condition) ([][]byte, error) {
	schema, ok := ex.cat.TableSchema(table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, table)
	}
	var keys [][]byte
	it := ex.txn.Scan(lo, hi)
	for it.Next() {
		buf := it.Value()
		if filter != nil {
			match, err := rowcodec.MatchesCondition(schema, buf, filter)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	return keys, nil
}

func (ex *Executor) execUpdate(p planner.Update) (*Result, error) {
	schema, ok := ex.cat.TableSchema(p.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, p.Table)
	}
	keys, err := ex.scanKeys(p.Scan)
	if err != nil {
		return nil, err
	}

	for _, a := range p.Assignments {
		if _, idx := schema.ColumnByName(a.Column); idx < 0 {
			return nil, fmt.Errorf("%w: unknown column %q on table %q", dberr.ErrSchemaError, a.Column, p.Table)
		}
	}

	affected := 0
	pkName := schema.PrimaryKeyColumn().Name
	for _, key := range keys {
		buf, present := ex.txn.Get(key)
		if !present {
			continue
		}
		oldRow, err := rowcodec.DecodeFull(schema, buf)
		if err != nil {
			return nil, err
		}
		newRow := make(map[string]types.Value, len(oldRow))
		for k, v := range oldRow {
			newRow[k] = v
		}
		for _, a := range p.Assignments {
			v, err := evalexpr.Eval(a.Value, oldRow)
			if err != nil {
				return nil, err
			}
			newRow[a.Column] = v
		}
		if err := validateRow(schema, newRow); err != nil {
			return nil, err
		}

		oldPK := oldRow[pkName]
		newPK := newRow[pkName]
		newBuf, err := rowcodec.Encode(schema, newRow)
		if err != nil {
			return nil, err
		}

		if !oldPK.Equal(newPK) {
			newKey, err := types.EncodePK(p.Table, newPK)
			if err != nil {
				return nil, err
			}
			if _, present := ex.txn.Get(newKey); present {
				return nil, fmt.Errorf("%w: primary key %s already exists in table %q", dberr.ErrConstraintViolation, newPK.String(), p.Table)
			}
			if err := ex.checkUniqueIndexes(p.Table, newRow, newPK); err != nil {
				return nil, err
			}
			if err := ex.deleteIndexEntries(p.Table, oldRow, oldPK); err != nil {
				return nil, err
			}
			if err := ex.txn.Delete(key); err != nil {
				return nil, err
			}
			if err := ex.txn.Set(newKey, newBuf); err != nil {
				return nil, err
			}
			if err := ex.writeIndexEntries(p.Table, newRow, newPK); err != nil {
				return nil, err
			}
		} else {
			if err := ex.checkUniqueIndexes(p.Table, newRow, oldPK); err != nil {
				return nil, err
			}
			if err := ex.deleteIndexEntries(p.Table, oldRow, oldPK); err != nil {
				return nil, err
			}
			if err := ex.txn.Set(key, newBuf); err != nil {
				return nil, err
			}
			if err := ex.writeIndexEntries(p.Table, newRow, oldPK); err != nil {
				return nil, err
			}
		}
		affected++
	}
	return &Result{Affected: affected}, nil
}

func (ex *Executor) execDelete(p planner.Delete) (*Result, error) {
	schema, ok := ex.cat.TableSchema(p.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, p.Table)
	}
	keys, err := ex.scanKeys(p.Scan)
	if err != nil {
		return nil, err
	}
	pkName := schema.PrimaryKeyColumn().Name

	affected := 0
	for _, key := range keys {
		buf, present := ex.txn.Get(key)
		if !present {
			continue
		}
		row, err := rowcodec.DecodeFull(schema, buf)
		if err != nil {
			return nil, err
		}
		if err := ex.deleteIndexEntries(p.Table, row, row[pkName]); err != nil {
			return nil, err
		}
		if err := ex.txn.Delete(key); err != nil {
			return nil, err
		}
		affected++
	}
	return &Result{Affected: affected}, nil
}
