package executor

import (
	"fmt"
	"sort"

	"tegdb/internal/ast"
	"tegdb/internal/catalog"
	"tegdb/internal/dberr"
	"tegdb/internal/evalexpr"
	"tegdb/internal/kv"
	"tegdb/internal/planner"
	"tegdb/internal/rowcodec"
	"tegdb/internal/types"
)

// rowIterator is the shared RowIterator implementation for every scan
// shape: it wraps a kv.Iterator over a row-key range, applies an optional
// filter, and projects each surviving row onto the requested columns.
type rowIterator struct {
	it      kv.Iterator
	schema  *catalog.Schema
	columns []ast.SelectItem
	filter  ast.Condition
	limit   int // <0 means unlimited
	yielded int

	row []types.Value
	err error
	// done short-circuits the iterator (the limit has been hit, or the
	// underlying range is exhausted).
	done bool
}

func (r *rowIterator) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	if r.limit >= 0 && r.yielded >= r.limit {
		r.done = true
		return false
	}
	for r.it.Next() {
		buf := r.it.Value()
		if r.filter != nil {
			ok, err := rowcodec.MatchesCondition(r.schema, buf, r.filter)
			if err != nil {
				r.err = err
				return false
			}
			if !ok {
				continue
			}
		}
		full, err := rowcodec.DecodeFull(r.schema, buf)
		if err != nil {
			r.err = err
			return false
		}
		r.row = projectRow(r.schema, full, r.columns)
		r.yielded++
		return true
	}
	r.done = true
	return false
}

func (r *rowIterator) Row() []types.Value { return r.row }
func (r *rowIterator) Err() error         { return r.err }

// singleRowIterator wraps at most one already-decoded row (the result of a
// PrimaryKeyLookup).
type singleRowIterator struct {
	row     []types.Value
	emitted bool
}

func (s *singleRowIterator) Next() bool {
	if s.emitted || s.row == nil {
		return false
	}
	s.emitted = true
	return true
}
func (s *singleRowIterator) Row() []types.Value { return s.row }
func (s *singleRowIterator) Err() error          { return nil }

// materializedIterator replays a pre-sorted, pre-limited slice of rows; it
// backs any scan whose plan carries a non-elided ORDER BY, since producing
// that order requires buffering every candidate row before yielding any of
// them.
type materializedIterator struct {
	rows []([]types.Value)
	pos  int
}

func (m *materializedIterator) Next() bool {
	m.pos++
	return m.pos < len(m.rows)
}
func (m *materializedIterator) Row() []types.Value { return m.rows[m.pos] }
func (m *materializedIterator) Err() error          { return nil }

// projectRow renders full (every column, by name) onto the requested
// SelectItems. A bare Column{"*"} expands to every schema column in
// declared order; any other projected expression that is not a bare
// Column is rendered as NULL, since expression projection (e.g. arithmetic
// in the select list) is not part of the executed query surface.
func projectRow(schema *catalog.Schema, full map[string]types.Value, columns []ast.SelectItem) []types.Value {
	if len(columns) == 1 {
		if col, ok := columns[0].Expr.(ast.Column); ok && col.Name == "*" {
			out := make([]types.Value, len(schema.Columns))
			for i, c := range schema.Columns {
				out[i] = full[c.Name]
			}
			return out
		}
	}
	out := make([]types.Value, len(columns))
	for i, item := range columns {
		if col, ok := item.Expr.(ast.Column); ok {
			out[i] = full[col.Name]
			continue
		}
		out[i] = types.Null()
	}
	return out
}

// resultColumnNames renders the header row for columns against schema,
// expanding a bare "*" to every schema column name.
func resultColumnNames(schema *catalog.Schema, columns []ast.SelectItem) []string {
	if len(columns) == 1 {
		if col, ok := columns[0].Expr.(ast.Column); ok && col.Name == "*" {
			names := make([]string, len(schema.Columns))
			for i, c := range schema.Columns {
				names[i] = c.Name
			}
			return names
		}
	}
	names := make([]string, len(columns))
	for i, item := range columns {
		if item.Alias != "" {
			names[i] = item.Alias
			continue
		}
		if col, ok := item.Expr.(ast.Column); ok {
			names[i] = col.Name
			continue
		}
		names[i] = fmt.Sprintf("col%d", i+1)
	}
	return names
}

func (ex *Executor) execSelect(plan planner.Plan) (*Result, error) {
	switch p := plan.(type) {
	case planner.PrimaryKeyLookup:
		return ex.execPrimaryKeyLookup(p)
	case planner.TableRangeScan:
		return ex.execTableRangeScan(p)
	case planner.TableScan:
		return ex.execTableScan(p)
	default:
		return nil, fmt.Errorf("%w: not a select plan %T", dberr.ErrOther, plan)
	}
}

func (ex *Executor) execPrimaryKeyLookup(p planner.PrimaryKeyLookup) (*Result, error) {
	schema, ok := ex.cat.TableSchema(p.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, p.Table)
	}
	key, err := types.EncodePK(p.Table, p.PKValue)
	if err != nil {
		return nil, err
	}
	buf, present := ex.txn.Get(key)
	var row []types.Value
	if present {
		if p.AdditionalFilter != nil {
			ok, err := rowcodec.MatchesCondition(schema, buf, p.AdditionalFilter)
			if err != nil {
				return nil, err
			}
			if !ok {
				present = false
			}
		}
	}
	if present {
		full, err := rowcodec.DecodeFull(schema, buf)
		if err != nil {
			return nil, err
		}
		row = projectRow(schema, full, p.SelectedColumns)
	}
	return &Result{
		Columns: resultColumnNames(schema, p.SelectedColumns),
		Rows:    &singleRowIterator{row: row},
	}, nil
}

// rangeKeys builds the [start, end) byte range for a TableRangeScan's
// Start/End bounds, converting an exclusive bound into the next
// representable key via types.BumpPK.
func rangeKeys(table string, start, end *planner.Bound) ([]byte, []byte, error) {
	lo := types.TablePrefix(table)
	if start != nil {
		v := start.Value
		if !start.Inclusive {
			bumped, err := types.BumpPK(v)
			if err != nil {
				return nil, nil, err
			}
			v = bumped
		}
		k, err := types.EncodePK(table, v)
		if err != nil {
			return nil, nil, err
		}
		lo = k
	}

	hi := types.TableEndMarker(table)
	if end != nil {
		v := end.Value
		k, err := types.EncodePK(table, v)
		if err != nil {
			return nil, nil, err
		}
		if end.Inclusive {
			bumped, err := types.BumpPK(v)
			if err != nil {
				return nil, nil, err
			}
			k, err = types.EncodePK(table, bumped)
			if err != nil {
				return nil, nil, err
			}
		}
		hi = k
	}

	if string(lo) > string(hi) {
		return nil, nil, fmt.Errorf("%w: start key is past end key", dberr.ErrInvalidRange)
	}
	return lo, hi, nil
}

func (ex *Executor) execTableRangeScan(p planner.TableRangeScan) (*Result, error) {
	schema, ok := ex.cat.TableSchema(p.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, p.Table)
	}
	lo, hi, err := rangeKeys(p.Table, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	limit := -1
	if p.Limit != nil {
		limit = *p.Limit
	}

	if len(p.OrderBy) > 0 {
		rows, err := ex.materializeOrdered(schema, ex.txn.Scan(lo, hi), p.AdditionalFilter, p.SelectedColumns, p.OrderBy, limit)
		if err != nil {
			return nil, err
		}
		return &Result{Columns: resultColumnNames(schema, p.SelectedColumns), Rows: &materializedIterator{rows: rows, pos: -1}}, nil
	}

	it := &rowIterator{it: ex.txn.Scan(lo, hi), schema: schema, columns: p.SelectedColumns, filter: p.AdditionalFilter, limit: limit}
	return &Result{Columns: resultColumnNames(schema, p.SelectedColumns), Rows: it}, nil
}

func (ex *Executor) execTableScan(p planner.TableScan) (*Result, error) {
	schema, ok := ex.cat.TableSchema(p.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, p.Table)
	}
	lo := types.TablePrefix(p.Table)
	hi := types.TableEndMarker(p.Table)
	limit := -1
	if p.Limit != nil {
		limit = *p.Limit
	}

	if len(p.OrderBy) > 0 {
		rows, err := ex.materializeOrdered(schema, ex.txn.Scan(lo, hi), p.Filter, p.SelectedColumns, p.OrderBy, limit)
		if err != nil {
			return nil, err
		}
		return &Result{Columns: resultColumnNames(schema, p.SelectedColumns), Rows: &materializedIterator{rows: rows, pos: -1}}, nil
	}

	it := &rowIterator{it: ex.txn.Scan(lo, hi), schema: schema, columns: p.SelectedColumns, filter: p.Filter, limit: limit}
	return &Result{Columns: resultColumnNames(schema, p.SelectedColumns), Rows: it}, nil
}

// materializeOrdered buffers every row passing filter, sorts it by orderBy
// (decoding sort columns even when they are not part of the projection),
// projects each to columns, and truncates to limit.
func (ex *Executor) materializeOrdered(schema *catalog.Schema, it kv.Iterator, filter ast.Condition, columns []ast.SelectItem, orderBy []ast.OrderByItem, limit int) ([][]types.Value, error) {
	type candidate struct {
		full map[string]types.Value
		keys []types.Value
	}
	var candidates []candidate
	for it.Next() {
		buf := it.Value()
		if filter != nil {
			ok, err := rowcodec.MatchesCondition(schema, buf, filter)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		full, err := rowcodec.DecodeFull(schema, buf)
		if err != nil {
			return nil, err
		}
		keys := make([]types.Value, len(orderBy))
		for i, ob := range orderBy {
			v, err := evalexpr.Eval(ob.Expr, full)
			if err != nil {
				return nil, err
			}
			keys[i] = v
		}
		candidates = append(candidates, candidate{full: full, keys: keys})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		for k, ob := range orderBy {
			cmp, err := types.Compare(candidates[i].keys[k], candidates[j].keys[k])
			if err != nil {
				continue
			}
			if cmp == 0 {
				continue
			}
			if ob.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	if limit >= 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}

	out := make([][]types.Value, len(candidates))
	for i, c := range candidates {
		out[i] = projectRow(schema, c.full, columns)
	}
	return out, nil
}
