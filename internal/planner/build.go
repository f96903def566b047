package planner

import (
	"fmt"
	"math"

	"tegdb/internal/ast"
	"tegdb/internal/catalog"
	"tegdb/internal/dberr"
	"tegdb/internal/types"
)

// Build chooses an execution plan for stmt given the current catalog state,
// resolving every ?N parameter placeholder against params along the way.
func Build(stmt ast.Statement, cat *catalog.Catalog, params []types.Value) (Plan, error) {
	switch s := stmt.(type) {
	case ast.Select:
		schema, ok := cat.TableSchema(s.Table)
		if !ok {
			return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, s.Table)
		}
		return buildSelect(s, schema, params)
	case ast.Insert:
		return buildInsert(s, cat, params)
	case ast.Update:
		return buildUpdate(s, cat, params)
	case ast.Delete:
		return buildDelete(s, cat, params)
	case ast.CreateTable:
		return buildCreateTable(s)
	case ast.CreateIndex:
		return buildCreateIndex(s, cat)
	case ast.DropTable:
		return DropTable{Table: s.Table}, nil
	case ast.DropIndex:
		return DropIndex{Index: s.Index}, nil
	case ast.Begin:
		return Begin{}, nil
	case ast.Commit:
		return Commit{}, nil
	case ast.Rollback:
		return Rollback{}, nil
	default:
		return nil, fmt.Errorf("%w: unplannable statement %T", dberr.ErrOther, stmt)
	}
}

func buildSelect(s ast.Select, schema *catalog.Schema, params []types.Value) (Plan, error) {
	cond, err := resolveCondition(s.Where, params)
	if err != nil {
		return nil, err
	}
	orderBy := make([]ast.OrderByItem, len(s.OrderBy))
	for i, ob := range s.OrderBy {
		e, err := resolveExpr(ob.Expr, params)
		if err != nil {
			return nil, err
		}
		orderBy[i] = ast.OrderByItem{Expr: e, Desc: ob.Desc}
	}
	scan, err := buildScan(s.Table, schema, cond, s.Limit, orderBy)
	if err != nil {
		return nil, err
	}
	return attachSelectedColumns(scan, s.Columns), nil
}

// buildScan applies the selection policy of §4.7: PrimaryKeyLookup on a
// single PK equality, else TableRangeScan on a PK interval, else TableScan.
func buildScan(table string, schema *catalog.Schema, cond ast.Condition, limit *int, orderBy []ast.OrderByItem) (Plan, error) {
	pkCol := schema.PrimaryKeyColumn().Name
	effectiveOrder := elideNaturalOrder(orderBy, pkCol)

	if cond != nil {
		if _, isOr := cond.(ast.Or); !isOr {
			conjuncts := flattenAnd(cond)

			for i, c := range conjuncts {
				if v, ok := pkEquality(c, pkCol); ok {
					remaining := removeAt(conjuncts, i)
					return PrimaryKeyLookup{
						Table:            table,
						PKValue:          v,
						AdditionalFilter: rebuildAnd(remaining),
					}, nil
				}
			}

			start, end, remaining, matched, err := pkRange(conjuncts, pkCol)
			if err != nil {
				return nil, err
			}
			if matched {
				return TableRangeScan{
					Table:            table,
					Start:            start,
					End:              end,
					AdditionalFilter: rebuildAnd(remaining),
					Limit:            limit,
					OrderBy:          effectiveOrder,
				}, nil
			}
		}
	}

	return TableScan{
		Table:   table,
		Filter:  cond,
		Limit:   limit,
		OrderBy: effectiveOrder,
	}, nil
}

// attachSelectedColumns stamps a SELECT's projection list onto the scan
// plan buildScan produced.
func attachSelectedColumns(scan Plan, columns []ast.SelectItem) Plan {
	switch p := scan.(type) {
	case PrimaryKeyLookup:
		p.SelectedColumns = columns
		return p
	case TableRangeScan:
		p.SelectedColumns = columns
		return p
	case TableScan:
		p.SelectedColumns = columns
		return p
	default:
		return scan
	}
}

// elideNaturalOrder drops an ORDER BY clause that requests exactly the
// ascending primary-key order every scan already produces for free.
func elideNaturalOrder(orderBy []ast.OrderByItem, pkCol string) []ast.OrderByItem {
	if len(orderBy) == 1 && !orderBy[0].Desc {
		if col, ok := orderBy[0].Expr.(ast.Column); ok && col.Name == pkCol {
			return nil
		}
	}
	return orderBy
}

func flattenAnd(cond ast.Condition) []ast.Condition {
	if and, ok := cond.(ast.And); ok {
		return append(flattenAnd(and.Left), flattenAnd(and.Right)...)
	}
	return []ast.Condition{cond}
}

func removeAt(conds []ast.Condition, i int) []ast.Condition {
	out := make([]ast.Condition, 0, len(conds)-1)
	for j, c := range conds {
		if j != i {
			out = append(out, c)
		}
	}
	return out
}

func rebuildAnd(conds []ast.Condition) ast.Condition {
	if len(conds) == 0 {
		return nil
	}
	result := conds[0]
	for _, c := range conds[1:] {
		result = ast.And{Left: result, Right: c}
	}
	return result
}

// pkEquality reports whether c is a bare "pkCol = literal" (or reversed)
// comparison, returning the literal value.
func pkEquality(c ast.Condition, pkCol string) (types.Value, bool) {
	cmp, ok := c.(ast.Comparison)
	if !ok || cmp.Op != "=" {
		return types.Value{}, false
	}
	if col, ok := cmp.Left.(ast.Column); ok && col.Name == pkCol {
		if lit, ok := cmp.Right.(ast.Literal); ok {
			return lit.Value, true
		}
	}
	if col, ok := cmp.Right.(ast.Column); ok && col.Name == pkCol {
		if lit, ok := cmp.Left.(ast.Literal); ok {
			return lit.Value, true
		}
	}
	return types.Value{}, false
}

// pkRange scans conjuncts for BETWEEN/< / <= / > / >= constraints on pkCol,
// folding them into start/end bounds; any conjunct not consumed this way is
// returned in remaining. matched is false if no PK bound was found at all.
func pkRange(conjuncts []ast.Condition, pkCol string) (start, end *Bound, remaining []ast.Condition, matched bool, err error) {
	for _, c := range conjuncts {
		switch cc := c.(type) {
		case ast.Between:
			if cc.Column == pkCol {
				lowLit, lowOK := cc.Low.(ast.Literal)
				highLit, highOK := cc.High.(ast.Literal)
				if lowOK && highOK {
					if err := rejectNaN(lowLit.Value); err != nil {
						return nil, nil, nil, false, err
					}
					if err := rejectNaN(highLit.Value); err != nil {
						return nil, nil, nil, false, err
					}
					s := Bound{Value: lowLit.Value, Inclusive: true}
					e := Bound{Value: highLit.Value, Inclusive: true}
					start, end = &s, &e
					matched = true
					continue
				}
			}
		case ast.Comparison:
			if col, ok := cc.Left.(ast.Column); ok && col.Name == pkCol {
				if lit, ok := cc.Right.(ast.Literal); ok {
					if b, isStart, ok2 := boundFromOp(cc.Op, lit.Value); ok2 {
						if err := rejectNaN(lit.Value); err != nil {
							return nil, nil, nil, false, err
						}
						if isStart {
							start = &b
						} else {
							end = &b
						}
						matched = true
						continue
					}
				}
			}
			if col, ok := cc.Right.(ast.Column); ok && col.Name == pkCol {
				if lit, ok := cc.Left.(ast.Literal); ok {
					if b, isStart, ok2 := boundFromOp(flipOp(cc.Op), lit.Value); ok2 {
						if err := rejectNaN(lit.Value); err != nil {
							return nil, nil, nil, false, err
						}
						if isStart {
							start = &b
						} else {
							end = &b
						}
						matched = true
						continue
					}
				}
			}
		}
		remaining = append(remaining, c)
	}
	return start, end, remaining, matched, nil
}

func boundFromOp(op string, v types.Value) (Bound, bool, bool) {
	switch op {
	case ">":
		return Bound{Value: v, Inclusive: false}, true, true
	case ">=":
		return Bound{Value: v, Inclusive: true}, true, true
	case "<":
		return Bound{Value: v, Inclusive: false}, false, true
	case "<=":
		return Bound{Value: v, Inclusive: true}, false, true
	default:
		return Bound{}, false, false
	}
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}

func rejectNaN(v types.Value) error {
	if v.Kind == types.KindReal && math.IsNaN(v.Real) {
		return fmt.Errorf("%w: NaN is not a valid range bound", dberr.ErrInvalidRange)
	}
	return nil
}

func buildInsert(s ast.Insert, cat *catalog.Catalog, params []types.Value) (Plan, error) {
	schema, ok := cat.TableSchema(s.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, s.Table)
	}

	columns := s.Columns
	if columns == nil {
		columns = make([]string, len(schema.Columns))
		for i, c := range schema.Columns {
			columns[i] = c.Name
		}
	} else {
		for _, name := range columns {
			if _, idx := schema.ColumnByName(name); idx < 0 {
				return nil, fmt.Errorf("%w: unknown column %q on table %q", dberr.ErrSchemaError, name, s.Table)
			}
		}
	}

	rows := make([]map[string]types.Value, len(s.Rows))
	for i, row := range s.Rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values but %d columns were named", dberr.ErrConstraintViolation, i, len(row), len(columns))
		}
		m := make(map[string]types.Value, len(row))
		for j, e := range row {
			resolved, err := resolveExpr(e, params)
			if err != nil {
				return nil, err
			}
			lit, ok := resolved.(ast.Literal)
			if !ok {
				return nil, fmt.Errorf("%w: INSERT values must be literals", dberr.ErrParseError)
			}
			m[columns[j]] = lit.Value
		}
		rows[i] = m
	}

	return Insert{Table: s.Table, Rows: rows}, nil
}

func buildUpdate(s ast.Update, cat *catalog.Catalog, params []types.Value) (Plan, error) {
	schema, ok := cat.TableSchema(s.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, s.Table)
	}
	cond, err := resolveCondition(s.Where, params)
	if err != nil {
		return nil, err
	}
	scan, err := buildScan(s.Table, schema, cond, nil, nil)
	if err != nil {
		return nil, err
	}

	assignments := make([]ast.Assignment, len(s.Assignments))
	for i, a := range s.Assignments {
		resolved, err := resolveExpr(a.Value, params)
		if err != nil {
			return nil, err
		}
		assignments[i] = ast.Assignment{Column: a.Column, Value: resolved}
	}

	return Update{Table: s.Table, Assignments: assignments, Scan: scan}, nil
}

func buildDelete(s ast.Delete, cat *catalog.Catalog, params []types.Value) (Plan, error) {
	schema, ok := cat.TableSchema(s.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, s.Table)
	}
	cond, err := resolveCondition(s.Where, params)
	if err != nil {
		return nil, err
	}
	scan, err := buildScan(s.Table, schema, cond, nil, nil)
	if err != nil {
		return nil, err
	}
	return Delete{Table: s.Table, Scan: scan}, nil
}

func buildCreateTable(s ast.CreateTable) (Plan, error) {
	columns := make([]*catalog.Column, len(s.Columns))
	for i, cd := range s.Columns {
		columns[i] = &catalog.Column{
			Name:        cd.Name,
			Type:        cd.Type,
			Constraints: mapConstraints(cd.Constraints),
		}
	}
	schema, err := catalog.NewSchema(s.Table, columns)
	if err != nil {
		return nil, err
	}
	return CreateTable{Schema: schema}, nil
}

func mapConstraints(cs []ast.ColumnConstraint) []catalog.Constraint {
	out := make([]catalog.Constraint, len(cs))
	for i, c := range cs {
		switch c {
		case ast.ConstraintPrimaryKey:
			out[i] = catalog.ConstraintPrimaryKey
		case ast.ConstraintNotNull:
			out[i] = catalog.ConstraintNotNull
		case ast.ConstraintUnique:
			out[i] = catalog.ConstraintUnique
		}
	}
	return out
}

func buildCreateIndex(s ast.CreateIndex, cat *catalog.Catalog) (Plan, error) {
	schema, ok := cat.TableSchema(s.Table)
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", dberr.ErrSchemaError, s.Table)
	}
	if _, idx := schema.ColumnByName(s.Column); idx < 0 {
		return nil, fmt.Errorf("%w: unknown column %q on table %q", dberr.ErrSchemaError, s.Column, s.Table)
	}
	return CreateIndex{Desc: &catalog.IndexDescriptor{
		Name:   s.Index,
		Table:  s.Table,
		Column: s.Column,
		Unique: s.Unique,
	}}, nil
}
