// Package executor is the query executor (L7): it realizes a planner.Plan
// against a transaction, yielding either a streaming row iterator (SELECT)
// or an affected-row count, and owns the explicit-transaction state machine
// (Idle -> Active -> Finalized) described in §4.8.
package executor

import (
	"fmt"

	"tegdb/internal/ast"
	"tegdb/internal/catalog"
	"tegdb/internal/dberr"
	"tegdb/internal/engine"
	"tegdb/internal/planner"
	"tegdb/internal/sqlparser"
	"tegdb/internal/txn"
	"tegdb/internal/types"
)

// RowIterator is the streaming result contract for a SELECT: Next advances
// to the next row (applying filter and projection internally), Row returns
// the current projected row, and Err reports any error encountered during
// iteration. It is not restartable.
type RowIterator interface {
	Next() bool
	Row() []types.Value
	Err() error
}

// Result is the outcome of executing one statement: a SELECT carries
// Columns and Rows; an INSERT/UPDATE/DELETE carries Affected; everything
// else (DDL, BEGIN/COMMIT/ROLLBACK) carries neither.
type Result struct {
	Columns  []string
	Rows     RowIterator
	Affected int
}

// Executor runs parsed/planned statements against one engine, tracking
// whether an explicit transaction (opened by a BEGIN statement) is active.
// It is not safe for concurrent use, matching the single-writer engine it
// wraps.
type Executor struct {
	eng    *engine.Engine
	cat    *catalog.Catalog
	txn    *txn.Transaction
	active bool
}

// New builds an Executor over eng, loading the catalog from its current
// committed state.
func New(eng *engine.Engine) (*Executor, error) {
	cat, err := catalog.Load(eng)
	if err != nil {
		return nil, err
	}
	return &Executor{eng: eng, cat: cat}, nil
}

// Catalog returns the executor's live catalog view, e.g. for schema
// introspection (SHOW TABLES-equivalent CLI commands).
func (ex *Executor) Catalog() *catalog.Catalog { return ex.cat }

// InTransaction reports whether an explicit transaction is active.
func (ex *Executor) InTransaction() bool { return ex.active }

// ExecuteSQL parses sql and executes the resulting statement.
func (ex *Executor) ExecuteSQL(sql string, params []types.Value) (*Result, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, err
	}
	return ex.Execute(stmt, params)
}

// Execute plans and runs stmt, resolving ?N placeholders against params.
func (ex *Executor) Execute(stmt ast.Statement, params []types.Value) (*Result, error) {
	plan, err := planner.Build(stmt, ex.cat, params)
	if err != nil {
		return nil, err
	}

	switch plan.(type) {
	case planner.Begin:
		return ex.execBegin()
	case planner.Commit:
		return ex.execCommit()
	case planner.Rollback:
		return ex.execRollback()
	}

	if !ex.active {
		return nil, fmt.Errorf("%w: no transaction is active", dberr.ErrNoActiveTransaction)
	}

	switch p := plan.(type) {
	case planner.PrimaryKeyLookup, planner.TableRangeScan, planner.TableScan:
		return ex.execSelect(plan)
	case planner.Insert:
		return ex.execInsert(p)
	case planner.Update:
		return ex.execUpdate(p)
	case planner.Delete:
		return ex.execDelete(p)
	case planner.CreateTable:
		return ex.execCreateTable(p)
	case planner.DropTable:
		return ex.execDropTable(p)
	case planner.CreateIndex:
		return ex.execCreateIndex(p)
	case planner.DropIndex:
		return ex.execDropIndex(p)
	default:
		return nil, fmt.Errorf("%w: unexecutable plan %T", dberr.ErrOther, plan)
	}
}

func (ex *Executor) execBegin() (*Result, error) {
	if ex.active {
		return nil, fmt.Errorf("%w", dberr.ErrTransactionAlreadyActive)
	}
	ex.txn = txn.Begin(ex.eng)
	ex.active = true
	return &Result{}, nil
}

func (ex *Executor) execCommit() (*Result, error) {
	if !ex.active {
		return nil, fmt.Errorf("%w", dberr.ErrNoActiveTransaction)
	}
	err := ex.txn.Commit()
	ex.txn = nil
	ex.active = false
	return &Result{}, err
}

func (ex *Executor) execRollback() (*Result, error) {
	if !ex.active {
		return nil, fmt.Errorf("%w", dberr.ErrNoActiveTransaction)
	}
	err := ex.txn.Rollback()
	ex.txn = nil
	ex.active = false
	// DDL performed mid-transaction may have mutated the in-memory catalog
	// ahead of the engine write it rode in on; reload from the
	// now-rolled-back committed state so the two stay consistent.
	if reloaded, rerr := catalog.Load(ex.eng); rerr == nil {
		ex.cat = reloaded
	}
	return &Result{}, err
}

// Close releases resources held by an in-flight transaction, implicitly
// rolling it back if it was never committed or rolled back.
func (ex *Executor) Close() {
	if ex.txn != nil {
		ex.txn.Close()
		ex.txn = nil
		ex.active = false
	}
}
