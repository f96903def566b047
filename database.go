// Package tegdb is an embedded single-file SQL database: open a file,
// execute or query SQL text against it, optionally wrapped in an explicit
// transaction.
package tegdb

import (
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"tegdb/internal/catalog"
	"tegdb/internal/dberr"
	"tegdb/internal/engine"
	"tegdb/internal/executor"
	"tegdb/internal/sqlparser"
	"tegdb/internal/types"
)

// Re-exported value constructors and kinds so callers never need to import
// internal/types directly.
type (
	Value = types.Value
	Kind  = types.Kind
)

const (
	KindNull      = types.KindNull
	KindInteger   = types.KindInteger
	KindReal      = types.KindReal
	KindText      = types.KindText
	KindVector    = types.KindVector
	KindParameter = types.KindParameter
)

func Integer(v int64) Value         { return types.Integer(v) }
func Real(v float64) Value          { return types.Real(v) }
func Text(v string) Value           { return types.TextValue(v) }
func Vector(v []float64) Value      { return types.VectorValue(v) }
func Null() Value                   { return types.Null() }
func Parameter(idx int) Value       { return types.Parameter(idx) }

// Schema re-exports the catalog's table schema for get_table_schemas.
type Schema = catalog.Schema

// Database is an open handle on one .teg file. It is not safe for
// concurrent use from multiple goroutines, matching the single-writer
// engine it wraps.
type Database struct {
	eng *engine.Engine
	ex  *executor.Executor
}

// Open opens or creates the database file at path (or a "file://" URL
// naming one), replaying its log and loading its catalog.
func Open(path string, cfg Config) (*Database, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	eng, err := engine.Open(resolved, cfg.toEngineConfig())
	if err != nil {
		return nil, err
	}
	ex, err := executor.New(eng)
	if err != nil {
		eng.Close()
		return nil, err
	}
	return &Database{eng: eng, ex: ex}, nil
}

// resolvePath accepts a bare filesystem path or a "file://" URL, per the
// process-level API's open(path or URL) contract.
func resolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, "file://") {
		return path, nil
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: invalid file URL %q: %v", dberr.ErrIO, path, err)
	}
	return u.Path, nil
}

// Close releases the database's exclusive hold on its file, implicitly
// rolling back any transaction left open.
func (db *Database) Close() error {
	db.ex.Close()
	return db.eng.Close()
}

// Execute runs one non-SELECT statement to completion, implicitly wrapped
// in begin+commit when no explicit transaction is active, and returns the
// number of affected rows (0 for DDL).
func (db *Database) Execute(sql string, params ...Value) (int, error) {
	if db.ex.InTransaction() {
		res, err := db.ex.ExecuteSQL(sql, params)
		if err != nil {
			return 0, err
		}
		return res.Affected, nil
	}

	if _, err := db.ex.ExecuteSQL("BEGIN", nil); err != nil {
		return 0, err
	}
	res, err := db.ex.ExecuteSQL(sql, params)
	if err != nil {
		_, _ = db.ex.ExecuteSQL("ROLLBACK", nil)
		return 0, err
	}
	if _, err := db.ex.ExecuteSQL("COMMIT", nil); err != nil {
		return 0, err
	}
	return res.Affected, nil
}

// Query runs a SELECT to completion. Outside an explicit transaction the
// statement runs in an implicit, immediately-committed one; the returned
// QueryResult has already buffered every row, since its backing
// transaction no longer exists once Query returns.
func (db *Database) Query(sql string, params ...Value) (*QueryResult, error) {
	if db.ex.InTransaction() {
		res, err := db.ex.ExecuteSQL(sql, params)
		if err != nil {
			return nil, err
		}
		return newQueryResult(res)
	}

	if _, err := db.ex.ExecuteSQL("BEGIN", nil); err != nil {
		return nil, err
	}
	res, err := db.ex.ExecuteSQL(sql, params)
	if err != nil {
		_, _ = db.ex.ExecuteSQL("ROLLBACK", nil)
		return nil, err
	}
	qr, err := newQueryResult(res)
	if err != nil {
		_, _ = db.ex.ExecuteSQL("ROLLBACK", nil)
		return nil, err
	}
	if _, err := db.ex.ExecuteSQL("COMMIT", nil); err != nil {
		return nil, err
	}
	return qr, nil
}

// GetTableSchemas returns a snapshot of the current table name -> schema
// map.
func (db *Database) GetTableSchemas() map[string]*Schema {
	out := make(map[string]*Schema)
	for _, name := range db.ex.Catalog().TableNames() {
		if s, ok := db.ex.Catalog().TableSchema(name); ok {
			out[name] = s
		}
	}
	return out
}

// BeginTransaction opens an explicit transaction and returns a handle
// scoping Execute/Query/Commit/Rollback to it.
func (db *Database) BeginTransaction() (*DatabaseTransaction, error) {
	if _, err := db.ex.ExecuteSQL("BEGIN", nil); err != nil {
		return nil, err
	}
	tx := &DatabaseTransaction{db: db}
	runtime.SetFinalizer(tx, func(t *DatabaseTransaction) {
		if !t.done {
			_, _ = t.db.ex.ExecuteSQL("ROLLBACK", nil)
		}
	})
	return tx, nil
}

// DatabaseTransaction scopes Execute/Query to one explicit transaction on
// the Database that opened it.
type DatabaseTransaction struct {
	db   *Database
	done bool
}

// Execute runs one non-SELECT statement within the transaction.
func (tx *DatabaseTransaction) Execute(sql string, params ...Value) (int, error) {
	if tx.done {
		return 0, fmt.Errorf("%w", dberr.ErrTransactionAlreadyFinalized)
	}
	res, err := tx.db.ex.ExecuteSQL(sql, params)
	if err != nil {
		return 0, err
	}
	return res.Affected, nil
}

// Query runs a SELECT within the transaction; the returned QueryResult has
// already buffered every row, so it remains valid after Commit/Rollback.
func (tx *DatabaseTransaction) Query(sql string, params ...Value) (*QueryResult, error) {
	if tx.done {
		return nil, fmt.Errorf("%w", dberr.ErrTransactionAlreadyFinalized)
	}
	res, err := tx.db.ex.ExecuteSQL(sql, params)
	if err != nil {
		return nil, err
	}
	return newQueryResult(res)
}

// Commit finalizes the transaction.
func (tx *DatabaseTransaction) Commit() error {
	if tx.done {
		return fmt.Errorf("%w", dberr.ErrTransactionAlreadyFinalized)
	}
	_, err := tx.db.ex.ExecuteSQL("COMMIT", nil)
	tx.done = true
	return err
}

// Rollback discards the transaction.
func (tx *DatabaseTransaction) Rollback() error {
	if tx.done {
		return fmt.Errorf("%w", dberr.ErrTransactionAlreadyFinalized)
	}
	_, err := tx.db.ex.ExecuteSQL("ROLLBACK", nil)
	tx.done = true
	return err
}

// Parse is exposed for tooling that needs the canonical pretty-print of a
// statement without executing it.
func Parse(sql string) (string, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return "", err
	}
	return sqlparser.Print(stmt), nil
}
