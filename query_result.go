package tegdb

import (
	"tegdb/internal/executor"
)

// QueryResult is the outcome of a SELECT: a column list and a row
// iterator yielding typed values in column order.
type QueryResult struct {
	columns []string
	rows    [][]Value
	pos     int
}

func newQueryResult(res *executor.Result) (*QueryResult, error) {
	qr := &QueryResult{columns: res.Columns, pos: -1}
	if res.Rows == nil {
		return qr, nil
	}
	for res.Rows.Next() {
		qr.rows = append(qr.rows, res.Rows.Row())
	}
	if err := res.Rows.Err(); err != nil {
		return nil, err
	}
	return qr, nil
}

// Columns returns the projected column names, in order.
func (qr *QueryResult) Columns() []string { return qr.columns }

// Next advances to the next row.
func (qr *QueryResult) Next() bool {
	qr.pos++
	return qr.pos < len(qr.rows)
}

// Row returns the current row's values, aligned with Columns().
func (qr *QueryResult) Row() []Value { return qr.rows[qr.pos] }

// Rows returns every row at once, for callers that do not need streaming.
func (qr *QueryResult) Rows() [][]Value { return qr.rows }
