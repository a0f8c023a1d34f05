// Package rows implements the lazy, forward-only row stream shared by
// every driver's executor surface: Next advances one row at a time from
// the underlying connection, and Close implicitly drains any unread rows
// so the connection can be returned to its pool in a known state.
package rows

import (
	"sync"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// Source is implemented by each driver's connection: it knows how to pull
// the next row off the wire (or report that the result set is
// exhausted) and how to discard the rest of a result set without
// decoding it, for the implicit-drain-on-early-Close behavior.
type Source interface {
	// NextRow blocks for the next row. ok is false when the result set is
	// exhausted (not an error).
	NextRow() (values []typeinfo.RawValue, ok bool, err error)
	// Drain discards all remaining rows of the current result set without
	// decoding them.
	Drain() error
	// Columns returns the result set's column descriptors. Valid once the
	// first row (or the exhaustion signal) has been observed.
	Columns() []Column
}

// Column describes one result-set column.
type Column struct {
	Name string
	Type typeinfo.TypeInfo
}

// Rows is a forward-only cursor over a query's result set.
type Rows struct {
	src    Source
	mu     sync.Mutex
	cur    []typeinfo.RawValue
	done   bool
	err    error
	closed bool
}

// New wraps src in a Rows cursor.
func New(src Source) *Rows {
	return &Rows{src: src}
}

// Next advances to the next row, returning false when the result set is
// exhausted or an error occurred (check Err after Next returns false).
func (r *Rows) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done || r.closed {
		return false
	}
	values, ok, err := r.src.NextRow()
	if err != nil {
		r.err = err
		r.done = true
		return false
	}
	if !ok {
		r.done = true
		return false
	}
	r.cur = values
	return true
}

// Scan copies the current row's columns into dest, which must be
// pointers, one per column, in the order returned by Columns.
func (r *Rows) Scan(dest ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cols := r.src.Columns()
	if len(dest) != len(cols) {
		return &ScanCountError{Want: len(cols), Got: len(dest)}
	}
	for i, d := range dest {
		if err := scanInto(r.cur[i], cols[i], d); err != nil {
			return &typeinfo.ColumnDecodeError{Column: i, Name: cols[i].Name, Type: cols[i].Type, Cause: err}
		}
	}
	return nil
}

// ScanCountError reports a Scan call whose destination count does not
// match the result set's column count.
type ScanCountError struct {
	Want, Got int
}

func (e *ScanCountError) Error() string {
	return "rows: Scan called with the wrong number of destinations"
}

// Columns returns the result set's column descriptors.
func (r *Rows) Columns() []Column {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Columns()
}

// Err returns the error, if any, that terminated iteration.
func (r *Rows) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close releases the row stream. If the caller stopped calling Next
// before the result set was exhausted, Close implicitly drains the
// remaining rows so the underlying connection is left in a clean state
// for its next use (e.g. return to a pool).
func (r *Rows) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.done {
		return nil
	}
	return r.src.Drain()
}
