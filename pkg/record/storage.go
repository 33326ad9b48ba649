package record

import "errors"

// Row holds column values for one table row, keyed by column name.
type Row map[string]any

// Filter holds column equality constraints for the read path. Every entry
// must match for a row to be selected.
type Filter map[string]any

// ErrRowNotFound is returned by SelectFirst when no row matches.
var ErrRowNotFound = errors.New("row not found")

// Storage is the collaborator the engine executes against. Implementations
// own SQL generation, connections, and transaction semantics; the engine
// only sequences calls. InsertRow must return the stored row with every
// column populated, including storage-generated ones.
type Storage interface {
	InsertRow(table string, values Row) (Row, error)
	SelectFirst(table string, filter Filter) (Row, error)
	SelectAll(table string, filter Filter) ([]Row, error)
}

// RowUpdater is an optional Storage extension used for back-propagating a
// host primary key into an already-inserted satellite row. Storages that
// do not implement it simply never receive back-propagation writes.
type RowUpdater interface {
	UpdateRow(table string, key Filter, values Row) error
}
