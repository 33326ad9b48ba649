package schema

import (
	"errors"
	"fmt"
)

// Registry construction errors. NewRegistry wraps each of these in a
// SchemaError naming the offending table and column.
var (
	ErrEmptyTableName    = errors.New("table name must not be empty")
	ErrDuplicateTable    = errors.New("table declared more than once")
	ErrSelfAncestor      = errors.New("table lists itself as an ancestor")
	ErrDuplicateAncestor = errors.New("ancestor listed more than once")
	ErrUnknownAncestor   = errors.New("ancestor table not declared")
	ErrIncompleteChain   = errors.New("ancestor list missing a transitive ancestor")
	ErrAncestorOrder     = errors.New("ancestor list not in root-first order")
	ErrAncestryCycle     = errors.New("ancestor chains form a cycle")
	ErrNoPrimaryKey      = errors.New("table declares no primary key")
	ErrUnknownColumn     = errors.New("column not declared on table")
	ErrInvalidValueType  = errors.New("invalid column value type")
	ErrInvalidKeyGen     = errors.New("invalid key generation mode")
	ErrCompositeKeyGen   = errors.New("key generation requires a single primary key column")
	ErrDuplicateColumn   = errors.New("column declared more than once")
	ErrTargetNotAncestor = errors.New("same-as target table is not an ancestor")
	ErrTypeMismatch      = errors.New("related columns have different value types")
	ErrLinkArity         = errors.New("host and foreign column lists differ in length")
	ErrLinkEmpty         = errors.New("link declares no host/foreign column pairs")
	ErrSatelliteUnknown  = errors.New("satellite table not declared")
	ErrSatelliteAncestor = errors.New("satellite table is an ancestor of the host")
	ErrCompositeLinkKey  = errors.New("triangular participant has a composite primary key")
	ErrKeyArity          = errors.New("primary key arity differs from parent")
	ErrTableNotFound     = errors.New("table not found in registry")
)

// SchemaError reports a schema validation failure with the table and,
// when applicable, the column that triggered it.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: table %q column %q: %s", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("schema: table %q: %s", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// schemaErr builds a SchemaError for the given table/column.
func schemaErr(table, column string, err error) error {
	return &SchemaError{Table: table, Column: column, Err: err}
}
