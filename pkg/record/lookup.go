package record

import "github.com/mesh-intelligence/strata/pkg/schema"

// LinkFilter builds the read-path filter for a declared triangular link:
// each satellite foreign column is equated to the host row's value for the
// matching host column, in declared order. Returns ErrMissingHostValue
// when the host row lacks one of the declared host columns.
func LinkFilter(link *schema.Link, hostRow Row) (Filter, error) {
	f := make(Filter, len(link.HostColumns))
	for i, hc := range link.HostColumns {
		v, ok := hostRow[hc]
		if !ok {
			return nil, ErrMissingHostValue
		}
		f[link.ForeignColumns[i]] = v
	}
	return f, nil
}

// linkFor resolves a host table and link column against the registry.
func linkFor(reg *schema.Registry, table, column string) (*schema.Link, error) {
	t, err := reg.Table(table)
	if err != nil {
		return nil, err
	}
	l := t.Link(column)
	if l == nil {
		return nil, ErrNotLinkColumn
	}
	return l, nil
}

// LookupFirst fetches the first satellite row related to hostRow through
// the link declared on the given host column. Absence surfaces as
// ErrRowNotFound wrapped in a StorageError.
func LookupFirst(st Storage, reg *schema.Registry, table, column string, hostRow Row) (Row, error) {
	l, err := linkFor(reg, table, column)
	if err != nil {
		return nil, err
	}
	f, err := LinkFilter(l, hostRow)
	if err != nil {
		return nil, err
	}
	row, err := st.SelectFirst(l.Satellite, f)
	if err != nil {
		return nil, &StorageError{Table: l.Satellite, Err: err}
	}
	return row, nil
}

// LookupAll fetches every satellite row related to hostRow through the
// link declared on the given host column.
func LookupAll(st Storage, reg *schema.Registry, table, column string, hostRow Row) ([]Row, error) {
	l, err := linkFor(reg, table, column)
	if err != nil {
		return nil, err
	}
	f, err := LinkFilter(l, hostRow)
	if err != nil {
		return nil, err
	}
	rows, err := st.SelectAll(l.Satellite, f)
	if err != nil {
		return nil, &StorageError{Table: l.Satellite, Err: err}
	}
	return rows, nil
}
