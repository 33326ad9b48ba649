package record

import "github.com/mesh-intelligence/strata/pkg/schema"

// Bundle is the per-table unit of builder state: the pending column values
// for one chain table plus the satellite builders and references attached
// under its link columns. Bundles are created empty when a Builder is
// instantiated and mutated only through the owning Builder.
type Bundle struct {
	table      *schema.Table
	values     map[string]any
	satellites map[string]*Builder // link column -> nested builder
	refs       map[string]Row      // link column -> existing satellite row
}

func newBundle(t *schema.Table) *Bundle {
	return &Bundle{
		table:      t,
		values:     make(map[string]any),
		satellites: make(map[string]*Builder),
		refs:       make(map[string]Row),
	}
}

// Table returns the descriptor of the table this bundle builds.
func (b *Bundle) Table() *schema.Table { return b.table }

// Value returns the pending value for the given column and whether the
// column has been set. An explicit null reports (nil, true).
func (b *Bundle) Value(column string) (any, bool) {
	v, ok := b.values[column]
	return v, ok
}

// Satellite returns the nested builder attached under the given link
// column, or nil when none is attached.
func (b *Bundle) Satellite(column string) *Builder {
	return b.satellites[column]
}

// Reference returns the existing satellite row attached under the given
// link column, or nil when none is attached.
func (b *Bundle) Reference(column string) Row {
	return b.refs[column]
}

// linkSatisfied reports whether the link column carries either a nested
// builder or an existing-record reference.
func (b *Bundle) linkSatisfied(column string) bool {
	if b.satellites[column] != nil {
		return true
	}
	return b.refs[column] != nil
}
