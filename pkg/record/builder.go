package record

import (
	"github.com/mesh-intelligence/strata/pkg/schema"
)

// Builder composes one record for a leaf table together with all of its
// ancestor and satellite records. It holds one Bundle per table in the
// leaf's ancestor chain, root-first, with the leaf's own bundle last.
// A Builder and its nested bundles are exclusively owned by the caller;
// two Builders never share internal state.
type Builder struct {
	reg     *schema.Registry
	leaf    *schema.Table
	bundles []*Bundle
	byName  map[string]*Bundle
}

// New creates an empty Builder for the named table. The registry supplies
// the leaf's ancestor chain; every chain table gets its own empty bundle.
func New(reg *schema.Registry, table string) (*Builder, error) {
	chain, err := reg.Chain(table)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		reg:     reg,
		leaf:    chain[len(chain)-1],
		bundles: make([]*Bundle, 0, len(chain)),
		byName:  make(map[string]*Bundle, len(chain)),
	}
	for _, t := range chain {
		bundle := newBundle(t)
		b.bundles = append(b.bundles, bundle)
		b.byName[t.Name] = bundle
	}
	return b, nil
}

// Table returns the leaf table descriptor this builder composes.
func (b *Builder) Table() *schema.Table { return b.leaf }

// Bundle returns the bundle for the named chain table, or nil when the
// table is not part of this builder's chain.
func (b *Builder) Bundle(table string) *Bundle {
	return b.byName[table]
}

// Get returns the pending value for the given column, searching the chain
// leaf-first so an inherited column name resolves to the nearest declaring
// table. The second result is false when the column is unset everywhere.
func (b *Builder) Get(column string) (any, bool) {
	for i := len(b.bundles) - 1; i >= 0; i-- {
		if v, ok := b.bundles[i].values[column]; ok {
			return v, true
		}
	}
	return nil, false
}

// write is one staged column assignment, applied only after the whole set
// operation has been validated.
type write struct {
	bundle *Bundle
	column string
	value  any
}

// owningBundle resolves a column name to its owning bundle and descriptor,
// searching the chain leaf-first. Callers filling an inherited column hit
// the ancestor's bundle directly.
func (b *Builder) owningBundle(column string) (*Bundle, *schema.Column) {
	for i := len(b.bundles) - 1; i >= 0; i-- {
		if c := b.bundles[i].table.Column(column); c != nil {
			return b.bundles[i], c
		}
	}
	return nil, nil
}

// stageSet validates the assignment structurally and returns the full
// write set: the owning bundle plus every vertical same-as target. No
// bundle is mutated. Raw writes to mandatory link columns are rejected;
// stageLinkSet is the internal variant that permits them.
func (b *Builder) stageSet(column string, value any) ([]write, error) {
	bundle, _ := b.owningBundle(column)
	if bundle != nil {
		if l := bundle.table.Link(column); l != nil && l.Mandatory {
			return nil, ErrMandatoryColumn
		}
	}
	return b.stageLinkSet(column, value)
}

// stageLinkSet stages a column assignment without the mandatory-link-column
// restriction. Link assignment paths use it to write the foreign-key value
// itself.
func (b *Builder) stageLinkSet(column string, value any) ([]write, error) {
	bundle, col := b.owningBundle(column)
	if bundle == nil {
		return nil, ErrUnknownColumn
	}
	if col.Generated {
		return nil, ErrGeneratedColumn
	}
	value = schema.NormalizeValue(col.Type, value)
	if !schema.ValueMatchesType(col.Type, value) {
		return nil, ErrTypeMismatch
	}

	writes := []write{{bundle: bundle, column: column, value: value}}
	if g := bundle.table.SameAsGroup(column); g != nil {
		for _, target := range g.Targets {
			tb := b.byName[target.Table]
			if tb == nil {
				// Target outside this builder's chain; the registry
				// guarantees this cannot happen for a closed chain.
				return nil, ErrUnknownColumn
			}
			writes = append(writes, write{bundle: tb, column: target.Column, value: value})
		}
	}
	return writes, nil
}

// apply commits a staged write set.
func (b *Builder) apply(writes []write) {
	for _, w := range writes {
		w.bundle.values[w.column] = w.value
	}
}

// Set assigns a column value, routing the write to the owning bundle and
// fanning it out to every vertical same-as target. It fails only on
// structural problems (unknown column, generated column, type mismatch);
// registered validators do not run. Use TrySet for validated writes.
func (b *Builder) Set(column string, value any) error {
	writes, err := b.stageSet(column, value)
	if err != nil {
		return err
	}
	b.apply(writes)
	return nil
}

// TrySet is the fallible variant of Set: it additionally runs the
// registered validator for the written column and for each propagation
// target, at most once per bundle. On any failure no bundle is mutated,
// so a rejected value leaves the builder exactly as before the call.
func (b *Builder) TrySet(column string, value any) error {
	writes, err := b.stageSet(column, value)
	if err != nil {
		return err
	}
	if err := b.validateWrites(writes); err != nil {
		return err
	}
	b.apply(writes)
	return nil
}

// validateWrites runs registered validators over a staged write set
// without committing it.
func (b *Builder) validateWrites(writes []write) error {
	for _, w := range writes {
		v := b.reg.Validator(w.bundle.table.Name, w.column)
		if v == nil {
			continue
		}
		if err := v(w.value, w.bundle.values); err != nil {
			return &ValidationError{
				Table:  w.bundle.table.Name,
				Column: w.column,
				Err:    err,
			}
		}
	}
	return nil
}

// linkBundle resolves a link column to the chain bundle declaring it.
func (b *Builder) linkBundle(column string) (*Bundle, *schema.Link) {
	for i := len(b.bundles) - 1; i >= 0; i-- {
		if l := b.bundles[i].table.Link(column); l != nil {
			return b.bundles[i], l
		}
	}
	return nil, nil
}

// SetLink attaches a satellite builder under a triangular link column.
// Every host/foreign pair whose foreign column already carries a value in
// the satellite builder is copied into the host side immediately; the
// pair whose host column is the host table's own primary key is deferred
// until insertion, when the satellite's key exists but the host's still
// does not. Copied host values run their registered validators; on
// failure nothing is attached or written.
func (b *Builder) SetLink(column string, satellite *Builder) error {
	bundle, link := b.linkBundle(column)
	if bundle == nil {
		return ErrNotLinkColumn
	}
	if satellite.leaf.Name != link.Satellite {
		return ErrWrongSatellite
	}

	var writes []write
	hostPK := bundle.table.PrimaryKey[0]
	for i, hc := range link.HostColumns {
		if hc == hostPK {
			continue // host key unknown until the host row is inserted
		}
		v, ok := satellite.Get(link.ForeignColumns[i])
		if !ok {
			continue
		}
		staged, err := b.stageSet(hc, v)
		if err != nil {
			return err
		}
		writes = append(writes, staged...)
	}
	if err := b.validateWrites(writes); err != nil {
		return err
	}

	b.apply(writes)
	bundle.satellites[column] = satellite
	delete(bundle.refs, column)
	return nil
}

// SetLinkRecord attaches an already-persisted satellite row under a
// triangular link column. The row's key becomes the host's foreign-key
// value immediately and every declared pair is copied directly; no nested
// insert is scheduled for it. Returns ErrMissingForeign when the row
// lacks the satellite key or a declared foreign column.
func (b *Builder) SetLinkRecord(column string, row Row) error {
	bundle, link := b.linkBundle(column)
	if bundle == nil {
		return ErrNotLinkColumn
	}
	sat, err := b.reg.Table(link.Satellite)
	if err != nil {
		return err
	}

	keyVal, ok := row[sat.PrimaryKey[0]]
	if !ok {
		return ErrMissingForeign
	}
	staged, err := b.stageLinkSet(column, keyVal)
	if err != nil {
		return err
	}
	writes := staged

	hostPK := bundle.table.PrimaryKey[0]
	for i, hc := range link.HostColumns {
		if hc == hostPK {
			continue
		}
		v, ok := row[link.ForeignColumns[i]]
		if !ok {
			return ErrMissingForeign
		}
		staged, err := b.stageSet(hc, v)
		if err != nil {
			return err
		}
		writes = append(writes, staged...)
	}
	if err := b.validateWrites(writes); err != nil {
		return err
	}

	b.apply(writes)
	ref := make(Row, len(row))
	for k, v := range row {
		ref[k] = v
	}
	bundle.refs[column] = ref
	delete(bundle.satellites, column)
	return nil
}

// ResolveLink fetches an existing satellite row by its primary key through
// the storage read path and attaches it with SetLinkRecord. Returns
// ErrRowNotFound (wrapped in a StorageError) when no such row exists.
func (b *Builder) ResolveLink(st Storage, column string, key any) error {
	_, link := b.linkBundle(column)
	if link == nil {
		return ErrNotLinkColumn
	}
	sat, err := b.reg.Table(link.Satellite)
	if err != nil {
		return err
	}
	row, err := st.SelectFirst(sat.Name, Filter{sat.PrimaryKey[0]: key})
	if err != nil {
		return &StorageError{Table: sat.Name, Err: err}
	}
	return b.SetLinkRecord(column, row)
}
