package record

import "github.com/mesh-intelligence/strata/pkg/schema"

// Completed is the validated form of a Builder: every mandatory link holds
// a concrete nested Completed or an existing-record reference, defaults
// are materialized, and unset optional columns carry explicit nulls. It is
// produced by Builder.Complete and consumed by Insert.
type Completed struct {
	reg     *schema.Registry
	leaf    *schema.Table
	bundles []*completedBundle
}

// completedBundle mirrors Bundle after validation. Values left for the
// insertion walk to resolve (generated keys, threaded chain keys, link
// copy-backs) are simply absent from the value map.
type completedBundle struct {
	table      *schema.Table
	values     map[string]any
	satellites map[string]*Completed
	refs       map[string]Row
}

// Table returns the leaf table descriptor of the completed builder.
func (c *Completed) Table() *schema.Table { return c.leaf }

// Complete validates the builder and converts it into a Completed form.
// Each mandatory link lacking a satellite yields a MissingLinkError and
// each required, defaultless, unset column yields a MissingFieldError;
// discretionary links carry through unchanged, absent or not. The pass is
// purely structural and touches no storage; on failure the mutable
// builder is left untouched and remains usable.
func (b *Builder) Complete() (*Completed, error) {
	c := &Completed{
		reg:     b.reg,
		leaf:    b.leaf,
		bundles: make([]*completedBundle, 0, len(b.bundles)),
	}
	for _, bundle := range b.bundles {
		cb, err := completeBundle(bundle)
		if err != nil {
			return nil, err
		}
		c.bundles = append(c.bundles, cb)
	}
	return c, nil
}

func completeBundle(b *Bundle) (*completedBundle, error) {
	t := b.table
	cb := &completedBundle{
		table:      t,
		values:     make(map[string]any, len(b.values)),
		satellites: make(map[string]*Completed, len(b.satellites)),
		refs:       make(map[string]Row, len(b.refs)),
	}

	// Links first: a mandatory link with neither a nested builder nor a
	// reference makes the whole bundle incomplete, and nested builders
	// complete recursively so their own violations surface here.
	for i := range t.Links {
		l := &t.Links[i]
		if sat := b.satellites[l.Column]; sat != nil {
			nested, err := sat.Complete()
			if err != nil {
				return nil, err
			}
			cb.satellites[l.Column] = nested
			continue
		}
		if ref := b.refs[l.Column]; ref != nil {
			cb.refs[l.Column] = ref
			continue
		}
		if l.Mandatory {
			return nil, &MissingLinkError{Table: t.Name, Column: l.Column}
		}
	}

	// deferred marks columns the insertion walk fills in: host columns of
	// satisfied link pairs receive satellite copy-backs.
	deferred := make(map[string]bool)
	for i := range t.Links {
		l := &t.Links[i]
		if !b.linkSatisfied(l.Column) {
			continue
		}
		deferred[l.Column] = true
		for _, hc := range l.HostColumns {
			deferred[hc] = true
		}
	}

	for i := range t.Columns {
		col := &t.Columns[i]
		if v, ok := b.values[col.Name]; ok {
			cb.values[col.Name] = v
			continue
		}
		switch {
		case col.Generated:
			// Storage produces the value.
		case t.IsPrimaryKey(col.Name) && t.KeyGen != schema.KeyGenNone:
			// Key generated at insert time.
		case t.IsPrimaryKey(col.Name) && t.Parent() != "":
			// Key threaded from the parent row during insertion.
		case deferred[col.Name]:
			// Filled from the satellite row during insertion.
		case col.HasDefault:
			cb.values[col.Name] = col.Default
		case col.Optional:
			cb.values[col.Name] = nil
		default:
			return nil, &MissingFieldError{Table: t.Name, Field: col.Name}
		}
	}
	return cb, nil
}
