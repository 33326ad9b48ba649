package schema

// Validator checks a candidate value for one column. The row argument
// holds the owning bundle's other already-set values, so a validator can
// perform cross-field checks; pure validators ignore it. A validator must
// not mutate row.
type Validator func(value any, row map[string]any) error

// validatorKey identifies a column across the whole registry.
type validatorKey struct {
	table  string
	column string
}

// Registry holds a validated set of table descriptors. All invariants the
// engine relies on (no self-ancestry, DAG shape, link arity, vertical
// target membership) are enforced once here, so the builder and insertion
// code can treat descriptor lookups as infallible.
type Registry struct {
	tables     map[string]*Table
	validators map[validatorKey]Validator
}

// NewRegistry validates the given tables as a complete schema and returns
// a Registry over them. The first violation found is returned as a
// SchemaError; on error no Registry is returned.
func NewRegistry(tables ...*Table) (*Registry, error) {
	r := &Registry{
		tables:     make(map[string]*Table, len(tables)),
		validators: make(map[validatorKey]Validator),
	}

	for _, t := range tables {
		if t.Name == "" {
			return nil, schemaErr("", "", ErrEmptyTableName)
		}
		if _, ok := r.tables[t.Name]; ok {
			return nil, schemaErr(t.Name, "", ErrDuplicateTable)
		}
		r.tables[t.Name] = t
	}

	for _, t := range tables {
		if err := r.validateTable(t); err != nil {
			return nil, err
		}
	}
	if err := r.checkAcyclic(); err != nil {
		return nil, err
	}
	for _, t := range tables {
		if err := r.validateRelations(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Table returns the descriptor for the named table.
// Returns ErrTableNotFound if the table is not registered.
func (r *Registry) Table(name string) (*Table, error) {
	t, ok := r.tables[name]
	if !ok {
		return nil, schemaErr(name, "", ErrTableNotFound)
	}
	return t, nil
}

// Tables returns the names of all registered tables in arbitrary order.
func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}

// Chain returns the full ancestor chain for the named table, root-first,
// with the table itself last. A root table yields a single-element chain.
func (r *Registry) Chain(name string) ([]*Table, error) {
	leaf, err := r.Table(name)
	if err != nil {
		return nil, err
	}
	chain := make([]*Table, 0, len(leaf.Ancestors)+1)
	for _, a := range leaf.Ancestors {
		t, err := r.Table(a)
		if err != nil {
			return nil, err
		}
		chain = append(chain, t)
	}
	return append(chain, leaf), nil
}

// SetValidator registers a per-column validator. Passing nil removes a
// previously registered validator. Returns a SchemaError if the table or
// column is unknown.
func (r *Registry) SetValidator(table, column string, v Validator) error {
	t, err := r.Table(table)
	if err != nil {
		return err
	}
	if t.Column(column) == nil {
		return schemaErr(table, column, ErrUnknownColumn)
	}
	key := validatorKey{table: table, column: column}
	if v == nil {
		delete(r.validators, key)
		return nil
	}
	r.validators[key] = v
	return nil
}

// Validator returns the registered validator for the column, or nil.
func (r *Registry) Validator(table, column string) Validator {
	return r.validators[validatorKey{table: table, column: column}]
}

// validateTable checks the table's own declarations: column uniqueness and
// value types, primary key presence, key generation mode, and ancestor
// list shape.
func (r *Registry) validateTable(t *Table) error {
	seen := make(map[string]bool, len(t.Columns))
	for i := range t.Columns {
		c := &t.Columns[i]
		if seen[c.Name] {
			return schemaErr(t.Name, c.Name, ErrDuplicateColumn)
		}
		seen[c.Name] = true
		if !IsValidValueType(c.Type) {
			return schemaErr(t.Name, c.Name, ErrInvalidValueType)
		}
	}

	if len(t.PrimaryKey) == 0 {
		return schemaErr(t.Name, "", ErrNoPrimaryKey)
	}
	for _, pk := range t.PrimaryKey {
		if t.Column(pk) == nil {
			return schemaErr(t.Name, pk, ErrUnknownColumn)
		}
	}
	if !validKeyGens[t.KeyGen] {
		return schemaErr(t.Name, "", ErrInvalidKeyGen)
	}
	// Generated keys are read back by their single key column; a composite
	// key must be caller-supplied.
	if t.KeyGen != KeyGenNone && len(t.PrimaryKey) != 1 {
		return schemaErr(t.Name, "", ErrCompositeKeyGen)
	}

	seenAnc := make(map[string]bool, len(t.Ancestors))
	for _, a := range t.Ancestors {
		if a == t.Name {
			return schemaErr(t.Name, "", ErrSelfAncestor)
		}
		if seenAnc[a] {
			return schemaErr(t.Name, "", ErrDuplicateAncestor)
		}
		seenAnc[a] = true
		anc, ok := r.tables[a]
		if !ok {
			return schemaErr(t.Name, "", ErrUnknownAncestor)
		}
		if len(anc.PrimaryKey) != len(t.PrimaryKey) {
			return schemaErr(t.Name, "", ErrKeyArity)
		}
	}
	// The ancestor list must be transitively closed and root-first: every
	// ancestor of an ancestor appears too, and before its dependent, so a
	// builder's chain always contains every propagation target and inserts
	// each parent before its children.
	pos := make(map[string]int, len(t.Ancestors))
	for i, a := range t.Ancestors {
		pos[a] = i
	}
	for i, a := range t.Ancestors {
		for _, aa := range r.tables[a].Ancestors {
			j, ok := pos[aa]
			if !ok {
				return schemaErr(t.Name, "", ErrIncompleteChain)
			}
			if j > i {
				return schemaErr(t.Name, "", ErrAncestorOrder)
			}
		}
	}
	return nil
}

// checkAcyclic verifies that the parent edges form a DAG. Diamond shapes
// (two chains converging at a shared root) are permitted; cycles are not.
func (r *Registry) checkAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(r.tables))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return schemaErr(name, "", ErrAncestryCycle)
		case done:
			return nil
		}
		state[name] = visiting
		for _, a := range r.tables[name].Ancestors {
			if _, ok := r.tables[a]; !ok {
				continue // reported by validateTable
			}
			if err := visit(a); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for name := range r.tables {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// validateRelations checks the table's same-as groups and triangular
// links against the other registered tables.
func (r *Registry) validateRelations(t *Table) error {
	for i := range t.SameAs {
		g := &t.SameAs[i]
		src := t.Column(g.Column)
		if src == nil {
			return schemaErr(t.Name, g.Column, ErrUnknownColumn)
		}
		for _, target := range g.Targets {
			if !t.hasAncestor(target.Table) {
				return schemaErr(t.Name, g.Column, ErrTargetNotAncestor)
			}
			anc := r.tables[target.Table]
			dst := anc.Column(target.Column)
			if dst == nil {
				return schemaErr(target.Table, target.Column, ErrUnknownColumn)
			}
			if dst.Type != src.Type {
				return schemaErr(t.Name, g.Column, ErrTypeMismatch)
			}
		}
	}

	for i := range t.Links {
		l := &t.Links[i]
		key := t.Column(l.Column)
		if key == nil {
			return schemaErr(t.Name, l.Column, ErrUnknownColumn)
		}
		sat, ok := r.tables[l.Satellite]
		if !ok {
			return schemaErr(t.Name, l.Column, ErrSatelliteUnknown)
		}
		if t.hasAncestor(l.Satellite) {
			return schemaErr(t.Name, l.Column, ErrSatelliteAncestor)
		}
		// Triangular participation requires single-column keys on both
		// sides: the host FK references the satellite key directly, and
		// deferred pairs key off the host's own single PK column.
		if len(t.PrimaryKey) != 1 || len(sat.PrimaryKey) != 1 {
			return schemaErr(t.Name, l.Column, ErrCompositeLinkKey)
		}
		satKey := sat.Column(sat.PrimaryKey[0])
		if satKey.Type != key.Type {
			return schemaErr(t.Name, l.Column, ErrTypeMismatch)
		}
		if len(l.HostColumns) != len(l.ForeignColumns) {
			return schemaErr(t.Name, l.Column, ErrLinkArity)
		}
		if len(l.HostColumns) == 0 {
			return schemaErr(t.Name, l.Column, ErrLinkEmpty)
		}
		for j := range l.HostColumns {
			hc := t.Column(l.HostColumns[j])
			if hc == nil {
				return schemaErr(t.Name, l.HostColumns[j], ErrUnknownColumn)
			}
			fc := sat.Column(l.ForeignColumns[j])
			if fc == nil {
				return schemaErr(l.Satellite, l.ForeignColumns[j], ErrUnknownColumn)
			}
			if hc.Type != fc.Type {
				return schemaErr(t.Name, l.HostColumns[j], ErrTypeMismatch)
			}
		}
	}
	return nil
}
