package schema

// Primary-key generation modes.
const (
	KeyGenNone          = ""              // caller supplies the key
	KeyGenUUID          = "uuid"          // UUID v7 generated at insert time
	KeyGenAutoincrement = "autoincrement" // integer key assigned by storage
)

// validKeyGens is the set of recognized key generation modes.
var validKeyGens = map[string]bool{
	KeyGenNone:          true,
	KeyGenUUID:          true,
	KeyGenAutoincrement: true,
}

// Table is the immutable descriptor for one table: its ancestor chain,
// primary key, declared columns, and relation descriptors. Tables are
// validated as a set by NewRegistry; a Table on its own makes no
// guarantees beyond what its fields state.
type Table struct {
	Name string `yaml:"name"`

	// Ancestors lists the inheritance chain root-first. The last entry
	// is the direct parent. Empty for a root table.
	Ancestors []string `yaml:"ancestors,omitempty"`

	// PrimaryKey names the key columns. Composite keys are allowed, but
	// a table participating in any triangular link (as host or as
	// satellite) is restricted to a single key column.
	PrimaryKey []string `yaml:"primary_key"`

	// KeyGen selects how new primary-key values are produced at insert
	// time for rows that do not carry one.
	KeyGen string `yaml:"key_gen,omitempty"`

	Columns []Column      `yaml:"columns"`
	SameAs  []SameAsGroup `yaml:"same_as,omitempty"`
	Links   []Link        `yaml:"links,omitempty"`
}

// Column returns the declared column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Link returns the triangular link declared on the given column, or nil.
func (t *Table) Link(column string) *Link {
	for i := range t.Links {
		if t.Links[i].Column == column {
			return &t.Links[i]
		}
	}
	return nil
}

// SameAsGroup returns the vertical same-as group whose source is the given
// column, or nil.
func (t *Table) SameAsGroup(column string) *SameAsGroup {
	for i := range t.SameAs {
		if t.SameAs[i].Column == column {
			return &t.SameAs[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether the named column is part of the primary key.
func (t *Table) IsPrimaryKey(column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}

// Parent returns the direct parent table name, or "" for a root table.
func (t *Table) Parent() string {
	if len(t.Ancestors) == 0 {
		return ""
	}
	return t.Ancestors[len(t.Ancestors)-1]
}

// hasAncestor reports whether name appears in the ancestor list.
func (t *Table) hasAncestor(name string) bool {
	for _, a := range t.Ancestors {
		if a == name {
			return true
		}
	}
	return false
}
