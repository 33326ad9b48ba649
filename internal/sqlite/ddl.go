package sqlite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/schema"
)

// sqliteType maps a column value type to its SQLite storage class.
func sqliteType(valueType string) string {
	switch valueType {
	case schema.TypeInteger, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeReal:
		return "REAL"
	default:
		// Text and timestamps (RFC3339) are stored as TEXT.
		return "TEXT"
	}
}

// SchemaDDL renders CREATE TABLE statements for every registered table,
// ordered so that each table's ancestors and satellites are created
// before it (foreign keys reference only existing tables).
func SchemaDDL(reg *schema.Registry) (string, error) {
	order, err := CreateOrder(reg)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, name := range order {
		t, err := reg.Table(name)
		if err != nil {
			return "", err
		}
		ddl, err := tableDDL(reg, t)
		if err != nil {
			return "", err
		}
		b.WriteString(ddl)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// CreateOrder returns a deterministic topological order of the registered
// tables: ancestors and satellites strictly before their dependents, ties
// broken alphabetically.
func CreateOrder(reg *schema.Registry) ([]string, error) {
	names := reg.Tables()
	sort.Strings(names)

	deps := make(map[string][]string, len(names))
	for _, name := range names {
		t, err := reg.Table(name)
		if err != nil {
			return nil, err
		}
		var d []string
		d = append(d, t.Ancestors...)
		for i := range t.Links {
			d = append(d, t.Links[i].Satellite)
		}
		deps[name] = d
	}

	order := make([]string, 0, len(names))
	done := make(map[string]bool, len(names))
	var visit func(name string)
	visit = func(name string) {
		if done[name] {
			return
		}
		done[name] = true
		for _, d := range deps[name] {
			visit(d)
		}
		order = append(order, name)
	}
	for _, name := range names {
		visit(name)
	}
	return order, nil
}

// tableDDL renders one CREATE TABLE IF NOT EXISTS statement with primary
// key, ancestor foreign keys, and satellite link foreign keys.
func tableDDL(reg *schema.Registry, t *schema.Table) (string, error) {
	var defs []string

	autoincrement := t.KeyGen == schema.KeyGenAutoincrement && len(t.PrimaryKey) == 1
	for i := range t.Columns {
		c := &t.Columns[i]
		def := fmt.Sprintf("    %s %s", c.Name, sqliteType(c.Type))
		switch {
		case autoincrement && c.Name == t.PrimaryKey[0]:
			def += " PRIMARY KEY AUTOINCREMENT"
		case !c.Optional && !c.Generated:
			// Required columns are constrained at the storage level too;
			// generated columns stay nullable because the engine never
			// supplies them.
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	if !autoincrement {
		defs = append(defs, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(t.PrimaryKey, ", ")))
	}

	if parentName := t.Parent(); parentName != "" {
		parent, err := reg.Table(parentName)
		if err != nil {
			return "", err
		}
		defs = append(defs, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
			strings.Join(t.PrimaryKey, ", "), parentName, strings.Join(parent.PrimaryKey, ", ")))
	}
	for i := range t.Links {
		l := &t.Links[i]
		sat, err := reg.Table(l.Satellite)
		if err != nil {
			return "", err
		}
		defs = append(defs, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
			l.Column, l.Satellite, sat.PrimaryKey[0]))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);\n",
		t.Name, strings.Join(defs, ",\n")), nil
}
