// Package sqlite implements the strata storage collaborator on SQLite.
// The store is schema-driven: table DDL, insert statements, and read
// queries are all derived from the registry descriptors, so any validated
// schema works without hand-written table code.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/strata/pkg/record"
	"github.com/mesh-intelligence/strata/pkg/schema"
)

// Compile-time interface checks.
var (
	_ record.Storage    = (*Store)(nil)
	_ record.RowUpdater = (*Store)(nil)
)

// Store executes inserts, selects, and back-propagation updates against a
// SQLite database whose tables were created from a schema registry.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	reg *schema.Registry
}

// Open opens (or creates) the database at path and materializes the
// registry's tables. Existing tables are left in place; DDL uses
// CREATE TABLE IF NOT EXISTS, so reopening an initialized database is
// safe.
func Open(path string, reg *schema.Registry) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	ddl, err := SchemaDDL(reg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Store{db: db, reg: reg}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// newUUID generates a UUID v7 string for generated keys.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// InsertRow inserts one row and returns it fully populated, including
// generated key columns. UUID keys are generated here; autoincrement keys
// are assigned by SQLite and read back.
func (s *Store) InsertRow(table string, values record.Row) (record.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.reg.Table(table)
	if err != nil {
		return nil, err
	}

	pending := make(record.Row, len(values))
	for k, v := range values {
		pending[k] = v
	}

	if t.KeyGen == schema.KeyGenUUID {
		pk := t.PrimaryKey[0]
		if v, ok := pending[pk]; !ok || v == nil {
			pending[pk] = newUUID()
		}
	}

	var cols []string
	var placeholders []string
	var args []any
	for i := range t.Columns {
		c := &t.Columns[i]
		v, ok := pending[c.Name]
		if !ok {
			continue
		}
		cols = append(cols, c.Name)
		placeholders = append(placeholders, "?")
		args = append(args, toDriver(c.Type, v))
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("inserting into %s: no column values", table)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", table, err)
	}

	key := make(record.Filter, len(t.PrimaryKey))
	for _, name := range t.PrimaryKey {
		v, ok := pending[name]
		if !ok || v == nil {
			// The registry restricts generated keys to single-column
			// primary keys, so a composite key arrives fully supplied.
			if len(t.PrimaryKey) != 1 {
				return nil, fmt.Errorf("inserting into %s: missing key column %s", table, name)
			}
			// Autoincrement key assigned by SQLite.
			id, err := res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("reading generated key for %s: %w", table, err)
			}
			v = id
		}
		key[name] = v
	}

	return s.selectByKey(t, key)
}

// SelectFirst returns the first row matching the filter, or
// record.ErrRowNotFound when none matches.
func (s *Store) SelectFirst(table string, filter record.Filter) (record.Row, error) {
	rows, err := s.selectRows(table, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, record.ErrRowNotFound
	}
	return rows[0], nil
}

// SelectAll returns every row matching the filter. An empty filter
// matches the whole table.
func (s *Store) SelectAll(table string, filter record.Filter) ([]record.Row, error) {
	return s.selectRows(table, filter, 0)
}

// UpdateRow sets the given column values on the rows matching key.
// Implements record.RowUpdater for link back-propagation.
func (s *Store) UpdateRow(table string, key record.Filter, values record.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.reg.Table(table)
	if err != nil {
		return err
	}

	var sets []string
	var args []any
	for i := range t.Columns {
		c := &t.Columns[i]
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		sets = append(sets, c.Name+" = ?")
		args = append(args, toDriver(c.Type, v))
	}
	if len(sets) == 0 {
		return nil
	}

	conds, condArgs, err := buildConditions(t, key)
	if err != nil {
		return err
	}
	args = append(args, condArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("updating %s: %w", table, err)
	}
	return nil
}

// selectByKey reads a single row back by its full primary key, one
// condition per key column. The caller must hold the write lock.
func (s *Store) selectByKey(t *schema.Table, key record.Filter) (record.Row, error) {
	query, scanCols := selectQuery(t)
	conds, args, err := buildConditions(t, key)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(query+" WHERE "+strings.Join(conds, " AND "), args...)
	r, err := scanRow(t, scanCols, row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, record.ErrRowNotFound
		}
		return nil, fmt.Errorf("reading back %s row: %w", t.Name, err)
	}
	return r, nil
}

// selectRows runs a filtered select. A limit of 0 means no limit.
func (s *Store) selectRows(table string, filter record.Filter, limit int) ([]record.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.reg.Table(table)
	if err != nil {
		return nil, err
	}

	query, scanCols := selectQuery(t)
	conds, args, err := buildConditions(t, filter)
	if err != nil {
		return nil, err
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting from %s: %w", table, err)
	}
	defer rows.Close()

	var results []record.Row
	for rows.Next() {
		r, err := scanRow(t, scanCols, rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}
	return results, nil
}

// selectQuery builds the SELECT clause listing every declared column in
// order, and returns the matching column descriptors for scanning.
func selectQuery(t *schema.Table) (string, []*schema.Column) {
	names := make([]string, len(t.Columns))
	cols := make([]*schema.Column, len(t.Columns))
	for i := range t.Columns {
		names[i] = t.Columns[i].Name
		cols[i] = &t.Columns[i]
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), t.Name), cols
}

// buildConditions turns a filter into WHERE conditions and args, in the
// table's declared column order for determinism.
func buildConditions(t *schema.Table, filter record.Filter) ([]string, []any, error) {
	var conds []string
	var args []any
	for i := range t.Columns {
		c := &t.Columns[i]
		v, ok := filter[c.Name]
		if !ok {
			continue
		}
		if v == nil {
			conds = append(conds, c.Name+" IS NULL")
			continue
		}
		conds = append(conds, c.Name+" = ?")
		args = append(args, toDriver(c.Type, v))
	}
	if len(conds) != len(filter) {
		return nil, nil, schema.ErrUnknownColumn
	}
	return conds, args, nil
}

// scanRow scans one result row into a record.Row, converting driver
// values back to the canonical in-memory representation.
func scanRow(t *schema.Table, cols []*schema.Column, scan func(...any) error) (record.Row, error) {
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := scan(ptrs...); err != nil {
		return nil, err
	}
	r := make(record.Row, len(cols))
	for i, c := range cols {
		v, err := fromDriver(c.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		r[c.Name] = v
	}
	return r, nil
}

// toDriver converts a canonical value to its SQLite representation.
// Timestamps are stored as RFC3339 text, booleans as 0/1 integers.
func toDriver(valueType string, v any) any {
	if v == nil {
		return nil
	}
	switch valueType {
	case schema.TypeTimestamp:
		if ts, ok := v.(time.Time); ok {
			return ts.UTC().Format(time.RFC3339Nano)
		}
	case schema.TypeBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return int64(1)
			}
			return int64(0)
		}
	}
	return v
}

// fromDriver converts a scanned SQLite value back to the canonical
// in-memory representation for the column's value type.
func fromDriver(valueType string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch valueType {
	case schema.TypeText:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case schema.TypeInteger:
		if n, ok := v.(int64); ok {
			return n, nil
		}
	case schema.TypeReal:
		switch f := v.(type) {
		case float64:
			return f, nil
		case int64:
			return float64(f), nil
		}
	case schema.TypeBoolean:
		if n, ok := v.(int64); ok {
			return n != 0, nil
		}
	case schema.TypeTimestamp:
		var s string
		switch raw := v.(type) {
		case string:
			s = raw
		case []byte:
			s = string(raw)
		default:
			return nil, fmt.Errorf("unexpected timestamp representation %T", v)
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		return ts, nil
	}
	return nil, fmt.Errorf("unexpected %s representation %T", valueType, v)
}
