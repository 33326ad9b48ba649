package record

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/schema"
)

// chainRegistry builds the schema most record tests run against: a
// three-table chain a <- b <- c, a mandatory satellite s linked from b,
// and a discretionary satellite d linked from c.
//
//	a: aid (uuid key), a_note?, root_tag?, rev (generated)
//	b: bid (threaded key), b_field, s_id -> s (mandatory), s_tag?
//	   b_field same-as a.root_tag
//	   link pairs: s_tag <-> s.tag, bid <-> s.b_ref (back-propagated)
//	c: cid (threaded key), c_name, d_id? -> d (discretionary)
//	   c_name same-as a.a_note
//	   link pair: c_name <-> d.label
func chainRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		&schema.Table{
			Name:       "a",
			PrimaryKey: []string{"aid"},
			KeyGen:     schema.KeyGenUUID,
			Columns: []schema.Column{
				{Name: "aid", Type: schema.TypeText},
				{Name: "a_note", Type: schema.TypeText, Optional: true},
				{Name: "root_tag", Type: schema.TypeText, Optional: true},
				{Name: "rev", Type: schema.TypeInteger, Generated: true},
			},
		},
		&schema.Table{
			Name:       "s",
			PrimaryKey: []string{"sid"},
			KeyGen:     schema.KeyGenUUID,
			Columns: []schema.Column{
				{Name: "sid", Type: schema.TypeText},
				{Name: "tag", Type: schema.TypeText, Optional: true},
				{Name: "b_ref", Type: schema.TypeText, Optional: true},
			},
		},
		&schema.Table{
			Name:       "d",
			PrimaryKey: []string{"did"},
			KeyGen:     schema.KeyGenUUID,
			Columns: []schema.Column{
				{Name: "did", Type: schema.TypeText},
				{Name: "label", Type: schema.TypeText},
			},
		},
		&schema.Table{
			Name:       "b",
			Ancestors:  []string{"a"},
			PrimaryKey: []string{"bid"},
			Columns: []schema.Column{
				{Name: "bid", Type: schema.TypeText},
				{Name: "b_field", Type: schema.TypeText},
				{Name: "kind", Type: schema.TypeText, Default: "std", HasDefault: true},
				{Name: "s_id", Type: schema.TypeText},
				{Name: "s_tag", Type: schema.TypeText, Optional: true},
			},
			SameAs: []schema.SameAsGroup{{
				Column:  "b_field",
				Targets: []schema.SameAsTarget{{Table: "a", Column: "root_tag"}},
			}},
			Links: []schema.Link{{
				Column:         "s_id",
				Satellite:      "s",
				Mandatory:      true,
				HostColumns:    []string{"s_tag", "bid"},
				ForeignColumns: []string{"tag", "b_ref"},
				BackPropagate:  true,
			}},
		},
		&schema.Table{
			Name:       "c",
			Ancestors:  []string{"a", "b"},
			PrimaryKey: []string{"cid"},
			Columns: []schema.Column{
				{Name: "cid", Type: schema.TypeText},
				{Name: "c_name", Type: schema.TypeText},
				{Name: "d_id", Type: schema.TypeText, Optional: true},
			},
			SameAs: []schema.SameAsGroup{{
				Column:  "c_name",
				Targets: []schema.SameAsTarget{{Table: "a", Column: "a_note"}},
			}},
			Links: []schema.Link{{
				Column:         "d_id",
				Satellite:      "d",
				HostColumns:    []string{"c_name"},
				ForeignColumns: []string{"label"},
			}},
		},
	)
	require.NoError(t, err)
	return reg
}

// fakeStorage is an in-memory Storage and RowUpdater that records call
// order and generates sequential keys for rows arriving without one.
type fakeStorage struct {
	reg     *schema.Registry
	calls   []string
	rows    map[string][]Row
	updates int
	failOn  map[string]error
	seq     int
}

func newFakeStorage(reg *schema.Registry) *fakeStorage {
	return &fakeStorage{
		reg:    reg,
		rows:   make(map[string][]Row),
		failOn: make(map[string]error),
	}
}

func (f *fakeStorage) InsertRow(table string, values Row) (Row, error) {
	if err := f.failOn[table]; err != nil {
		return nil, err
	}
	t, err := f.reg.Table(table)
	if err != nil {
		return nil, err
	}
	row := make(Row, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	if len(t.PrimaryKey) == 1 {
		pk := t.PrimaryKey[0]
		if v, ok := row[pk]; !ok || v == nil {
			f.seq++
			row[pk] = fmt.Sprintf("%s-%d", table, f.seq)
		}
	}
	f.calls = append(f.calls, table)
	f.rows[table] = append(f.rows[table], row)
	return row, nil
}

func (f *fakeStorage) SelectFirst(table string, filter Filter) (Row, error) {
	for _, row := range f.rows[table] {
		if rowMatches(row, filter) {
			return copyRow(row), nil
		}
	}
	return nil, ErrRowNotFound
}

func (f *fakeStorage) SelectAll(table string, filter Filter) ([]Row, error) {
	var out []Row
	for _, row := range f.rows[table] {
		if rowMatches(row, filter) {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

func (f *fakeStorage) UpdateRow(table string, key Filter, values Row) error {
	if err := f.failOn[table]; err != nil {
		return err
	}
	for _, row := range f.rows[table] {
		if !rowMatches(row, key) {
			continue
		}
		for k, v := range values {
			row[k] = v
		}
		f.updates++
	}
	return nil
}

func rowMatches(row Row, filter Filter) bool {
	for k, v := range filter {
		if row[k] != v {
			return false
		}
	}
	return true
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// insertOnlyStorage hides fakeStorage's UpdateRow so tests can exercise
// the path where storage does not support back-propagation.
type insertOnlyStorage struct {
	f *fakeStorage
}

func (s insertOnlyStorage) InsertRow(table string, values Row) (Row, error) {
	return s.f.InsertRow(table, values)
}

func (s insertOnlyStorage) SelectFirst(table string, filter Filter) (Row, error) {
	return s.f.SelectFirst(table, filter)
}

func (s insertOnlyStorage) SelectAll(table string, filter Filter) ([]Row, error) {
	return s.f.SelectAll(table, filter)
}
