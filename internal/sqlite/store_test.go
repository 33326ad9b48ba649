package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/record"
	"github.com/mesh-intelligence/strata/pkg/schema"
)

// testRegistry builds the schema the store tests run against: a
// device <- switch chain with a mandatory vendor satellite, plus an
// autoincrement-keyed readings table covering every value type.
func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		&schema.Table{
			Name:       "device",
			PrimaryKey: []string{"device_id"},
			KeyGen:     schema.KeyGenUUID,
			Columns: []schema.Column{
				{Name: "device_id", Type: schema.TypeText},
				{Name: "site", Type: schema.TypeText, Optional: true},
			},
		},
		&schema.Table{
			Name:       "vendor",
			PrimaryKey: []string{"vendor_id"},
			KeyGen:     schema.KeyGenUUID,
			Columns: []schema.Column{
				{Name: "vendor_id", Type: schema.TypeText},
				{Name: "site", Type: schema.TypeText, Optional: true},
				{Name: "name", Type: schema.TypeText},
			},
		},
		&schema.Table{
			Name:       "switch",
			Ancestors:  []string{"device"},
			PrimaryKey: []string{"switch_id"},
			Columns: []schema.Column{
				{Name: "switch_id", Type: schema.TypeText},
				{Name: "model", Type: schema.TypeText},
				{Name: "vendor_id", Type: schema.TypeText},
				{Name: "vendor_site", Type: schema.TypeText, Optional: true},
			},
			Links: []schema.Link{{
				Column:         "vendor_id",
				Satellite:      "vendor",
				Mandatory:      true,
				HostColumns:    []string{"vendor_site"},
				ForeignColumns: []string{"site"},
			}},
		},
		&schema.Table{
			Name:       "reading",
			PrimaryKey: []string{"seq"},
			KeyGen:     schema.KeyGenAutoincrement,
			Columns: []schema.Column{
				{Name: "seq", Type: schema.TypeInteger, Generated: true},
				{Name: "sensor", Type: schema.TypeText},
				{Name: "value", Type: schema.TypeReal},
				{Name: "ok", Type: schema.TypeBoolean},
				{Name: "at", Type: schema.TypeTimestamp},
			},
		},
	)
	require.NoError(t, err)
	return reg
}

func openStore(t *testing.T, reg *schema.Registry) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"), reg)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenReopen(t *testing.T) {
	reg := testRegistry(t)
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path, reg)
	require.NoError(t, err)
	_, err = st.InsertRow("vendor", record.Row{"name": "acme", "site": nil})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Reopening an initialized database keeps existing rows.
	st, err = Open(path, reg)
	require.NoError(t, err)
	defer st.Close()
	rows, err := st.SelectAll("vendor", record.Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.NoError(t, st.Close())
	assert.NoError(t, st.Close(), "double close is a no-op")
}

func TestInsertRowGeneratesUUIDKey(t *testing.T) {
	reg := testRegistry(t)
	st := openStore(t, reg)

	row, err := st.InsertRow("vendor", record.Row{"name": "acme", "site": "fremont"})
	require.NoError(t, err)
	key, ok := row["vendor_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, key)
	assert.Equal(t, "acme", row["name"])

	// A caller-supplied key is kept as-is.
	row, err = st.InsertRow("vendor", record.Row{"vendor_id": "v-1", "name": "other", "site": nil})
	require.NoError(t, err)
	assert.Equal(t, "v-1", row["vendor_id"])
}

func TestInsertRowAutoincrementKey(t *testing.T) {
	reg := testRegistry(t)
	st := openStore(t, reg)
	at := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)

	first, err := st.InsertRow("reading", record.Row{"sensor": "psu", "value": 11.9, "ok": true, "at": at})
	require.NoError(t, err)
	second, err := st.InsertRow("reading", record.Row{"sensor": "fan", "value": 0.0, "ok": false, "at": at})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first["seq"])
	assert.Equal(t, int64(2), second["seq"])
}

func TestValueTypesSurviveStorage(t *testing.T) {
	reg := testRegistry(t)
	st := openStore(t, reg)
	at := time.Date(2026, 8, 25, 10, 30, 0, 123456789, time.UTC)

	_, err := st.InsertRow("reading", record.Row{"sensor": "psu", "value": 11.9, "ok": true, "at": at})
	require.NoError(t, err)

	row, err := st.SelectFirst("reading", record.Filter{"sensor": "psu"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["seq"])
	assert.Equal(t, "psu", row["sensor"])
	assert.Equal(t, 11.9, row["value"])
	assert.Equal(t, true, row["ok"])
	ts, ok := row["at"].(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(at), "timestamp survives with nanosecond precision")
}

func TestInsertRowCompositeKey(t *testing.T) {
	reg, err := schema.NewRegistry(&schema.Table{
		Name:       "port",
		PrimaryKey: []string{"station", "slot"},
		Columns: []schema.Column{
			{Name: "station", Type: schema.TypeText},
			{Name: "slot", Type: schema.TypeInteger},
			{Name: "label", Type: schema.TypeText},
		},
	})
	require.NoError(t, err)
	st := openStore(t, reg)

	first, err := st.InsertRow("port", record.Row{"station": "a", "slot": 1, "label": "uplink"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first["slot"])

	// The read-back must key on every primary-key column: a second row
	// sharing the first key component is its own row, not the first one.
	second, err := st.InsertRow("port", record.Row{"station": "a", "slot": 2, "label": "access"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second["slot"])
	assert.Equal(t, "access", second["label"])

	got, err := st.SelectFirst("port", record.Filter{"station": "a", "slot": 2})
	require.NoError(t, err)
	assert.Equal(t, "access", got["label"])

	// A composite key cannot be generated; an incomplete key is rejected.
	_, err = st.InsertRow("port", record.Row{"station": "a", "label": "broken"})
	assert.Error(t, err)
}

func TestSelectFirstNotFound(t *testing.T) {
	reg := testRegistry(t)
	st := openStore(t, reg)

	_, err := st.SelectFirst("vendor", record.Filter{"name": "absent"})
	assert.ErrorIs(t, err, record.ErrRowNotFound)
}

func TestSelectAllFilters(t *testing.T) {
	reg := testRegistry(t)
	st := openStore(t, reg)

	for _, v := range []record.Row{
		{"name": "acme", "site": "fremont"},
		{"name": "acme", "site": nil},
		{"name": "zeta", "site": "fremont"},
	} {
		_, err := st.InsertRow("vendor", v)
		require.NoError(t, err)
	}

	rows, err := st.SelectAll("vendor", record.Filter{"name": "acme"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// A nil filter value matches stored nulls.
	rows, err = st.SelectAll("vendor", record.Filter{"site": nil})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "acme", rows[0]["name"])

	rows, err = st.SelectAll("vendor", record.Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = st.SelectAll("vendor", record.Filter{"ghost": 1})
	assert.ErrorIs(t, err, schema.ErrUnknownColumn)

	_, err = st.SelectAll("ghost", record.Filter{})
	assert.ErrorIs(t, err, schema.ErrTableNotFound)
}

func TestUpdateRow(t *testing.T) {
	reg := testRegistry(t)
	st := openStore(t, reg)

	row, err := st.InsertRow("vendor", record.Row{"name": "acme", "site": nil})
	require.NoError(t, err)

	err = st.UpdateRow("vendor", record.Filter{"vendor_id": row["vendor_id"]}, record.Row{"site": "fremont"})
	require.NoError(t, err)

	got, err := st.SelectFirst("vendor", record.Filter{"vendor_id": row["vendor_id"]})
	require.NoError(t, err)
	assert.Equal(t, "fremont", got["site"])

	// No recognized columns to set is a no-op, not an error.
	assert.NoError(t, st.UpdateRow("vendor", record.Filter{}, record.Row{"ghost": 1}))
}

// TestBuilderInsertEndToEnd drives a composed record through the real
// store: chain threading, satellite key assignment, and the read path.
func TestBuilderInsertEndToEnd(t *testing.T) {
	reg := testRegistry(t)
	st := openStore(t, reg)

	b, err := record.New(reg, "switch")
	require.NoError(t, err)
	require.NoError(t, b.Set("model", "x670"))
	require.NoError(t, b.Set("site", "fremont"))

	vendor, err := record.New(reg, "vendor")
	require.NoError(t, err)
	require.NoError(t, vendor.Set("name", "acme"))
	require.NoError(t, vendor.Set("site", "fremont"))
	require.NoError(t, b.SetLink("vendor_id", vendor))

	completed, err := b.Complete()
	require.NoError(t, err)
	rows, err := completed.InsertAll(st)
	require.NoError(t, err)

	tables := make([]string, len(rows))
	for i, r := range rows {
		tables[i] = r.Table
	}
	require.Equal(t, []string{"device", "vendor", "switch"}, tables)

	leaf := rows[2].Row
	assert.Equal(t, rows[0].Row["device_id"], leaf["switch_id"], "chain key threads from device")
	assert.Equal(t, rows[1].Row["vendor_id"], leaf["vendor_id"], "link column carries the satellite key")
	assert.Equal(t, "fremont", leaf["vendor_site"])

	// The triangular read path recovers the satellite from the leaf row.
	satRow, err := record.LookupFirst(st, reg, "switch", "vendor_id", leaf)
	require.NoError(t, err)
	assert.Equal(t, "acme", satRow["name"])
}
