package record

import "github.com/mesh-intelligence/strata/pkg/schema"

// InsertedRow records one row produced during an insertion walk, in the
// order it reached storage.
type InsertedRow struct {
	Table string
	Row   Row
}

// Insert executes the completed builder against the storage collaborator
// and returns the fully populated leaf row. Rows are inserted outermost
// ancestor first, with each table's satellite subtrees immediately before
// its own row; generated keys thread forward into dependents. A storage
// failure aborts the walk immediately and surfaces as a StorageError;
// rows already inserted are not reverted — transactional rollback belongs
// to the storage layer.
func (c *Completed) Insert(st Storage) (Row, error) {
	var acc []InsertedRow
	return c.insertInto(st, &acc)
}

// InsertAll is Insert, additionally exposing every inserted row in
// insertion order. The leaf row is last.
func (c *Completed) InsertAll(st Storage) ([]InsertedRow, error) {
	var acc []InsertedRow
	if _, err := c.insertInto(st, &acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// insertInto walks this builder's chain root-to-leaf, appending every row
// it inserts (satellites included) to acc, and returns the leaf row.
func (c *Completed) insertInto(st Storage, acc *[]InsertedRow) (Row, error) {
	inserted := make(map[string]Row, len(c.bundles))
	var leafRow Row
	for _, cb := range c.bundles {
		row, err := cb.insert(st, c.reg, inserted, acc)
		if err != nil {
			return nil, err
		}
		inserted[cb.table.Name] = row
		leafRow = row
	}
	return leafRow, nil
}

// backProp records a deferred host-key write into a satellite row,
// applied after the host row exists.
type backProp struct {
	satellite string
	keyColumn string
	keyValue  any
	foreign   string
	host      string
}

// insert resolves and inserts one chain table's bundle: mandatory
// satellite subtrees, then supplied discretionary subtrees, then the
// table's own row, then any declared back-propagation.
func (cb *completedBundle) insert(st Storage, reg *schema.Registry, inserted map[string]Row, acc *[]InsertedRow) (Row, error) {
	t := cb.table
	pending := make(Row, len(cb.values))
	for k, v := range cb.values {
		pending[k] = v
	}

	var deferred []backProp
	resolve := func(l *schema.Link) error {
		satRow, err := cb.satelliteRow(st, l, acc)
		if err != nil || satRow == nil {
			return err
		}
		sat, err := reg.Table(l.Satellite)
		if err != nil {
			return err
		}
		satKey := sat.PrimaryKey[0]
		pending[l.Column] = satRow[satKey]

		hostPK := t.PrimaryKey[0]
		for i, hc := range l.HostColumns {
			if hc == hostPK {
				// The host key does not exist yet. The reverse copy, when
				// declared, runs after the host row is inserted.
				if l.BackPropagate && cb.satellites[l.Column] != nil {
					deferred = append(deferred, backProp{
						satellite: l.Satellite,
						keyColumn: satKey,
						keyValue:  satRow[satKey],
						foreign:   l.ForeignColumns[i],
						host:      hc,
					})
				}
				continue
			}
			if v, ok := pending[hc]; !ok || v == nil {
				pending[hc] = satRow[l.ForeignColumns[i]]
			}
		}
		return nil
	}

	for i := range t.Links {
		if t.Links[i].Mandatory {
			if err := resolve(&t.Links[i]); err != nil {
				return nil, err
			}
		}
	}
	for i := range t.Links {
		if !t.Links[i].Mandatory {
			if err := resolve(&t.Links[i]); err != nil {
				return nil, err
			}
		}
	}

	// Thread the primary key down the chain: a non-root table's key
	// columns take the direct parent's key values positionally.
	if parent := t.Parent(); parent != "" {
		parentTable, err := reg.Table(parent)
		if err != nil {
			return nil, err
		}
		parentRow := inserted[parent]
		for i, pk := range t.PrimaryKey {
			pending[pk] = parentRow[parentTable.PrimaryKey[i]]
		}
	}

	row, err := st.InsertRow(t.Name, pending)
	if err != nil {
		return nil, &StorageError{Table: t.Name, Err: err}
	}
	*acc = append(*acc, InsertedRow{Table: t.Name, Row: row})

	for _, d := range deferred {
		updater, ok := st.(RowUpdater)
		if !ok {
			break // best-effort: storage cannot update rows
		}
		err := updater.UpdateRow(d.satellite,
			Filter{d.keyColumn: d.keyValue},
			Row{d.foreign: row[d.host]})
		if err != nil {
			return nil, &StorageError{Table: d.satellite, Err: err}
		}
	}
	return row, nil
}

// satelliteRow produces the persisted satellite row for a link: nested
// builders insert their whole subtree first, existing references return
// as-is, and an unsatisfied discretionary link yields nil.
func (cb *completedBundle) satelliteRow(st Storage, l *schema.Link, acc *[]InsertedRow) (Row, error) {
	if nested := cb.satellites[l.Column]; nested != nil {
		return nested.insertInto(st, acc)
	}
	if ref := cb.refs[l.Column]; ref != nil {
		return ref, nil
	}
	return nil, nil
}
