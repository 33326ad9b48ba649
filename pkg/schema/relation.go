package schema

// SameAsTarget names one ancestor column that receives a propagated value.
type SameAsTarget struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// SameAsGroup declares vertical same-as propagation: when Column is set on
// a builder for the owning table, the same value is also written into each
// target ancestor's own bundle. Every target table must appear in the
// owning table's ancestor chain and every target column must share the
// source column's value type.
type SameAsGroup struct {
	Column  string         `yaml:"column"`
	Targets []SameAsTarget `yaml:"targets"`
}

// Link declares a triangular relation: Column on the host table is a
// foreign key into the satellite table's single-column primary key. The
// HostColumns/ForeignColumns pairs are equality constraints between host
// and satellite, value-for-value in declared order, applied when the
// satellite record is built through the host builder.
type Link struct {
	Column    string `yaml:"column"`
	Satellite string `yaml:"satellite"`

	// Mandatory links must be resolved (built or referenced) before the
	// host record completes; discretionary links may be left unset, in
	// which case the host's raw column value can be set directly.
	Mandatory bool `yaml:"mandatory,omitempty"`

	HostColumns    []string `yaml:"host_columns,omitempty"`
	ForeignColumns []string `yaml:"foreign_columns,omitempty"`

	// BackPropagate requests that a pair whose host column is the host
	// table's own primary key be written back into the already-inserted
	// satellite row once the host row exists. Best-effort: it runs only
	// when the storage collaborator supports row updates.
	BackPropagate bool `yaml:"back_propagate,omitempty"`
}

// hostPairIndex returns the index of the host/foreign pair whose host
// column is the given primary-key column, or -1 when no such pair exists.
func (l *Link) hostPairIndex(pkColumn string) int {
	for i, hc := range l.HostColumns {
		if hc == pkColumn {
			return i
		}
	}
	return -1
}

// DeferredPair returns the host/foreign column pair that must wait until
// the host row is inserted, because its host side is the host table's own
// primary key. The second result is false when the link declares no such
// pair.
func (l *Link) DeferredPair(pkColumn string) (host, foreign string, ok bool) {
	i := l.hostPairIndex(pkColumn)
	if i < 0 {
		return "", "", false
	}
	return l.HostColumns[i], l.ForeignColumns[i], true
}
