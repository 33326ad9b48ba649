package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/record"
	"github.com/mesh-intelligence/strata/pkg/schema"
)

// recordDoc is the JSON layout accepted by the insert command. Nested
// link documents recurse; refs attach existing satellite rows by key.
type recordDoc struct {
	Values map[string]any       `json:"values"`
	Links  map[string]recordDoc `json:"links,omitempty"`
	Refs   map[string]any       `json:"refs,omitempty"`
}

func newInsertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Compose and insert a record from a JSON document",
		Long: "Build a record for the given leaf table from a JSON document\n" +
			"(column values plus nested satellite documents), validate it, and\n" +
			"insert the whole hierarchy in dependency order.",
		Args: cobra.ExactArgs(1),
		RunE: runInsert,
	}
	cmd.Flags().StringP("file", "f", "", "JSON record document (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runInsert(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("load schema: %s", err))
	}

	file, _ := cmd.Flags().GetString("file")
	data, err := os.ReadFile(file)
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("read record document: %s", err))
	}
	var doc recordDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("parse record document: %s", err))
	}

	dbPath, err := resolveDatabase()
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve database: %s", err))
	}
	store, err := sqlite.Open(dbPath, reg)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("open storage: %s", err))
	}
	defer store.Close()

	builder, err := buildFromDoc(reg, store, args[0], doc)
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("build record: %s", err))
	}
	completed, err := builder.Complete()
	if err != nil {
		return exitError(cmd, exitUserError, err.Error())
	}
	leaf, err := completed.Insert(store)
	if err != nil {
		return exitError(cmd, exitSysError, err.Error())
	}

	out, err := json.Marshal(printableRow(leaf))
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("encode output: %s", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// buildFromDoc turns a record document into a builder, recursing through
// nested link documents and resolving refs via the storage read path.
func buildFromDoc(reg *schema.Registry, st record.Storage, table string, doc recordDoc) (*record.Builder, error) {
	b, err := record.New(reg, table)
	if err != nil {
		return nil, err
	}
	for column, raw := range doc.Values {
		v, err := coerceJSON(reg, table, column, raw)
		if err != nil {
			return nil, err
		}
		if err := b.TrySet(column, v); err != nil {
			return nil, err
		}
	}
	for column, nested := range doc.Links {
		satellite, err := linkSatellite(reg, table, column)
		if err != nil {
			return nil, err
		}
		sat, err := buildFromDoc(reg, st, satellite, nested)
		if err != nil {
			return nil, err
		}
		if err := b.SetLink(column, sat); err != nil {
			return nil, err
		}
	}
	for column, key := range doc.Refs {
		if err := b.ResolveLink(st, column, key); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// linkSatellite resolves the satellite table of a link column declared
// anywhere in the leaf's chain.
func linkSatellite(reg *schema.Registry, table, column string) (string, error) {
	chain, err := reg.Chain(table)
	if err != nil {
		return "", err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if l := chain[i].Link(column); l != nil {
			return l.Satellite, nil
		}
	}
	return "", record.ErrNotLinkColumn
}

// coerceJSON converts a decoded JSON value to the canonical in-memory
// representation for the column's declared value type.
func coerceJSON(reg *schema.Registry, table, column string, v any) (any, error) {
	chain, err := reg.Chain(table)
	if err != nil {
		return nil, err
	}
	var col *schema.Column
	for i := len(chain) - 1; i >= 0; i-- {
		if c := chain[i].Column(column); c != nil {
			col = c
			break
		}
	}
	if col == nil {
		return nil, record.ErrUnknownColumn
	}
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case schema.TypeInteger:
		if f, ok := v.(float64); ok {
			return int64(f), nil
		}
	case schema.TypeTimestamp:
		if s, ok := v.(string); ok {
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", column, err)
			}
			return ts, nil
		}
	}
	return v, nil
}

// printableRow converts a row to JSON-friendly values (timestamps as
// RFC3339 strings).
func printableRow(r record.Row) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if ts, ok := v.(time.Time); ok {
			out[k] = ts.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[k] = v
	}
	return out
}
