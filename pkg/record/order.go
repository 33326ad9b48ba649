package record

import "github.com/mesh-intelligence/strata/pkg/schema"

// InsertionOrder returns the deterministic table order a completed builder
// for the given leaf would insert, assuming every mandatory link is built
// through a nested builder and every discretionary link is left unset.
// Each chain table is preceded by the full insertion order of its
// mandatory satellites.
func InsertionOrder(reg *schema.Registry, table string) ([]string, error) {
	chain, err := reg.Chain(table)
	if err != nil {
		return nil, err
	}
	var order []string
	for _, t := range chain {
		for i := range t.Links {
			l := &t.Links[i]
			if !l.Mandatory {
				continue
			}
			nested, err := InsertionOrder(reg, l.Satellite)
			if err != nil {
				return nil, err
			}
			order = append(order, nested...)
		}
		order = append(order, t.Name)
	}
	return order, nil
}
