// Package record implements the builder/bundle composition core of the
// strata engine. A Builder wraps one bundle per table in a leaf table's
// ancestor chain; column writes route to the owning bundle and fan out
// through vertical same-as groups, satellite builders attach under
// triangular link columns, completion converts the mutable form into a
// validated Completed structure, and insertion walks that structure in
// dependency order against a Storage collaborator, threading generated
// keys forward.
package record
