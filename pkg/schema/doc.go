// Package schema defines the descriptor model for the strata engine:
// tables with ancestor chains, typed columns, vertical same-as groups,
// triangular satellite links, and the Registry that validates a complete
// schema once at load time. Descriptors are produced externally (declared
// in code or loaded from a YAML definition file) and are immutable after
// registry construction; the engine only interprets them.
package schema
