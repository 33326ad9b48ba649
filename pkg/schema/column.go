package schema

import "time"

// Column value types. Every declared column carries exactly one of these.
const (
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeReal      = "real"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp"
)

// validValueTypes is the set of recognized column value types.
var validValueTypes = map[string]bool{
	TypeText:      true,
	TypeInteger:   true,
	TypeReal:      true,
	TypeBoolean:   true,
	TypeTimestamp: true,
}

// IsValidValueType reports whether t is a recognized column value type.
func IsValidValueType(t string) bool {
	return validValueTypes[t]
}

// Column describes one declared column of a table. A column belongs to
// exactly one table; relation tags referencing it live on the owning
// Table's SameAs and Links lists.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Optional marks a user-settable column that may remain unset; at
	// completion an unset optional column resolves to an explicit null.
	Optional bool `yaml:"optional,omitempty"`

	// Default is materialized at completion when the column is still
	// unset. A column with a default is never reported missing.
	Default    any  `yaml:"default,omitempty"`
	HasDefault bool `yaml:"has_default,omitempty"`

	// Generated marks a column whose value is produced by the storage
	// collaborator at insert time (for example an autoincrement key).
	// Generated columns cannot be set through a builder.
	Generated bool `yaml:"generated,omitempty"`
}

// ValueMatchesType reports whether v is an acceptable in-memory value for
// a column of the given value type. A nil value is acceptable for every
// type; optionality is enforced separately at completion.
func ValueMatchesType(valueType string, v any) bool {
	if v == nil {
		return true
	}
	switch valueType {
	case TypeText:
		_, ok := v.(string)
		return ok
	case TypeInteger:
		switch v.(type) {
		case int, int32, int64:
			return true
		}
		return false
	case TypeReal:
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeTimestamp:
		_, ok := v.(time.Time)
		return ok
	default:
		return false
	}
}

// NormalizeValue converts v to the canonical in-memory representation for
// the given value type (int64 for integers, float64 for reals). Values
// already in canonical form pass through unchanged.
func NormalizeValue(valueType string, v any) any {
	if v == nil {
		return nil
	}
	switch valueType {
	case TypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n)
		case int32:
			return int64(n)
		}
	case TypeReal:
		switch f := v.(type) {
		case float32:
			return float64(f)
		case int:
			return float64(f)
		case int64:
			return float64(f)
		}
	}
	return v
}
