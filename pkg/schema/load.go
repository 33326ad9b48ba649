package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionFile is the YAML layout of a schema definition file.
type definitionFile struct {
	Tables []*Table `yaml:"tables"`
}

// Parse unmarshals a YAML schema definition and returns a validated
// Registry. Integer and float defaults are normalized to the canonical
// in-memory representation before validation.
func Parse(data []byte) (*Registry, error) {
	var def definitionFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing schema definition: %w", err)
	}
	for _, t := range def.Tables {
		for i := range t.Columns {
			c := &t.Columns[i]
			if c.Default != nil {
				c.Default = NormalizeValue(c.Type, c.Default)
				c.HasDefault = true
			}
		}
	}
	return NewRegistry(def.Tables...)
}

// LoadFile reads and parses a YAML schema definition file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}
