// Config loading for the strata CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/strata/internal/paths"
	"github.com/mesh-intelligence/strata/pkg/schema"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeySchema   = "schema"
	cfgKeyDatabase = "database"

	// Default schema file name inside the config directory.
	defaultSchemaFile = "schema.yaml"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Strata CLI configuration

# Schema definition file (default: schema.yaml next to this file)
# schema:

# Database file (optional; overridable by --database flag)
# database:
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory. Idempotent.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveSchemaPath returns the schema definition file path following the
// precedence chain: flag > config.yaml > <config-dir>/schema.yaml.
func resolveSchemaPath(configDir string, v *viper.Viper) string {
	if flags.schemaPath != "" {
		return flags.schemaPath
	}
	if p := v.GetString(cfgKeySchema); p != "" {
		return p
	}
	return filepath.Join(configDir, defaultSchemaFile)
}

// loadRegistry resolves the config directory and schema path, then loads
// and validates the schema definition.
func loadRegistry() (*schema.Registry, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	return schema.LoadFile(resolveSchemaPath(configDir, v))
}

// resolveDatabase returns the database file path from flag, config, env,
// or the CWD-relative default.
func resolveDatabase() (string, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return "", err
	}
	return paths.ResolveDatabase(flags.database, v.GetString(cfgKeyDatabase))
}
