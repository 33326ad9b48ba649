package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/internal/paths"
	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/schema"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize strata configuration and storage",
		Long: "Create the configuration directory and config.yaml, then materialize\n" +
			"the schema's tables in the database if a schema definition exists.",
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config dir: %s", err))
	}
	if err := ensureConfigDir(configDir); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("create config directory: %s", err))
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("write config: %s", err))
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("load config: %s", err))
	}

	schemaPath := resolveSchemaPath(configDir, v)
	if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(),
			"Configuration initialized in %s\nNo schema definition at %s; add one and run init again to create tables\n",
			configDir, schemaPath)
		return nil
	}

	reg, err := schema.LoadFile(schemaPath)
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("load schema: %s", err))
	}

	dbPath, err := paths.ResolveDatabase(flags.database, v.GetString(cfgKeyDatabase))
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve database: %s", err))
	}
	store, err := sqlite.Open(dbPath, reg)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	if err := store.Close(); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("finalize storage: %s", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Strata initialized: %d tables in %s\n", len(reg.Tables()), dbPath)
	return nil
}
