package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the schema definition",
		Long:  "Load the schema definition file and run full registry validation.",
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		if flags.jsonMode {
			out, _ := json.Marshal(map[string]any{"valid": false, "error": err.Error()})
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}
		return exitError(cmd, exitUserError, fmt.Sprintf("schema invalid: %s", err))
	}

	tables := reg.Tables()
	sort.Strings(tables)

	if flags.jsonMode {
		out, err := json.Marshal(map[string]any{"valid": true, "tables": tables})
		if err != nil {
			return exitError(cmd, exitSysError, fmt.Sprintf("encode output: %s", err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Schema valid: %d tables\n", len(tables))
	for _, t := range tables {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", t)
	}
	return nil
}
