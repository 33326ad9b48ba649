package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/record"
)

func newOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order <table>",
		Short: "Print the insertion order for a table",
		Long: "Print the dependency order in which rows would be inserted for the\n" +
			"given leaf table: ancestors root-first, mandatory satellites\n" +
			"immediately before their host.",
		Args: cobra.ExactArgs(1),
		RunE: runOrder,
	}
}

func runOrder(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("load schema: %s", err))
	}

	order, err := record.InsertionOrder(reg, args[0])
	if err != nil {
		return exitError(cmd, exitUserError, fmt.Sprintf("resolve order: %s", err))
	}

	if flags.jsonMode {
		out, err := json.Marshal(map[string]any{"table": args[0], "order": order})
		if err != nil {
			return exitError(cmd, exitSysError, fmt.Sprintf("encode output: %s", err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(order, " -> "))
	return nil
}
