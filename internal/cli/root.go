// Package cli implements the strata command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir  string
	schemaPath string
	database   string
	jsonMode   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "strata" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strata",
		Short: "Hierarchical record composition for relational storage",
		Long: "Strata composes and inserts hierarchical records: leaf tables with\n" +
			"inherited ancestor chains and triangular satellite links, validated\n" +
			"and inserted in dependency order.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .strata)")
	root.PersistentFlags().StringVar(&flags.schemaPath, "schema", "", "schema definition file (default: <config-dir>/schema.yaml)")
	root.PersistentFlags().StringVar(&flags.database, "database", "", "database file (default: strata.db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newOrderCmd())
	root.AddCommand(newInsertCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// exitError prints the error to stderr and returns an error carrying the
// message, so cobra reports failure without reprinting usage.
func exitError(cmd *cobra.Command, code int, msg string) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", msg)
	return fmt.Errorf("%s", msg)
}
