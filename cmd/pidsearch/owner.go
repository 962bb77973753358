// Owner commands for the pidsearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Query identifiers by owning agent",
}

func init() {
	ownerCmd.AddCommand(ownerFindCmd)
}

var ownerFindCmd = &cobra.Command{
	Use:   "find <agent>",
	Short: "List identifiers owned or co-owned by an agent",
	Long: `Find lists every identifier whose owner or co-owner list includes the
given agent identifier, in lexical order.

Example:
  pidsearch owner find ark:/99166/p92z12p14`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "owner find:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableIdentifiers)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		entities, err := table.Fetch(map[string]any{"owner": args[0]})
		if err != nil {
			fmt.Fprintln(os.Stderr, "fetch identifiers:", err)
			os.Exit(exitSysError)
		}

		return printIdentifierList(entities)
	},
}
