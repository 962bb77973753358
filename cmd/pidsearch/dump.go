// Dump and load commands for the pidsearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Export the store to JSONL files in the data directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "dump:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		identifiers, shoulders, err := backend.Dump()
		if err != nil {
			fmt.Fprintln(os.Stderr, "dump:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			report := map[string]int{
				"identifiers": identifiers,
				"shoulders":   shoulders,
			}
			if err := printJSON(report); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		fmt.Printf("Dumped %d identifiers, %d shoulders to %s\n", identifiers, shoulders, backend.DataDir())
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import JSONL dump files from the data directory",
	Long: `Load reads the dump files back into the store. Identifier records are
normalized and validated on the way in; malformed lines and invalid records
are skipped and counted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "load:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		applied, skipped, err := backend.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "load:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			report := map[string]int{
				"applied": applied,
				"skipped": skipped,
			}
			if err := printJSON(report); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		fmt.Printf("Loaded %d records (%d skipped)\n", applied, skipped)
		return nil
	},
}
