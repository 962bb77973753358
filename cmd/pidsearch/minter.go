// Minter administration commands for the pidsearch CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pidsearch/internal/minter"
)

var minterCmd = &cobra.Command{
	Use:   "minter",
	Short: "Administer minter state",
}

func init() {
	minterCmd.AddCommand(minterCreateCmd)
	minterCmd.AddCommand(minterListCmd)
	minterCmd.AddCommand(minterShowCmd)
	minterCmd.AddCommand(minterRemoveCmd)
}

var minterCreateCmd = &cobra.Command{
	Use:   "create <name> <template>",
	Short: "Register a new minter",
	Long: `Create registers minter state under the given name. The template names
the fixed prefix and the mask, for example "99999/fk4{eedk}": 'e' mints an
extended digit, 'd' a decimal digit, and a trailing 'k' appends a check
character.

Example:
  pidsearch minter create 99999/fk4 "99999/fk4{eedk}"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		minters, err := openMinters()
		if err != nil {
			fmt.Fprintln(os.Stderr, "minter create:", err)
			os.Exit(exitSysError)
		}
		defer minters.Close()

		if err := minters.Create(args[0], args[1]); err != nil {
			if errors.Is(err, minter.ErrExists) || errors.Is(err, minter.ErrBadTemplate) {
				fmt.Fprintln(os.Stderr, "minter create:", err)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "minter create:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Created minter %s\n", args[0])
		return nil
	},
}

var minterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered minters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		minters, err := openMinters()
		if err != nil {
			fmt.Fprintln(os.Stderr, "minter list:", err)
			os.Exit(exitSysError)
		}
		defer minters.Close()

		names, err := minters.Names()
		if err != nil {
			fmt.Fprintln(os.Stderr, "minter list:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			if err := printJSON(names); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var minterShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Display minter state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minters, err := openMinters()
		if err != nil {
			fmt.Fprintln(os.Stderr, "minter show:", err)
			os.Exit(exitSysError)
		}
		defer minters.Close()

		state, err := minters.Get(args[0])
		if err != nil {
			if errors.Is(err, minter.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "minter %q not found\n", args[0])
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "minter show:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			if err := printJSON(state); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		fmt.Printf("Template:   %s\n", state.Template)
		fmt.Printf("Minted:     %d\n", state.BaseCount+state.Counter)
		fmt.Printf("Capacity:   %d\n", state.BaseCount+state.Top)
		if err := state.Validate(); err != nil {
			fmt.Printf("State:      %s\n", err)
		} else {
			fmt.Printf("State:      consistent\n")
		}
		return nil
	},
}

var minterRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete minter state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minters, err := openMinters()
		if err != nil {
			fmt.Fprintln(os.Stderr, "minter remove:", err)
			os.Exit(exitSysError)
		}
		defer minters.Close()

		if err := minters.Remove(args[0]); err != nil {
			if errors.Is(err, minter.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "minter %q not found\n", args[0])
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "minter remove:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Removed minter %s\n", args[0])
		return nil
	},
}
