// Shoulder registry commands for the pidsearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

var shoulderCmd = &cobra.Command{
	Use:   "shoulder",
	Short: "Manage the shoulder registry",
}

func init() {
	shoulderCmd.AddCommand(shoulderListCmd)
	shoulderCmd.AddCommand(shoulderImportCmd)
	shoulderCmd.AddCommand(shoulderCheckCmd)
}

var (
	shoulderListType   string
	shoulderListActive bool
	shoulderListTest   bool
)

var shoulderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered shoulders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "shoulder list:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableShoulders)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		filter := map[string]any{}
		if shoulderListType != "" {
			filter["type"] = shoulderListType
		}
		if cmd.Flags().Changed("active") {
			filter["active"] = shoulderListActive
		}
		if cmd.Flags().Changed("test") {
			filter["is_test"] = shoulderListTest
		}

		entities, err := table.Fetch(filter)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fetch shoulders:", err)
			os.Exit(exitUserError)
		}

		if flagJSON {
			if err := printJSON(entities); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		for _, entity := range entities {
			sh, ok := entity.(*types.Shoulder)
			if !ok {
				continue
			}
			minterName := sh.Minter
			if minterName == "" {
				minterName = "-"
			}
			fmt.Printf("%-28s %-4s %-16s %s\n", sh.Prefix, sh.Type, minterName, sh.Name)
		}
		return nil
	},
}

// shoulderYAML is the registry import format. Entities carry no YAML tags,
// so the file shape is declared here.
type shoulderYAML struct {
	Prefix          string `yaml:"prefix"`
	Type            string `yaml:"type"`
	Name            string `yaml:"name"`
	Minter          string `yaml:"minter"`
	Datacenter      string `yaml:"datacenter"`
	CrossrefEnabled bool   `yaml:"crossref_enabled"`
	IsTest          bool   `yaml:"is_test"`
	IsSupershoulder bool   `yaml:"is_supershoulder"`
	Active          *bool  `yaml:"active"`
	Manager         string `yaml:"manager"`
}

var shoulderImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import shoulders from a YAML registry file",
	Long: `Import upserts every shoulder listed in the given YAML file. The file
holds a list of entries keyed by prefix; an omitted "active" field defaults
to true.

Example:
  pidsearch shoulder import shoulders.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "shoulder import:", err)
			os.Exit(exitUserError)
		}

		var entries []shoulderYAML
		if err := yaml.Unmarshal(data, &entries); err != nil {
			fmt.Fprintf(os.Stderr, "shoulder import: parse %s: %s\n", args[0], err)
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "shoulder import:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableShoulders)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		for _, entry := range entries {
			sh := &types.Shoulder{
				Prefix:          entry.Prefix,
				Type:            entry.Type,
				Name:            entry.Name,
				Minter:          entry.Minter,
				Datacenter:      entry.Datacenter,
				CrossrefEnabled: entry.CrossrefEnabled,
				IsTest:          entry.IsTest,
				IsSupershoulder: entry.IsSupershoulder,
				Active:          entry.Active == nil || *entry.Active,
				Manager:         entry.Manager,
			}
			if _, err := table.Set("", sh); err != nil {
				fmt.Fprintf(os.Stderr, "shoulder import: %s: %s\n", entry.Prefix, err)
				os.Exit(exitUserError)
			}
		}

		fmt.Printf("Imported %d shoulders\n", len(entries))
		return nil
	},
}

var shoulderCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate minter state against the shoulder registry",
	Long: `Check cross-references the shoulder registry with the minter database:
every shoulder that names a minter must have minter state, and every minter
state should be referenced by a shoulder. Problems are reported and the
command exits nonzero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "shoulder check:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableShoulders)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		entities, err := table.Fetch(nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fetch shoulders:", err)
			os.Exit(exitSysError)
		}

		minters, err := openMinters()
		if err != nil {
			fmt.Fprintln(os.Stderr, "shoulder check:", err)
			os.Exit(exitSysError)
		}
		defer minters.Close()

		names, err := minters.Names()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list minters:", err)
			os.Exit(exitSysError)
		}
		known := make(map[string]bool, len(names))
		for _, name := range names {
			known[name] = true
		}

		var missing, invalid, orphans []string
		referenced := map[string]bool{}
		for _, entity := range entities {
			sh, ok := entity.(*types.Shoulder)
			if !ok || sh.Minter == "" {
				continue
			}
			referenced[sh.Minter] = true
			if !known[sh.Minter] {
				missing = append(missing, fmt.Sprintf("%s (shoulder %s)", sh.Minter, sh.Prefix))
				continue
			}
			state, err := minters.Get(sh.Minter)
			if err != nil {
				fmt.Fprintln(os.Stderr, "read minter state:", err)
				os.Exit(exitSysError)
			}
			if err := state.Validate(); err != nil {
				invalid = append(invalid, fmt.Sprintf("%s: %s", sh.Minter, err))
			}
		}
		for _, name := range names {
			if !referenced[name] {
				orphans = append(orphans, name)
			}
		}

		if flagJSON {
			report := map[string]any{
				"shoulders": len(entities),
				"minters":   len(names),
				"missing":   missing,
				"invalid":   invalid,
				"orphans":   orphans,
			}
			if err := printJSON(report); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
		} else {
			for _, m := range missing {
				fmt.Printf("missing minter: %s\n", m)
			}
			for _, i := range invalid {
				fmt.Printf("invalid minter state: %s\n", i)
			}
			for _, o := range orphans {
				fmt.Printf("orphan minter: %s\n", o)
			}
			if len(missing) == 0 && len(invalid) == 0 && len(orphans) == 0 {
				fmt.Printf("Registry consistent: %d shoulders, %d minters\n", len(entities), len(names))
			}
		}

		if len(missing) > 0 || len(invalid) > 0 || len(orphans) > 0 {
			os.Exit(exitUserError)
		}
		return nil
	},
}

func init() {
	shoulderListCmd.Flags().StringVar(&shoulderListType, "type", "", "filter by shoulder type (ARK, DOI)")
	shoulderListCmd.Flags().BoolVar(&shoulderListActive, "active", false, "filter by active flag")
	shoulderListCmd.Flags().BoolVar(&shoulderListTest, "test", false, "filter by test flag")
}
