// Mint command for the pidsearch CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pidsearch/internal/minter"
	"github.com/mesh-intelligence/pidsearch/internal/scheme"
	"github.com/mesh-intelligence/pidsearch/internal/sqlite"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

var (
	mintCount  int
	mintUpdate bool
)

var mintCmd = &cobra.Command{
	Use:   "mint <shoulder>",
	Short: "Mint identifiers under a registered shoulder",
	Long: `Mint generates identifier names under the given shoulder using its
minter. By default the names are previewed without consuming minter state;
--update persists the advance. DOI shoulders mint through the shadow ARK
namespace and print the DOI form.

Example:
  pidsearch mint ark:/99999/fk4
  pidsearch mint doi:10.5072/FK2 --count 5 --update`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if mintCount < 1 {
			fmt.Fprintln(os.Stderr, "mint: --count must be at least 1")
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "mint:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		table, err := backend.GetTable(types.TableShoulders)
		if err != nil {
			fmt.Fprintln(os.Stderr, "get table:", err)
			os.Exit(exitSysError)
		}

		sh, err := lookupShoulder(table, args[0])
		if err != nil {
			if isEntityNotFound(err) {
				fmt.Fprintf(os.Stderr, "shoulder %q not registered\n", args[0])
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "get shoulder:", err)
			os.Exit(exitSysError)
		}
		if !sh.Active {
			fmt.Fprintf(os.Stderr, "shoulder %q is not active\n", sh.Prefix)
			os.Exit(exitUserError)
		}
		if sh.Minter == "" {
			fmt.Fprintf(os.Stderr, "shoulder %q has no minter\n", sh.Prefix)
			os.Exit(exitUserError)
		}

		minters, err := openMinters()
		if err != nil {
			fmt.Fprintln(os.Stderr, "mint:", err)
			os.Exit(exitSysError)
		}
		defer minters.Close()

		var names []string
		if mintUpdate {
			names, err = mintForward(backend, minters, sh, mintCount)
		} else {
			names, err = minters.Preview(sh.Minter, mintCount)
		}
		if err != nil {
			if errors.Is(err, minter.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "minter %q not found (run shoulder check)\n", sh.Minter)
				os.Exit(exitUserError)
			}
			if errors.Is(err, minter.ErrExhausted) {
				fmt.Fprintf(os.Stderr, "minter %q exhausted\n", sh.Minter)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "mint:", err)
			os.Exit(exitSysError)
		}

		minted := make([]string, len(names))
		for i, name := range names {
			id, err := qualifyMinted(sh, name)
			if err != nil {
				fmt.Fprintln(os.Stderr, "mint:", err)
				os.Exit(exitSysError)
			}
			minted[i] = id
		}

		if flagJSON {
			if err := printJSON(minted); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitSysError)
			}
			return nil
		}

		for _, id := range minted {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	mintCmd.Flags().IntVar(&mintCount, "count", 1, "number of identifiers to mint")
	mintCmd.Flags().BoolVar(&mintUpdate, "update", false, "persist the minter advance")
}

// mintForward mints count names, advancing the minter past any name whose
// qualified identifier is already indexed.
func mintForward(backend *sqlite.Backend, minters *minter.Store, sh *types.Shoulder, count int) ([]string, error) {
	table, err := backend.GetTable(types.TableIdentifiers)
	if err != nil {
		return nil, err
	}

	taken := func(candidate string) (bool, error) {
		id, err := qualifyMinted(sh, candidate)
		if err != nil {
			return false, err
		}
		_, err = table.Get(id)
		if err == nil {
			return true, nil
		}
		if isEntityNotFound(err) {
			return false, nil
		}
		return false, err
	}

	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name, err := minters.Forward(sh.Minter, taken)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// lookupShoulder fetches a shoulder by prefix, retrying with the normalized
// form of the prefix.
func lookupShoulder(table types.Table, prefix string) (*types.Shoulder, error) {
	entity, err := table.Get(prefix)
	if isEntityNotFound(err) {
		if normalized, nerr := scheme.Normalize(prefix); nerr == nil && normalized != prefix {
			entity, err = table.Get(normalized)
		}
	}
	if err != nil {
		return nil, err
	}

	sh, ok := entity.(*types.Shoulder)
	if !ok {
		return nil, fmt.Errorf("entity is not a shoulder")
	}
	return sh, nil
}

// qualifyMinted turns a minted name into a full identifier. ARK minters emit
// the path after "ark:/"; DOI minters emit shadow ARK names that convert to
// the DOI form.
func qualifyMinted(sh *types.Shoulder, name string) (string, error) {
	switch sh.Type {
	case types.ShoulderTypeARK:
		return "ark:/" + name, nil
	case types.ShoulderTypeDOI:
		doi, err := scheme.ShadowToDOI("ark:/" + name)
		if err != nil {
			return "", fmt.Errorf("convert shadow %q: %w", name, err)
		}
		return doi, nil
	default:
		return "", fmt.Errorf("shoulder %q has unknown type %q", sh.Prefix, sh.Type)
	}
}
