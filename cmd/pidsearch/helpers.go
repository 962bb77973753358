// Shared helpers for pidsearch CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/pidsearch/internal/minter"
	"github.com/mesh-intelligence/pidsearch/internal/sqlite"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach(). Returns the attached
// backend or an error suitable for the CLI.
func attachBackend() (*sqlite.Backend, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	return backend, nil
}

// buildConfig assembles a types.Config from the resolved directories and the
// loaded worker settings.
func buildConfig() (types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	minterDir, err := resolveMinterDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve minter dir: %w", err)
	}

	return types.Config{
		Backend:   types.BackendSQLite,
		DataDir:   dataDir,
		MinterDir: minterDir,
		Worker: &types.WorkerConfig{
			BatchSize:   configBatchSize,
			IdleSeconds: configIdleSecs,
		},
	}, nil
}

// openMinters opens the minter database under the resolved minter directory.
// The caller must defer the returned store's Close.
func openMinters() (*minter.Store, error) {
	dir, err := resolveMinterDir()
	if err != nil {
		return nil, fmt.Errorf("resolve minter dir: %w", err)
	}

	store, err := minter.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open minter store: %w", err)
	}

	return store, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// isEntityNotFound returns true if the error wraps ErrNotFound.
func isEntityNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
